package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var maxU256 = abi.MaxUint256

func MustStringToBigint(data string) *big.Int {
	res, err := StringToBigint(data)
	if err != nil {
		panic(err)
	}

	return res
}

func StringToBigint(data string) (*big.Int, error) {
	if strings.HasPrefix(data, "-") {
		return nil, fmt.Errorf("%s invalid, can not support neg", data)
	}

	if data == "" {
		return common.Big0, nil
	}

	bigint, ok := new(big.Int).SetString(data, 10)
	if !ok {
		return nil, fmt.Errorf("%s invalid, can not parse to bigint", data)
	}

	return bigint, nil
}

// StringToUint256 parses a non-empty decimal string that must fit in uint256.
func StringToUint256(data string) (*big.Int, error) {
	if data == "" {
		return nil, fmt.Errorf("empty value, want decimal uint256")
	}

	b, err := StringToBigint(data)
	if err != nil {
		return nil, err
	}
	if b.Cmp(maxU256) > 0 {
		return nil, fmt.Errorf("%s invalid, overflows uint256", data)
	}

	return b, nil
}

// IsValidERCAddress accepts all-lowercase, all-uppercase or correctly
// checksummed hex addresses and returns the lowercase form.
func IsValidERCAddress(address string) (string, bool) {
	if !common.IsHexAddress(address) || !strings.HasPrefix(address, "0x") {
		return "", false
	}

	body := address[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return strings.ToLower(address), true
	}

	if common.HexToAddress(address).Hex() == address {
		return strings.ToLower(address), true
	}

	return "", false
}

func Unpack(types []string, data []byte) ([]interface{}, error) {
	args := abi.Arguments{}

	for _, t := range types {
		_t, err := abi.NewType(t, "", nil)
		if err != nil {
			return nil, err
		}

		args = append(args, abi.Argument{Type: _t})
	}

	return args.Unpack(data)
}
