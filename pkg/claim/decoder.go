package claim

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"claim-portal/pkg/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/xeipuuv/gojsonschema"
)

const ParamName = "claim"

var (
	ErrNoClaimData      = errors.New("no claim data")
	ErrInvalidClaimData = errors.New("invalid claim data")
)

//go:embed schema.json
var schemaJSON []byte

var claimSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(err)
	}
	claimSchema = s
}

// Param returns the claim parameter from a full claim link, a bare query
// string, or the parameter value itself.
func Param(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, ParamName+"=") {
		return input
	}

	query := input
	if u, err := url.Parse(input); err == nil && u.RawQuery != "" {
		query = u.RawQuery
	} else if i := strings.Index(input, "?"); i >= 0 {
		query = input[i+1:]
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return ""
	}

	return values.Get(ParamName)
}

// Decode turns the claim parameter into a flat ClaimSet. An empty parameter
// yields ErrNoClaimData; anything malformed yields an error wrapping
// ErrInvalidClaimData and no claims.
func Decode(encoded string) (ClaimSet, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrNoClaimData
	}

	raw, err := decodeBase64(encoded)
	if err != nil {
		return nil, invalid("base64: %v", err)
	}
	if !utf8.Valid(raw) {
		return nil, invalid("payload is not utf-8")
	}

	result, err := claimSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, invalid("json: %v", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, fmt.Sprintf("%s: %s", desc.Context().String(), desc.Description()))
		}
		return nil, invalid("schema: %s", strings.Join(reasons, "; "))
	}

	var items []json.RawMessage
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, invalid("json: %v", err)
	}

	claims := ClaimSet{}
	for _, item := range items {
		var batch []Permit
		if bytes.HasPrefix(bytes.TrimSpace(item), []byte("[")) {
			err = json.Unmarshal(item, &batch)
		} else {
			var p Permit
			err = json.Unmarshal(item, &p)
			batch = []Permit{p}
		}
		if err != nil {
			return nil, invalid("json: %v", err)
		}

		for i := range batch {
			if err = Normalize(&batch[i]); err != nil {
				return nil, err
			}
		}
		claims = append(claims, batch...)
	}

	return claims, nil
}

// Encode is the inverse of Decode for a flat set.
func Encode(claims ClaimSet) (string, error) {
	b, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func decodeBase64(s string) ([]byte, error) {
	// query parsing turns '+' into ' '
	s = strings.ReplaceAll(s, " ", "+")

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, firstErr
}

// Normalize fills defaults and checks the address and uint256 fields of a
// single permit.
func Normalize(p *Permit) error {
	if p.Type == "" {
		p.Type = TypeERC20Permit
	}

	for name, addr := range map[string]string{
		"permit.permitted.token": p.Permit.Permitted.Token,
		"transferDetails.to":     p.TransferDetails.To,
		"owner":                  p.Owner,
	} {
		if _, ok := utils.IsValidERCAddress(addr); !ok {
			return invalid("%s: bad address %q", name, addr)
		}
	}

	for name, v := range map[string]string{
		"permit.permitted.amount":         p.Permit.Permitted.Amount,
		"permit.nonce":                    p.Permit.Nonce,
		"permit.deadline":                 p.Permit.Deadline,
		"transferDetails.requestedAmount": p.TransferDetails.RequestedAmount,
	} {
		if _, err := utils.StringToUint256(v); err != nil {
			return invalid("%s: %v", name, err)
		}
	}

	if _, err := hexutil.Decode(p.Signature); err != nil {
		return invalid("signature: %v", err)
	}
	if p.NetworkId == 0 {
		return invalid("networkId: must be positive")
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidClaimData, fmt.Sprintf(format, args...))
}
