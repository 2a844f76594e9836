package permit2

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Address is the canonical Uniswap Permit2 deployment, identical on every
// EVM chain through CREATE2.
const Address = "0x000000000022D473030F116dDEE9F6B43aC78BA3"

const erc20JSON = `[
	{
		"type": "function",
		"name": "balanceOf",
		"stateMutability": "view",
		"inputs": [{"name": "account", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "function",
		"name": "allowance",
		"stateMutability": "view",
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "function",
		"name": "decimals",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "uint8"}]
	}
]`

const permit2JSON = `[
	{
		"type": "function",
		"name": "permitTransferFrom",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"name": "permit",
				"type": "tuple",
				"components": [
					{
						"name": "permitted",
						"type": "tuple",
						"components": [
							{"name": "token", "type": "address"},
							{"name": "amount", "type": "uint256"}
						]
					},
					{"name": "nonce", "type": "uint256"},
					{"name": "deadline", "type": "uint256"}
				]
			},
			{
				"name": "transferDetails",
				"type": "tuple",
				"components": [
					{"name": "to", "type": "address"},
					{"name": "requestedAmount", "type": "uint256"}
				]
			},
			{"name": "owner", "type": "address"},
			{"name": "signature", "type": "bytes"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "invalidateUnorderedNonces",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "wordPos", "type": "uint256"},
			{"name": "mask", "type": "uint256"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "nonceBitmap",
		"stateMutability": "view",
		"inputs": [
			{"name": "", "type": "address"},
			{"name": "", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "uint256"}]
	}
]`

var (
	ERC20ABI   = mustParse(erc20JSON)
	Permit2ABI = mustParse(permit2JSON)
)

func mustParse(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
