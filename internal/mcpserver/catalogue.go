package mcpserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"OpenMCP-Wallet/internal/wallet"
)

var commitments = []string{"processed", "confirmed", "finalized"}

func object(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enum(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func commitment() map[string]any {
	return enum("Commitment level, defaults to confirmed", commitments...)
}

// Catalogue 返回全部工具的声明，顺序即 tools/list 的展示顺序。
func Catalogue() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        wallet.ToolGetBalance,
			Description: "Get the SOL balance of an address in lamports. Uses the default wallet when publicKey is omitted.",
			InputSchema: object(nil, map[string]any{
				"publicKey":  str("Base58 account address"),
				"commitment": commitment(),
			}),
		},
		{
			Name:        wallet.ToolGetTokenAccounts,
			Description: "List the SPL token accounts owned by an address.",
			InputSchema: object(nil, map[string]any{
				"publicKey":  str("Base58 owner address, defaults to the default wallet"),
				"commitment": commitment(),
			}),
		},
		{
			Name:        wallet.ToolGetTokenBalance,
			Description: "Get the balance of a single SPL token account.",
			InputSchema: object([]string{"tokenAccountAddress"}, map[string]any{
				"tokenAccountAddress": str("Base58 token account address"),
				"commitment":          commitment(),
			}),
		},
		{
			Name:        wallet.ToolCreateTransaction,
			Description: "Create an unsigned SOL transfer. Returns a transport string for sign_transaction.",
			InputSchema: object([]string{"toPublicKey", "amount"}, map[string]any{
				"fromPublicKey": str("Sender address, defaults to the default wallet"),
				"toPublicKey":   str("Recipient address"),
				"amount": map[string]any{
					"type":        "number",
					"description": "Amount in lamports, a positive whole number",
				},
				"commitment": commitment(),
			}),
		},
		{
			Name:        wallet.ToolSignTransaction,
			Description: "Sign a transaction produced by create_transaction.",
			InputSchema: object([]string{"transaction"}, map[string]any{
				"transaction": str("Unsigned transaction transport string"),
				"privateKey":  str("Base64 private key, defaults to the default wallet"),
			}),
		},
		{
			Name:        wallet.ToolSendTransaction,
			Description: "Submit a fully signed transaction to the network. Submits exactly once.",
			InputSchema: object([]string{"signedTransaction"}, map[string]any{
				"signedTransaction": str("Signed transaction transport string"),
				"skipPreflight": map[string]any{
					"type":        "boolean",
					"description": "Skip the preflight simulation",
				},
				"commitment": commitment(),
				"rpcUrl":     str("RPC endpoint overriding the selected network"),
			}),
		},
		{
			Name:        wallet.ToolCheckTransaction,
			Description: "Look up the status of a submitted transaction.",
			InputSchema: object([]string{"signature"}, map[string]any{
				"signature":  str("Base58 transaction signature"),
				"rpcUrl":     str("RPC endpoint overriding the selected network"),
				"commitment": enum("Commitment level, defaults to confirmed", "confirmed", "finalized"),
			}),
		},
		{
			Name:        wallet.ToolGenerateKeyPair,
			Description: "Generate a new key pair. The default wallet is not changed.",
			InputSchema: object(nil, map[string]any{}),
		},
		{
			Name:        wallet.ToolImportPrivateKey,
			Description: "Derive the public key of a base64 private key.",
			InputSchema: object([]string{"privateKey"}, map[string]any{
				"privateKey": str("Base64 of a 32 byte seed or 64 byte secret key"),
			}),
		},
		{
			Name:        wallet.ToolValidateAddress,
			Description: "Check whether a string is a well-formed address. Does not contact the network.",
			InputSchema: object([]string{"address"}, map[string]any{
				"address": str("Address to check"),
			}),
		},
		{
			Name:        wallet.ToolSwitchNetwork,
			Description: "Switch the active network.",
			InputSchema: object([]string{"network"}, map[string]any{
				"network": enum("Network name", "devnet", "mainnet"),
			}),
		},
		{
			Name:        wallet.ToolGetCurrentNetwork,
			Description: "Report the active network and its RPC endpoint.",
			InputSchema: object(nil, map[string]any{}),
		},
		{
			Name:        wallet.ToolSetDefaultWallet,
			Description: "Replace the default wallet used when a tool omits a key or address.",
			InputSchema: object([]string{"privateKey"}, map[string]any{
				"privateKey": str("Base64 private key"),
			}),
		},
		{
			Name:        wallet.ToolGenerateMnemonic,
			Description: "Generate a 12 word recovery phrase and the key pair derived from it.",
			InputSchema: object(nil, map[string]any{
				"passphrase": str("Optional passphrase mixed into the seed"),
			}),
		},
		{
			Name:        wallet.ToolImportMnemonic,
			Description: "Derive a key pair from a recovery phrase.",
			InputSchema: object([]string{"mnemonic"}, map[string]any{
				"mnemonic":   str("Space separated recovery phrase"),
				"passphrase": str("Optional passphrase"),
			}),
		},
	}
}
