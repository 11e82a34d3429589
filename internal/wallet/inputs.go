package wallet

import "encoding/json"

// 工具输入。字段名与工具 schema 中的属性名保持一致。

type BalanceInput struct {
	PublicKey  string `json:"publicKey,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

type TokenAccountsInput struct {
	PublicKey  string `json:"publicKey,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

type TokenBalanceInput struct {
	TokenAccountAddress string `json:"tokenAccountAddress"`
	Commitment          string `json:"commitment,omitempty"`
}

// CreateTransactionInput keeps amount raw so that non-numeric values reach
// ParseAmount instead of failing JSON decoding.
type CreateTransactionInput struct {
	FromPublicKey string          `json:"fromPublicKey,omitempty"`
	ToPublicKey   string          `json:"toPublicKey"`
	Amount        json.RawMessage `json:"amount"`
	Commitment    string          `json:"commitment,omitempty"`
}

type SignTransactionInput struct {
	Transaction string `json:"transaction"`
	PrivateKey  string `json:"privateKey,omitempty"`
}

type SendTransactionInput struct {
	SignedTransaction string `json:"signedTransaction"`
	SkipPreflight     bool   `json:"skipPreflight,omitempty"`
	Commitment        string `json:"commitment,omitempty"`
	RPCURL            string `json:"rpcUrl,omitempty"`
}

type CheckTransactionInput struct {
	Signature  string `json:"signature"`
	RPCURL     string `json:"rpcUrl,omitempty"`
	Commitment string `json:"commitment,omitempty"`
}

type GenerateKeyPairInput struct{}

type ImportPrivateKeyInput struct {
	PrivateKey string `json:"privateKey"`
}

type ValidateAddressInput struct {
	Address string `json:"address"`
}

type SwitchNetworkInput struct {
	Network string `json:"network"`
}

type GetCurrentNetworkInput struct{}

type SetDefaultWalletInput struct {
	PrivateKey string `json:"privateKey"`
}

type GenerateMnemonicInput struct {
	Passphrase string `json:"passphrase,omitempty"`
}

type ImportMnemonicInput struct {
	Mnemonic   string `json:"mnemonic"`
	Passphrase string `json:"passphrase,omitempty"`
}
