package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Commitment is the ledger confirmation level a query is evaluated at.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// DefaultCommitment applies whenever a caller omits the commitment field.
const DefaultCommitment = CommitmentConfirmed

// ParseCommitment maps the raw tool input onto a Commitment. The empty string
// resolves to DefaultCommitment.
func ParseCommitment(raw string) (Commitment, error) {
	if raw == "" {
		return DefaultCommitment, nil
	}
	switch c := Commitment(strings.ToLower(strings.TrimSpace(raw))); c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return c, nil
	default:
		return "", fmt.Errorf("Invalid commitment: %s. Must be one of processed, confirmed, finalized", raw)
	}
}

// TokenProgramID is the SPL Token program that owns classic token accounts.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// TokenAmount mirrors the getTokenAccountBalance value object.
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       uint8    `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// Blockhash is the lifetime anchor a transaction is compiled against.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// SendOptions configures a raw transaction submission.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment Commitment
}

// TransactionStatus summarises a getTransaction lookup.
type TransactionStatus struct {
	Slot         uint64
	BlockTime    *int64
	Err          json.RawMessage
	Fee          uint64
	PreBalances  []uint64
	PostBalances []uint64
}

// Failed reports whether the ledger recorded an execution error.
func (s TransactionStatus) Failed() bool {
	trimmed := strings.TrimSpace(string(s.Err))
	return trimmed != "" && trimmed != "null"
}

// Ledger defines the ledger RPC capabilities the wallet tools consume. A nil
// status with a nil error from GetTransaction means the ledger has no record.
type Ledger interface {
	GetBalance(ctx context.Context, address string, commitment Commitment) (uint64, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string, commitment Commitment) ([]string, error)
	GetTokenAccountBalance(ctx context.Context, account string, commitment Commitment) (TokenAmount, error)
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (Blockhash, error)
	SendRawTransaction(ctx context.Context, raw []byte, opts SendOptions) (string, error)
	GetTransaction(ctx context.Context, signature string, commitment Commitment) (*TransactionStatus, error)
}
