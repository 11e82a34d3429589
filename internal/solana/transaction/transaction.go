// Package transaction adapts solana-go transactions to the wallet lifecycle:
// signature slots are always sized to the message header, so a transaction
// can be serialized before it is signed.
package transaction

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// PacketDataSize bounds a serialized transaction.
const PacketDataSize = 1232

var (
	ErrTooLarge      = fmt.Errorf("transaction exceeds %d bytes", PacketDataSize)
	ErrTrailingBytes = errors.New("unexpected trailing bytes after transaction")
	ErrNonCanonical  = errors.New("transaction encoding is not canonical")
)

// Transaction is a solana-go transaction with one signature slot per
// required signer.
type Transaction struct {
	*solana.Transaction
}

func wrap(tx *solana.Transaction) *Transaction {
	if n := int(tx.Message.Header.NumRequiredSignatures); len(tx.Signatures) != n {
		sigs := make([]solana.Signature, n)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	return &Transaction{Transaction: tx}
}

// NewTransfer compiles an unsigned system transfer of lamports from one
// account to another, anchored to blockhash. from pays the fee.
func NewTransfer(from, to solana.PublicKey, lamports uint64, blockhash solana.Hash) (*Transaction, error) {
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from, to).Build()},
		blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, err
	}
	return wrap(tx), nil
}

// Decode parses wire bytes. The bytes must be consumed entirely and must
// re-encode to themselves, so the message that gets signed is exactly the
// message the caller supplied.
func Decode(raw []byte) (tx *Transaction, err error) {
	if len(raw) == 0 {
		return nil, errors.New("empty transaction")
	}
	if len(raw) > PacketDataSize {
		return nil, ErrTooLarge
	}
	defer func() {
		if r := recover(); r != nil {
			tx, err = nil, fmt.Errorf("malformed transaction: %v", r)
		}
	}()

	dec := bin.NewBinDecoder(raw)
	parsed, err := solana.TransactionFromDecoder(dec)
	if err != nil {
		return nil, err
	}
	if dec.Remaining() != 0 {
		return nil, ErrTrailingBytes
	}
	if err := checkHeader(parsed); err != nil {
		return nil, err
	}
	again, err := parsed.MarshalBinary()
	if err != nil || !bytes.Equal(again, raw) {
		return nil, ErrNonCanonical
	}
	return &Transaction{Transaction: parsed}, nil
}

func checkHeader(tx *solana.Transaction) error {
	h := tx.Message.Header
	switch {
	case h.NumRequiredSignatures == 0:
		return errors.New("message requires no signatures")
	case int(h.NumRequiredSignatures) > len(tx.Message.AccountKeys):
		return errors.New("message requires more signatures than it has accounts")
	case h.NumReadonlySignedAccounts >= h.NumRequiredSignatures:
		return errors.New("message has no writable fee payer")
	case len(tx.Signatures) != int(h.NumRequiredSignatures):
		return fmt.Errorf("transaction carries %d signatures but its message requires %d", len(tx.Signatures), h.NumRequiredSignatures)
	}
	return nil
}

// MessageBytes returns the bytes each signer signs.
func (t *Transaction) MessageBytes() ([]byte, error) {
	return t.Message.MarshalBinary()
}

// Encode serializes the transaction in wire format.
func (t *Transaction) Encode() ([]byte, error) {
	raw, err := t.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(raw) > PacketDataSize {
		return nil, ErrTooLarge
	}
	return raw, nil
}

// SignerIndex reports the signature slot of pk, or -1 when pk is not a
// required signer.
func (t *Transaction) SignerIndex(pk solana.PublicKey) int {
	n := int(t.Message.Header.NumRequiredSignatures)
	if n > len(t.Message.AccountKeys) {
		n = len(t.Message.AccountKeys)
	}
	for i := 0; i < n; i++ {
		if t.Message.AccountKeys[i].Equals(pk) {
			return i
		}
	}
	return -1
}

// SetSignature places sig into the slot that belongs to pk.
func (t *Transaction) SetSignature(pk solana.PublicKey, sig solana.Signature) error {
	idx := t.SignerIndex(pk)
	if idx < 0 {
		return fmt.Errorf("%s is not a required signer of this transaction", pk)
	}
	t.Signatures[idx] = sig
	return nil
}

// IsFullySigned reports whether every signature slot is filled.
func (t *Transaction) IsFullySigned() bool {
	for _, sig := range t.Signatures {
		if sig == (solana.Signature{}) {
			return false
		}
	}
	return len(t.Signatures) > 0
}
