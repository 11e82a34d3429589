package transaction

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func testKey(t *testing.T, seed byte) (solana.PublicKey, solana.PrivateKey) {
	t.Helper()
	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize)))
	return priv.PublicKey(), priv
}

func newTransfer(t *testing.T, from, to solana.PublicKey, lamports uint64, anchor solana.Hash) *Transaction {
	t.Helper()
	tx, err := NewTransfer(from, to, lamports, anchor)
	if err != nil {
		t.Fatalf("new transfer: %v", err)
	}
	return tx
}

func sign(t *testing.T, tx *Transaction, priv solana.PrivateKey) solana.Signature {
	t.Helper()
	msg, err := tx.MessageBytes()
	if err != nil {
		t.Fatalf("message bytes: %v", err)
	}
	sig, err := priv.Sign(msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := tx.SetSignature(priv.PublicKey(), sig); err != nil {
		t.Fatalf("set signature: %v", err)
	}
	return sig
}

func TestNewTransferLayout(t *testing.T) {
	from, _ := testKey(t, 1)
	to, _ := testKey(t, 2)
	tx := newTransfer(t, from, to, 1_000_000_000, solana.Hash{9})

	raw, err := tx.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// 1 + 64 signature, 3 header, 1 + 3*32 keys, 32 hash, 1 ix count,
	// 1 program, 1 + 2 accounts, 1 + 12 data.
	if len(raw) != 215 {
		t.Fatalf("unexpected length %d", len(raw))
	}
	if raw[0] != 1 || !bytes.Equal(raw[1:65], make([]byte, 64)) {
		t.Fatal("expected one empty signature slot")
	}
	if !bytes.Equal(raw[65:68], []byte{1, 0, 1}) {
		t.Fatalf("unexpected header %v", raw[65:68])
	}
	data := raw[len(raw)-12:]
	if !bytes.Equal(data, []byte{2, 0, 0, 0, 0x00, 0xca, 0x9a, 0x3b, 0, 0, 0, 0}) {
		t.Fatalf("unexpected instruction data %x", data)
	}

	keys := tx.Message.AccountKeys
	if !keys[0].Equals(from) || !keys[1].Equals(to) || !keys[2].Equals(solana.SystemProgramID) {
		t.Fatalf("unexpected account keys %v", keys)
	}
	if tx.IsFullySigned() {
		t.Fatal("fresh transfer must not be signed")
	}
}

func TestNewTransferToSelf(t *testing.T) {
	from, _ := testKey(t, 1)
	tx := newTransfer(t, from, from, 5, solana.Hash{})
	if len(tx.Message.AccountKeys) != 2 {
		t.Fatalf("self transfer should dedupe keys, got %d", len(tx.Message.AccountKeys))
	}
	if len(tx.Signatures) != 1 {
		t.Fatalf("expected one signature slot, got %d", len(tx.Signatures))
	}
}

func TestDecodeRoundTripPreservesMessageBytes(t *testing.T) {
	from, priv := testKey(t, 3)
	to, _ := testKey(t, 4)
	tx := newTransfer(t, from, to, 42, solana.Hash{7})
	sig := sign(t, tx, priv)

	raw, err := tx.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	before, _ := tx.MessageBytes()
	after, _ := decoded.MessageBytes()
	if !bytes.Equal(before, after) {
		t.Fatal("message bytes changed across round trip")
	}
	if !decoded.IsFullySigned() || decoded.Signatures[0] != sig {
		t.Fatal("expected the signature to survive the round trip")
	}
	if err := decoded.VerifySignatures(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	again, err := decoded.Encode()
	if err != nil || !bytes.Equal(again, raw) {
		t.Fatalf("re-encode mismatch: %v", err)
	}
}

func TestVerifySignaturesRejectsTampering(t *testing.T) {
	from, priv := testKey(t, 5)
	to, _ := testKey(t, 6)
	tx := newTransfer(t, from, to, 42, solana.Hash{})

	if err := tx.VerifySignatures(); err == nil {
		t.Fatal("unsigned transaction should fail verification")
	}

	sig := sign(t, tx, priv)
	sig[0] ^= 0xff
	tx.Signatures[0] = sig
	if err := tx.VerifySignatures(); err == nil {
		t.Fatal("corrupted signature should fail verification")
	}
}

func TestSetSignatureRejectsNonSigner(t *testing.T) {
	from, _ := testKey(t, 1)
	to, _ := testKey(t, 2)
	tx := newTransfer(t, from, to, 1, solana.Hash{})
	if err := tx.SetSignature(to, solana.Signature{1}); err == nil {
		t.Fatal("recipient is not a signer")
	}
	if tx.SignerIndex(from) != 0 || tx.SignerIndex(to) != -1 {
		t.Fatal("unexpected signer indexes")
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	from, _ := testKey(t, 1)
	to, _ := testKey(t, 2)
	raw, err := newTransfer(t, from, to, 1, solana.Hash{}).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if _, err := Decode(raw[:len(raw)-1]); err == nil {
		t.Fatal("truncated input should fail")
	}
	if _, err := Decode(raw[:70]); err == nil {
		t.Fatal("input cut inside the account keys should fail")
	}
	if _, err := Decode(append(append([]byte(nil), raw...), 0)); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("trailing byte: %v", err)
	}
	if _, err := Decode(make([]byte, PacketDataSize+1)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversized input: %v", err)
	}
	if _, err := Decode(nil); err == nil {
		t.Fatal("empty input should fail")
	}

	noSigs := append([]byte{0}, raw[65:]...)
	if _, err := Decode(noSigs); err == nil {
		t.Fatal("signature count must match the header")
	}

	noSigners := append([]byte(nil), raw...)
	noSigners[65] = 0
	if _, err := Decode(noSigners); err == nil {
		t.Fatal("message without required signatures should fail")
	}
}

func TestPublicKeyBase58(t *testing.T) {
	pk, err := solana.PublicKeyFromBase58("11111111111111111111111111111111")
	if err != nil || !pk.Equals(solana.SystemProgramID) {
		t.Fatalf("system program = %v, %v", pk, err)
	}
	if _, err := solana.PublicKeyFromBase58("1111"); err == nil {
		t.Fatal("short key should fail")
	}
	if _, err := solana.PublicKeyFromBase58("0OIl"); err == nil {
		t.Fatal("invalid alphabet should fail")
	}
}
