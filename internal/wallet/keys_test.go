package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	xerrors "OpenMCP-Wallet/internal/errors"
)

func TestDecodePrivateKey(t *testing.T) {
	seed := bytes.Repeat([]byte{1}, 32)
	full := ed25519.NewKeyFromSeed(seed)

	for _, raw := range []string{
		base64.StdEncoding.EncodeToString(seed),
		base64.StdEncoding.EncodeToString(full),
		" " + base64.StdEncoding.EncodeToString(seed) + "\n",
	} {
		if _, err := DecodePrivateKey(raw); err != nil {
			t.Fatalf("DecodePrivateKey(%q): %v", raw, err)
		}
	}
	for _, raw := range []string{"", "%%%", base64.StdEncoding.EncodeToString(make([]byte, 31))} {
		_, err := DecodePrivateKey(raw)
		if xerrors.CodeOf(err) != xerrors.CodeInvalidKey {
			t.Fatalf("DecodePrivateKey(%q) = %v", raw, err)
		}
	}
}

func TestKeyPairFromSecret(t *testing.T) {
	signer := Ed25519Signer{}
	seed := bytes.Repeat([]byte{2}, 32)
	fromSeed, err := signer.KeyPairFromSecret(seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	fromFull, err := signer.KeyPairFromSecret(ed25519.NewKeyFromSeed(seed))
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	if fromSeed.Address() != fromFull.Address() {
		t.Fatal("seed and full secret should yield the same key")
	}
	if fromSeed.PrivateKeyBase64() != base64.StdEncoding.EncodeToString(seed) {
		t.Fatal("private key export should be the seed")
	}

	mismatched := append(bytes.Clone(seed), bytes.Repeat([]byte{7}, 32)...)
	if _, err := signer.KeyPairFromSecret(mismatched); xerrors.CodeOf(err) != xerrors.CodeInvalidKey {
		t.Fatalf("mismatched public half: %v", err)
	}
}

func TestGenerateKeyPairRoundTrips(t *testing.T) {
	h := newHarness(t)
	res := h.svc.GenerateKeyPair(t.Context(), GenerateKeyPairInput{})
	if res.IsError {
		t.Fatalf("generate: %s", res.Text())
	}
	lines := strings.Split(res.Text(), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Public key: ") || !strings.HasPrefix(lines[1], "Private key: ") {
		t.Fatalf("unexpected output %q", res.Text())
	}
	imported := h.svc.ImportPrivateKey(t.Context(), ImportPrivateKeyInput{PrivateKey: strings.TrimPrefix(lines[1], "Private key: ")})
	if imported.Text() != lines[0] {
		t.Fatalf("import %q does not match %q", imported.Text(), lines[0])
	}
	if _, ok := h.settings.DefaultWallet(); ok {
		t.Fatal("generate/import must not populate the default wallet")
	}
}

func TestKeyMaterialRedactsSecret(t *testing.T) {
	key := testKeyMaterial(t, 3)
	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("wallet", slog.Any("key", key))
	out := buf.String()
	if strings.Contains(out, key.PrivateKeyBase64()) {
		t.Fatalf("secret leaked into log: %s", out)
	}
	if !strings.Contains(out, key.Address().String()) || !strings.Contains(out, "REDACTED") {
		t.Fatalf("unexpected log output %s", out)
	}
}

func TestLoadKeypairFile(t *testing.T) {
	dir := t.TempDir()
	secret := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{4}, 32))
	ints := make([]int, len(secret))
	for i, b := range secret {
		ints[i] = int(b)
	}
	raw, _ := json.Marshal(ints)
	path := filepath.Join(dir, "id.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadKeypairFile(path)
	if err != nil || !bytes.Equal(got, secret) {
		t.Fatalf("load: %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`[1,2,3]`), 0o600)
	if _, err := LoadKeypairFile(bad); err != ErrInvalidKeypairFile {
		t.Fatalf("short file: %v", err)
	}
	if _, err := LoadKeypairFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestMnemonicTools(t *testing.T) {
	h := newHarness(t)
	generated := h.svc.GenerateMnemonic(t.Context(), GenerateMnemonicInput{Passphrase: "pass"})
	if generated.IsError {
		t.Fatalf("generate: %s", generated.Text())
	}
	lines := strings.Split(generated.Text(), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "Mnemonic: ") {
		t.Fatalf("unexpected output %q", generated.Text())
	}
	phrase := strings.TrimPrefix(lines[0], "Mnemonic: ")
	if n := len(strings.Fields(phrase)); n != 12 {
		t.Fatalf("expected 12 words, got %d", n)
	}

	imported := h.svc.ImportMnemonic(t.Context(), ImportMnemonicInput{Mnemonic: phrase, Passphrase: "pass"})
	if imported.IsError || !strings.HasPrefix(imported.Text(), lines[1]) {
		t.Fatalf("import %q should start with %q", imported.Text(), lines[1])
	}
	other := h.svc.ImportMnemonic(t.Context(), ImportMnemonicInput{Mnemonic: phrase})
	if strings.HasPrefix(other.Text(), lines[1]) {
		t.Fatal("passphrase should change the derived key")
	}

	bad := h.svc.ImportMnemonic(t.Context(), ImportMnemonicInput{Mnemonic: "abandon abandon abandon"})
	if !bad.IsError || bad.Code != xerrors.CodeInvalidKey {
		t.Fatalf("invalid mnemonic: %+v", bad)
	}
}
