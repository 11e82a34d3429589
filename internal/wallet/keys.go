package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	solanago "github.com/gagliardetto/solana-go"

	xerrors "OpenMCP-Wallet/internal/errors"
)

const msgInvalidPrivateKey = "Invalid private key. Expected base64 of a 32-byte seed or a 64-byte secret key"

// ErrInvalidKeypairFile is returned when a Solana CLI keypair file is malformed.
var ErrInvalidKeypairFile = errors.New("invalid keypair file")

// KeyMaterial 是一对 ed25519 密钥。私钥只在单次调用内存在，默认钱包槽位除外。
type KeyMaterial struct {
	private ed25519.PrivateKey
	address Address
}

func newKeyMaterial(private ed25519.PrivateKey) KeyMaterial {
	pub := solanago.PrivateKey(private).PublicKey()
	return KeyMaterial{private: private, address: Address(pub.String())}
}

// IsZero reports whether k holds no key.
func (k KeyMaterial) IsZero() bool { return len(k.private) == 0 }

// Address returns the public half.
func (k KeyMaterial) Address() Address { return k.address }

// PublicKey returns the raw 32-byte public key.
func (k KeyMaterial) PublicKey() solanago.PublicKey {
	if k.IsZero() {
		return solanago.PublicKey{}
	}
	return solanago.PrivateKey(k.private).PublicKey()
}

// Seed returns a copy of the 32-byte private seed.
func (k KeyMaterial) Seed() []byte {
	if k.IsZero() {
		return nil
	}
	return bytes.Clone(k.private.Seed())
}

// PrivateKeyBase64 exports the seed the way import_private_key accepts it.
func (k KeyMaterial) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.Seed())
}

// LogValue keeps the secret out of every log record.
func (k KeyMaterial) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("public_key", k.address.String()),
		slog.String("private_key", "[REDACTED]"),
	)
}

func (k KeyMaterial) String() string { return k.address.String() }

// DecodePrivateKey 解码 base64 私钥，长度必须是 32 字节种子或 64 字节密钥。
func DecodePrivateKey(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	decoded, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, xerrors.New(xerrors.CodeInvalidKey, msgInvalidPrivateKey+": not valid base64")
	}
	switch len(decoded) {
	case ed25519.SeedSize, ed25519.PrivateKeySize:
		return decoded, nil
	default:
		return nil, xerrors.New(xerrors.CodeInvalidKey, fmt.Sprintf("%s, got %d bytes", msgInvalidPrivateKey, len(decoded)))
	}
}

// DefaultKeypairPath returns the Solana CLI default keypair location.
func DefaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// LoadKeypairFile reads a Solana CLI keypair file (JSON array of 64 bytes)
// and returns the raw secret key.
func LoadKeypairFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("keypair path required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, ErrInvalidKeypairFile
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeypairFile
	}
	secret := make([]byte, ed25519.PrivateKeySize)
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, ErrInvalidKeypairFile
		}
		secret[i] = byte(v)
	}
	return secret, nil
}
