package wallet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	solanago "github.com/gagliardetto/solana-go"

	xerrors "OpenMCP-Wallet/internal/errors"
)

// Signer 抽象密钥生成与签名能力。
type Signer interface {
	GenerateKeyPair() (KeyMaterial, error)
	KeyPairFromSecret(secret []byte) (KeyMaterial, error)
	Sign(message []byte, key KeyMaterial) (solanago.Signature, error)
}

// Ed25519Signer 基于 crypto/ed25519 生成密钥，签名交由 solana-go 完成。
type Ed25519Signer struct {
	// Rand 为空时使用 crypto/rand。
	Rand io.Reader
}

// GenerateKeyPair 生成新的密钥对。
func (s Ed25519Signer) GenerateKeyPair() (KeyMaterial, error) {
	source := s.Rand
	if source == nil {
		source = rand.Reader
	}
	_, private, err := ed25519.GenerateKey(source)
	if err != nil {
		return KeyMaterial{}, xerrors.Wrap(xerrors.CodeSigningFailure, err, "generate key pair")
	}
	return newKeyMaterial(private), nil
}

// KeyPairFromSecret 接受 32 字节种子或 64 字节密钥（种子 ‖ 公钥）。
func (Ed25519Signer) KeyPairFromSecret(secret []byte) (KeyMaterial, error) {
	switch len(secret) {
	case ed25519.SeedSize:
		return newKeyMaterial(ed25519.NewKeyFromSeed(secret)), nil
	case ed25519.PrivateKeySize:
		private := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
		if !bytes.Equal(private[ed25519.SeedSize:], secret[ed25519.SeedSize:]) {
			return KeyMaterial{}, xerrors.New(xerrors.CodeInvalidKey, "Invalid private key: public key half does not match the seed")
		}
		return newKeyMaterial(private), nil
	default:
		return KeyMaterial{}, xerrors.New(xerrors.CodeInvalidKey, fmt.Sprintf("%s, got %d bytes", msgInvalidPrivateKey, len(secret)))
	}
}

// Sign 对消息字节签名。
func (Ed25519Signer) Sign(message []byte, key KeyMaterial) (solanago.Signature, error) {
	if key.IsZero() {
		return solanago.Signature{}, xerrors.New(xerrors.CodeSigningFailure, "signing key is empty")
	}
	return solanago.PrivateKey(key.private).Sign(message)
}

var _ Signer = Ed25519Signer{}
