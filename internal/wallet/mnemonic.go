package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	xerrors "OpenMCP-Wallet/internal/errors"
)

// MnemonicEntropyBits yields 12-word phrases.
const MnemonicEntropyBits = 128

// GenerateMnemonic creates a new BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// SeedFromMnemonic derives the ed25519 seed the Solana CLI uses for a phrase
// without a derivation path: the first 32 bytes of the BIP-39 seed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, xerrors.New(xerrors.CodeInvalidKey, "Invalid mnemonic. Expected a BIP-39 phrase with a valid checksum")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidKey, err, "Invalid mnemonic")
	}
	return seed[:32], nil
}
