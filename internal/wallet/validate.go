package wallet

import (
	"context"
	"errors"

	xerrors "OpenMCP-Wallet/internal/errors"
	"OpenMCP-Wallet/internal/solana"
)

const (
	msgNoPublicKey  = "No public key provided and no default wallet configured. Set up the PRIVATE_KEY environment variable to use the default wallet."
	msgNoPrivateKey = "No private key provided and no default wallet configured. Set up the PRIVATE_KEY environment variable to use the default wallet."
)

// required 只把空字符串视为缺省；全空白的值交给后续的格式校验拒绝。
func required(field, value string) error {
	if value == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "Invalid input: "+field+" is required",
			xerrors.WithMetadata("field", field))
	}
	return nil
}

func parseCommitment(raw string) (solana.Commitment, error) {
	c, err := solana.ParseCommitment(raw)
	if err != nil {
		return "", xerrors.New(xerrors.CodeInvalidArgument, err.Error())
	}
	return c, nil
}

func parseNetwork(raw string) (solana.Network, error) {
	n, err := solana.ParseNetwork(raw)
	if err != nil {
		return "", xerrors.New(xerrors.CodeInvalidArgument, err.Error())
	}
	return n, nil
}

func parseEndpoint(raw string) (string, error) {
	e, err := solana.ParseEndpoint(raw)
	if err != nil {
		return "", xerrors.New(xerrors.CodeInvalidArgument, err.Error())
	}
	return e, nil
}

// ownerAddress 返回调用方给出的地址，缺省时回退到默认钱包的公钥。
func (s *Service) ownerAddress(raw string) (Address, error) {
	if raw == "" {
		key, ok := s.settings.DefaultWallet()
		if !ok {
			return "", xerrors.New(xerrors.CodeNoDefaultWallet, msgNoPublicKey)
		}
		return key.Address(), nil
	}
	return ParseAddress(raw)
}

// signingKey 解析调用方给出的私钥，缺省时回退到默认钱包。
func (s *Service) signingKey(raw string) (KeyMaterial, error) {
	if raw == "" {
		key, ok := s.settings.DefaultWallet()
		if !ok {
			return KeyMaterial{}, xerrors.New(xerrors.CodeNoDefaultWallet, msgNoPrivateKey)
		}
		return key, nil
	}
	return s.importKey(raw)
}

func (s *Service) importKey(raw string) (KeyMaterial, error) {
	secret, err := DecodePrivateKey(raw)
	if err != nil {
		return KeyMaterial{}, err
	}
	return s.signer.KeyPairFromSecret(secret)
}

// collaboratorError 把 RPC 等外部调用的错误归类到统一错误码，已分类的错误原样返回。
func collaboratorError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := xerrors.From(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return xerrors.Wrap(xerrors.CodeTimeout, err, "")
	}
	return xerrors.Wrap(xerrors.CodeRPCFailure, err, "")
}
