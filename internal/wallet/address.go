package wallet

import (
	"regexp"

	solanago "github.com/gagliardetto/solana-go"

	xerrors "OpenMCP-Wallet/internal/errors"
)

var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// Address 是通过语法校验的 base58 账户地址，只能由 ParseAddress 构造。
type Address string

// ParseAddress 校验地址语法，成功时原样返回输入。
func ParseAddress(raw string) (Address, error) {
	if !addressPattern.MatchString(raw) {
		return "", xerrors.New(xerrors.CodeInvalidAddress, "Invalid address: "+raw)
	}
	return Address(raw), nil
}

func (a Address) String() string { return string(a) }

// PublicKey 将地址解码为 32 字节公钥。语法合法但解码长度不对的地址同样视为非法。
func (a Address) PublicKey() (solanago.PublicKey, error) {
	pk, err := solanago.PublicKeyFromBase58(string(a))
	if err != nil {
		return pk, xerrors.Wrap(xerrors.CodeInvalidAddress, err, "Invalid address: "+string(a))
	}
	return pk, nil
}

// ParseSignature 校验交易签名（base58 编码的 64 字节）。
func ParseSignature(raw string) (string, error) {
	if _, err := solanago.SignatureFromBase58(raw); raw == "" || err != nil {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "Invalid signature: "+raw)
	}
	return raw, nil
}
