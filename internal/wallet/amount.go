package wallet

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	xerrors "OpenMCP-Wallet/internal/errors"
)

const (
	msgAmountNotPositive = "Invalid amount. Amount must be greater than zero."
	msgAmountFractional  = "Invalid amount. Amount must be a whole number of lamports."
	msgAmountTooLarge    = "Invalid amount. Amount exceeds the maximum of 18446744073709551615 lamports."
)

var maxLamports = new(big.Int).SetUint64(math.MaxUint64)

// 超出该量级的指数不再精确展开。
const maxExactExponent = 10000

// ParseAmount 解析以 lamports 计的转账金额。raw 可以是 JSON 数字或带引号的数字字符串。
// 正负与整数性按精确十进制值判断，float64 只用于识别 NaN 与 Inf。
func ParseAmount(raw json.RawMessage) (uint64, error) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}

	f, err := strconv.ParseFloat(text, 64)
	switch {
	case err != nil && !errors.Is(err, strconv.ErrRange), math.IsNaN(f):
		return 0, amountError(msgAmountNotPositive)
	case math.IsInf(f, 1) && err != nil:
		return 0, amountError(msgAmountTooLarge)
	case math.IsInf(f, 0):
		return 0, amountError(msgAmountNotPositive)
	}

	mantissa, exp := splitExponent(text)
	if exp > maxExactExponent || exp < -maxExactExponent {
		m, ok := new(big.Rat).SetString(mantissa)
		switch {
		case !ok || m.Sign() <= 0:
			return 0, amountError(msgAmountNotPositive)
		case exp > 0:
			return 0, amountError(msgAmountTooLarge)
		default:
			return 0, amountError(msgAmountFractional)
		}
	}

	exact, ok := new(big.Rat).SetString(text)
	switch {
	case !ok || exact.Sign() <= 0:
		return 0, amountError(msgAmountNotPositive)
	case !exact.IsInt():
		return 0, amountError(msgAmountFractional)
	case exact.Num().Cmp(maxLamports) > 0:
		return 0, amountError(msgAmountTooLarge)
	}
	return exact.Num().Uint64(), nil
}

// splitExponent 拆出十进制指数部分，没有指数时 exp 为 0。
func splitExponent(text string) (mantissa string, exp int) {
	i := strings.IndexAny(text, "eE")
	if i < 0 {
		return text, 0
	}
	exp, err := strconv.Atoi(text[i+1:])
	if err != nil {
		// 超出 int 范围的指数按符号取极值。
		if strings.HasPrefix(text[i+1:], "-") {
			return text[:i], math.MinInt
		}
		return text[:i], math.MaxInt
	}
	return text[:i], exp
}

func amountError(msg string) error {
	return xerrors.New(xerrors.CodeInvalidAmount, msg, xerrors.WithMetadata("field", "amount"))
}
