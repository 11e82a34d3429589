package wallet

import (
	"encoding/json"
	"testing"

	xerrors "OpenMCP-Wallet/internal/errors"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]uint64{
		`1`:                    1,
		`1000000000`:           1_000_000_000,
		`"42"`:                 42,
		`1e3`:                  1000,
		`2.0`:                  2,
		`18446744073709551615`: 18446744073709551615,
		`" 7 "`:                7,
		`1000e-3`:              1,
	}
	for raw, want := range valid {
		got, err := ParseAmount(json.RawMessage(raw))
		if err != nil || got != want {
			t.Fatalf("ParseAmount(%s) = %d, %v", raw, got, err)
		}
	}

	invalid := map[string]string{
		`0`:                    msgAmountNotPositive,
		`-1`:                   msgAmountNotPositive,
		`"NaN"`:                msgAmountNotPositive,
		`"Infinity"`:           msgAmountNotPositive,
		`{}`:                   msgAmountNotPositive,
		`0.5`:                  msgAmountFractional,
		`1e-400`:               msgAmountFractional,
		`"1e-400"`:             msgAmountFractional,
		`5e-324000`:            msgAmountFractional,
		`-1e-400`:              msgAmountNotPositive,
		`0e-400`:               msgAmountNotPositive,
		`1e400`:                msgAmountTooLarge,
		`-1e400`:               msgAmountNotPositive,
		`1e99999`:              msgAmountTooLarge,
		`18446744073709551616`: msgAmountTooLarge,
	}
	for raw, want := range invalid {
		_, err := ParseAmount(json.RawMessage(raw))
		if xerrors.CodeOf(err) != xerrors.CodeInvalidAmount || xerrors.Describe(err) != want {
			t.Fatalf("ParseAmount(%s) = %v, want %q", raw, err, want)
		}
	}
}
