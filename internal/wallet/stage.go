package wallet

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	xerrors "OpenMCP-Wallet/internal/errors"
	"OpenMCP-Wallet/internal/solana/transaction"
)

// Stage 标记传输字符串中交易所处的生命周期阶段。
type Stage byte

const (
	StageUnsigned Stage = 0x01
	StageSigned   Stage = 0x02
)

func (s Stage) String() string {
	switch s {
	case StageUnsigned:
		return "unsigned"
	case StageSigned:
		return "signed"
	default:
		return fmt.Sprintf("stage(0x%02x)", byte(s))
	}
}

var transportMagic = []byte("SWTX")

const transportVersion = 0x01

// stageOf 根据签名是否齐全推导阶段。
func stageOf(tx *transaction.Transaction) Stage {
	if tx.IsFullySigned() {
		return StageSigned
	}
	return StageUnsigned
}

// EncodeTransport 序列化交易：base64("SWTX" | version | stage | wire bytes)。
func EncodeTransport(tx *transaction.Transaction) (string, Stage, error) {
	wire, err := tx.Encode()
	if err != nil {
		return "", 0, xerrors.Wrap(xerrors.CodeDecodeFailure, err, "encode transaction")
	}
	stage := stageOf(tx)
	buf := make([]byte, 0, len(transportMagic)+2+len(wire))
	buf = append(buf, transportMagic...)
	buf = append(buf, transportVersion, byte(stage))
	buf = append(buf, wire...)
	return base64.StdEncoding.EncodeToString(buf), stage, nil
}

// DecodeTransport 解析传输字符串，并校验阶段标记与签名状态一致。
func DecodeTransport(raw string) (*transaction.Transaction, Stage, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, 0, xerrors.New(xerrors.CodeDecodeFailure, "transaction is not valid base64")
	}
	header := len(transportMagic) + 2
	if len(decoded) < header || !bytes.Equal(decoded[:len(transportMagic)], transportMagic) {
		return nil, 0, xerrors.New(xerrors.CodeDecodeFailure, "transaction was not produced by create_transaction or sign_transaction")
	}
	if v := decoded[len(transportMagic)]; v != transportVersion {
		return nil, 0, xerrors.Newf(xerrors.CodeDecodeFailure, "unsupported transaction encoding version %d", v)
	}
	stage := Stage(decoded[len(transportMagic)+1])
	if stage != StageUnsigned && stage != StageSigned {
		return nil, 0, xerrors.Newf(xerrors.CodeDecodeFailure, "unknown transaction stage 0x%02x", byte(stage))
	}

	tx, err := transaction.Decode(decoded[header:])
	if err != nil {
		return nil, 0, xerrors.Wrap(xerrors.CodeDecodeFailure, err, "malformed transaction")
	}
	if stageOf(tx) != stage {
		return nil, 0, xerrors.Newf(xerrors.CodeDecodeFailure, "transaction is tagged %s but its signatures say %s", stage, stageOf(tx))
	}
	return tx, stage, nil
}
