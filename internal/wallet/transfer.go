package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"

	xerrors "OpenMCP-Wallet/internal/errors"
	"OpenMCP-Wallet/internal/solana"
	"OpenMCP-Wallet/internal/solana/transaction"
)

// CreateTransaction 编译一笔未签名的 SOL 转账。所有输入校验都在访问账本之前完成。
func (s *Service) CreateTransaction(ctx context.Context, in CreateTransactionInput) Result {
	return s.run(ctx, ToolCreateTransaction, func(ctx context.Context) (string, error) {
		from, err := s.ownerAddress(in.FromPublicKey)
		if err != nil {
			return "", err
		}
		if err := required("toPublicKey", in.ToPublicKey); err != nil {
			return "", err
		}
		to, err := ParseAddress(in.ToPublicKey)
		if err != nil {
			return "", err
		}
		if raw := strings.TrimSpace(string(in.Amount)); raw == "" || raw == "null" {
			return "", required("amount", "")
		}
		lamports, err := ParseAmount(in.Amount)
		if err != nil {
			return "", err
		}
		commitment, err := parseCommitment(in.Commitment)
		if err != nil {
			return "", err
		}
		fromKey, err := from.PublicKey()
		if err != nil {
			return "", err
		}
		toKey, err := to.PublicKey()
		if err != nil {
			return "", err
		}

		ledger, release, err := s.ledgerFor(ctx, "")
		if err != nil {
			return "", err
		}
		defer release()
		anchor, err := ledger.GetLatestBlockhash(ctx, commitment)
		if err != nil {
			return "", collaboratorError(err)
		}
		blockhash, err := solanago.HashFromBase58(anchor.Blockhash)
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeRPCFailure, err, "ledger returned an invalid blockhash")
		}

		tx, err := transaction.NewTransfer(fromKey, toKey, lamports, blockhash)
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeDecodeFailure, err, "compile transfer")
		}
		encoded, _, err := EncodeTransport(tx)
		if err != nil {
			return "", err
		}
		return "Transaction created: " + encoded, nil
	})
}

// SignTransaction 为未签名的交易附加签名。已完全签名的交易会被拒绝。
func (s *Service) SignTransaction(ctx context.Context, in SignTransactionInput) Result {
	return s.run(ctx, ToolSignTransaction, func(context.Context) (string, error) {
		if err := required("transaction", in.Transaction); err != nil {
			return "", err
		}
		tx, stage, err := DecodeTransport(in.Transaction)
		if err != nil {
			return "", err
		}
		if stage == StageSigned {
			return "", xerrors.New(xerrors.CodeStageMismatch, "transaction is already fully signed")
		}
		key, err := s.signingKey(in.PrivateKey)
		if err != nil {
			return "", err
		}
		if tx.SignerIndex(key.PublicKey()) < 0 {
			return "", xerrors.Newf(xerrors.CodeInvalidKey, "%s is not a required signer of this transaction", key.Address())
		}

		message, err := tx.MessageBytes()
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeDecodeFailure, err, "encode message")
		}
		sig, err := s.signer.Sign(message, key)
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeSigningFailure, err, "")
		}
		if err := tx.SetSignature(key.PublicKey(), sig); err != nil {
			return "", xerrors.Wrap(xerrors.CodeSigningFailure, err, "")
		}

		encoded, _, err := EncodeTransport(tx)
		if err != nil {
			return "", err
		}
		return "Transaction signed: " + encoded, nil
	})
}

// SendTransaction 提交完全签名的交易，只尝试一次。
func (s *Service) SendTransaction(ctx context.Context, in SendTransactionInput) Result {
	return s.run(ctx, ToolSendTransaction, func(ctx context.Context) (string, error) {
		if err := required("signedTransaction", in.SignedTransaction); err != nil {
			return "", err
		}
		tx, stage, err := DecodeTransport(in.SignedTransaction)
		if err != nil {
			return "", err
		}
		if stage != StageSigned {
			return "", xerrors.New(xerrors.CodeStageMismatch, "transaction is not fully signed; call sign_transaction first")
		}
		if err := tx.VerifySignatures(); err != nil {
			return "", xerrors.Wrap(xerrors.CodeDecodeFailure, err, "signature verification failed",
				xerrors.WithSeverity(xerrors.SeverityWarning), xerrors.WithAlert(true))
		}
		commitment, err := parseCommitment(in.Commitment)
		if err != nil {
			return "", err
		}
		wire, err := tx.Encode()
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeDecodeFailure, err, "")
		}

		ledger, release, err := s.ledgerFor(ctx, in.RPCURL)
		if err != nil {
			return "", err
		}
		defer release()
		signature, err := ledger.SendRawTransaction(ctx, wire, solana.SendOptions{
			SkipPreflight:       in.SkipPreflight,
			PreflightCommitment: commitment,
		})
		if err != nil {
			return "", collaboratorError(err)
		}
		return "Transaction sent: " + signature, nil
	})
}

// CheckTransaction 查询交易状态，只读。
func (s *Service) CheckTransaction(ctx context.Context, in CheckTransactionInput) Result {
	return s.run(ctx, ToolCheckTransaction, func(ctx context.Context) (string, error) {
		if err := required("signature", in.Signature); err != nil {
			return "", err
		}
		signature, err := ParseSignature(in.Signature)
		if err != nil {
			return "", err
		}
		commitment, err := parseCommitment(in.Commitment)
		if err != nil {
			return "", err
		}
		if commitment == solana.CommitmentProcessed {
			return "", xerrors.New(xerrors.CodeInvalidArgument, "Invalid commitment: processed. Transaction lookups support confirmed or finalized")
		}

		ledger, release, err := s.ledgerFor(ctx, in.RPCURL)
		if err != nil {
			return "", err
		}
		defer release()
		status, err := ledger.GetTransaction(ctx, signature, commitment)
		if err != nil {
			return "", collaboratorError(err)
		}
		if status == nil {
			return "", xerrors.New(xerrors.CodeNotFound, "Transaction not found: "+signature)
		}
		return formatStatus(status), nil
	})
}

func formatStatus(status *solana.TransactionStatus) string {
	var b strings.Builder
	b.WriteString("Transaction confirmed:\n")
	fmt.Fprintf(&b, "Slot: %d\n", status.Slot)
	if status.BlockTime != nil {
		fmt.Fprintf(&b, "Block time: %s (%d)\n", time.Unix(*status.BlockTime, 0).UTC().Format(time.RFC3339), *status.BlockTime)
	} else {
		b.WriteString("Block time: unknown\n")
	}
	if status.Failed() {
		fmt.Fprintf(&b, "Status: Error %s\n", strings.TrimSpace(string(status.Err)))
	} else {
		b.WriteString("Status: Ok\n")
	}
	fmt.Fprintf(&b, "Fee: %d lamports\n", status.Fee)
	fmt.Fprintf(&b, "Pre balances: %v\n", status.PreBalances)
	fmt.Fprintf(&b, "Post balances: %v", status.PostBalances)
	return b.String()
}
