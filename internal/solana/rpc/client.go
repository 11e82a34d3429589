package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"OpenMCP-Wallet/internal/solana"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to construct a Solana JSON-RPC client.
type Config struct {
	Name     string
	Endpoint string
}

// Client implements solana.Ledger on top of a JSON-RPC 2.0 connection.
type Client struct {
	name     string
	endpoint string
	caller   caller
	mu       sync.Mutex
	closed   bool
}

// caller mirrors the subset of *gethrpc.Client the ledger methods need.
type caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Close()
}

// NewClient dials the configured endpoint. HTTP endpoints are connected
// lazily, so dialing never touches the network.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("未配置 Solana RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("连接 Solana 节点失败: %w", err)
	}

	return &Client{name: cfg.Name, endpoint: endpoint, caller: rpcClient}, nil
}

// Endpoint returns the URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.caller == nil {
		return
	}
	c.caller.Close()
	c.closed = true
}

type contextValue[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

type commitmentConfig struct {
	Commitment solana.Commitment `json:"commitment,omitempty"`
}

// GetBalance returns the lamport balance of address.
func (c *Client) GetBalance(ctx context.Context, address string, commitment solana.Commitment) (uint64, error) {
	var out contextValue[uint64]
	if err := c.call(ctx, &out, "getBalance", address, commitmentConfig{Commitment: commitment}); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// GetTokenAccountsByOwner lists the token accounts of owner under programID.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, programID string, commitment solana.Commitment) ([]string, error) {
	var out contextValue[[]struct {
		Pubkey string `json:"pubkey"`
	}]
	filter := map[string]string{"programId": programID}
	opts := map[string]any{"encoding": "jsonParsed"}
	if commitment != "" {
		opts["commitment"] = commitment
	}
	if err := c.call(ctx, &out, "getTokenAccountsByOwner", owner, filter, opts); err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(out.Value))
	for _, account := range out.Value {
		accounts = append(accounts, account.Pubkey)
	}
	return accounts, nil
}

// GetTokenAccountBalance returns the token amount held by account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account string, commitment solana.Commitment) (solana.TokenAmount, error) {
	var out contextValue[solana.TokenAmount]
	if err := c.call(ctx, &out, "getTokenAccountBalance", account, commitmentConfig{Commitment: commitment}); err != nil {
		return solana.TokenAmount{}, err
	}
	return out.Value, nil
}

// GetLatestBlockhash fetches a fresh lifetime anchor.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment solana.Commitment) (solana.Blockhash, error) {
	var out contextValue[solana.Blockhash]
	if err := c.call(ctx, &out, "getLatestBlockhash", commitmentConfig{Commitment: commitment}); err != nil {
		return solana.Blockhash{}, err
	}
	if out.Value.Blockhash == "" {
		return solana.Blockhash{}, errors.New("getLatestBlockhash returned an empty blockhash")
	}
	return out.Value, nil
}

// SendRawTransaction submits the wire bytes of a signed transaction exactly
// once and returns the first signature as the submission id.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte, opts solana.SendOptions) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("没有可发送的交易")
	}
	config := map[string]any{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
		"maxRetries":    0,
	}
	if opts.PreflightCommitment != "" {
		config["preflightCommitment"] = opts.PreflightCommitment
	}
	var signature string
	if err := c.call(ctx, &signature, "sendTransaction", base64.StdEncoding.EncodeToString(raw), config); err != nil {
		return "", err
	}
	return signature, nil
}

type rpcTransaction struct {
	Slot      uint64 `json:"slot"`
	BlockTime *int64 `json:"blockTime"`
	Meta      *struct {
		Err          json.RawMessage `json:"err"`
		Fee          uint64          `json:"fee"`
		PreBalances  []uint64        `json:"preBalances"`
		PostBalances []uint64        `json:"postBalances"`
	} `json:"meta"`
}

// GetTransaction looks up a confirmed transaction. It returns (nil, nil) when
// the ledger has no record of signature.
func (c *Client) GetTransaction(ctx context.Context, signature string, commitment solana.Commitment) (*solana.TransactionStatus, error) {
	var out *rpcTransaction
	opts := map[string]any{
		"encoding":                       "json",
		"maxSupportedTransactionVersion": 0,
	}
	if commitment != "" {
		opts["commitment"] = commitment
	}
	if err := c.call(ctx, &out, "getTransaction", signature, opts); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	status := &solana.TransactionStatus{Slot: out.Slot, BlockTime: out.BlockTime}
	if out.Meta != nil {
		status.Err = out.Meta.Err
		status.Fee = out.Meta.Fee
		status.PreBalances = out.Meta.PreBalances
		status.PostBalances = out.Meta.PostBalances
	}
	return status, nil
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if c == nil || c.caller == nil {
		return errors.New("未初始化的 Solana 客户端")
	}
	if err := c.caller.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

var _ solana.Ledger = (*Client)(nil)
