package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"OpenMCP-Wallet/internal/solana"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers Solana JSON-RPC methods from a table of canned results.
type fakeNode struct {
	mu       sync.Mutex
	results  map[string]string
	failures map[string]string
	requests []rpcRequest
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	result, ok := f.results[req.Method]
	failure := f.failures[req.Method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failure != "":
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32002,"message":"` + failure + `"}}`))
	case ok:
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
	default:
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"Method not found"}}`))
	}
}

func (f *fakeNode) last(method string) rpcRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method {
			return f.requests[i]
		}
	}
	return rpcRequest{}
}

func newTestClient(t *testing.T, node *fakeNode) *Client {
	t.Helper()
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := NewClient(ctx, Config{Name: "test", Endpoint: server.URL})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestClientQueries(t *testing.T) {
	node := &fakeNode{results: map[string]string{
		"getBalance":              `{"context":{"slot":1},"value":1500000000}`,
		"getTokenAccountsByOwner": `{"context":{"slot":1},"value":[{"pubkey":"AccountA111111111111111111111111"},{"pubkey":"AccountB111111111111111111111111"}]}`,
		"getTokenAccountBalance":  `{"context":{"slot":1},"value":{"amount":"1234500","decimals":6,"uiAmount":1.2345,"uiAmountString":"1.2345"}}`,
		"getLatestBlockhash":      `{"context":{"slot":1},"value":{"blockhash":"EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N","lastValidBlockHeight":3090}}`,
	}}
	client := newTestClient(t, node)
	ctx := context.Background()

	balance, err := client.GetBalance(ctx, "owner", solana.CommitmentFinalized)
	if err != nil || balance != 1_500_000_000 {
		t.Fatalf("GetBalance = %d, %v", balance, err)
	}
	if params := node.last("getBalance").Params; len(params) != 2 || !strings.Contains(string(params[1]), `"finalized"`) {
		t.Fatalf("unexpected getBalance params %s", params)
	}

	accounts, err := client.GetTokenAccountsByOwner(ctx, "owner", solana.TokenProgramID, solana.CommitmentConfirmed)
	if err != nil || len(accounts) != 2 || accounts[1] != "AccountB111111111111111111111111" {
		t.Fatalf("GetTokenAccountsByOwner = %v, %v", accounts, err)
	}
	if params := node.last("getTokenAccountsByOwner").Params; !strings.Contains(string(params[1]), solana.TokenProgramID) {
		t.Fatalf("program filter missing: %s", params)
	}

	amount, err := client.GetTokenAccountBalance(ctx, "account", solana.CommitmentConfirmed)
	if err != nil || amount.UIAmountString != "1.2345" || amount.Decimals != 6 || amount.UIAmount == nil {
		t.Fatalf("GetTokenAccountBalance = %+v, %v", amount, err)
	}

	anchor, err := client.GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil || anchor.LastValidBlockHeight != 3090 {
		t.Fatalf("GetLatestBlockhash = %+v, %v", anchor, err)
	}
}

func TestClientSendRawTransaction(t *testing.T) {
	node := &fakeNode{results: map[string]string{
		"sendTransaction": `"5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"`,
	}}
	client := newTestClient(t, node)

	sig, err := client.SendRawTransaction(context.Background(), []byte{1, 2, 3}, solana.SendOptions{SkipPreflight: true, PreflightCommitment: solana.CommitmentProcessed})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasPrefix(sig, "5VERv8") {
		t.Fatalf("unexpected signature %q", sig)
	}

	params := node.last("sendTransaction").Params
	var payload string
	if err := json.Unmarshal(params[0], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload != base64.StdEncoding.EncodeToString([]byte{1, 2, 3}) {
		t.Fatalf("unexpected payload %q", payload)
	}
	var config map[string]any
	if err := json.Unmarshal(params[1], &config); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if config["skipPreflight"] != true || config["encoding"] != "base64" || config["preflightCommitment"] != "processed" {
		t.Fatalf("unexpected config %+v", config)
	}

	if _, err := client.SendRawTransaction(context.Background(), nil, solana.SendOptions{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestClientGetTransaction(t *testing.T) {
	node := &fakeNode{results: map[string]string{
		"getTransaction": `{"slot":42,"blockTime":1700000000,"meta":{"err":null,"fee":5000,"preBalances":[10,0],"postBalances":[4,1]}}`,
	}}
	client := newTestClient(t, node)

	status, err := client.GetTransaction(context.Background(), "sig", solana.CommitmentConfirmed)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if status == nil || status.Slot != 42 || status.Fee != 5000 || status.Failed() {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.BlockTime == nil || *status.BlockTime != 1700000000 {
		t.Fatalf("unexpected block time %v", status.BlockTime)
	}

	node.mu.Lock()
	node.results["getTransaction"] = "null"
	node.mu.Unlock()
	status, err = client.GetTransaction(context.Background(), "sig", solana.CommitmentConfirmed)
	if err != nil || status != nil {
		t.Fatalf("expected not found, got %+v, %v", status, err)
	}
}

func TestClientSurfacesRPCErrors(t *testing.T) {
	node := &fakeNode{failures: map[string]string{"sendTransaction": "Blockhash not found"}}
	client := newTestClient(t, node)

	_, err := client.SendRawTransaction(context.Background(), []byte{1}, solana.SendOptions{})
	if err == nil || !strings.Contains(err.Error(), "Blockhash not found") {
		t.Fatalf("expected rpc error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "sendTransaction:") {
		t.Fatalf("error should name the method: %v", err)
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
