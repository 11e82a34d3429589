package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"

	"OpenMCP-Wallet/internal/observability/alerting"
	"OpenMCP-Wallet/internal/solana"
)

const (
	testDevnet  = "https://devnet.test"
	testMainnet = "https://mainnet.test"
)

type fakeLedger struct {
	mu        sync.Mutex
	calls     map[string]int
	balance   uint64
	accounts  []string
	token     solana.TokenAmount
	blockhash string
	status    *solana.TransactionStatus
	err       error
	sent      [][]byte
	sendOpts  []solana.SendOptions
	sig       string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		calls:     map[string]int{},
		blockhash: solanago.Hash{1, 2, 3}.String(),
		sig:       solanago.Signature{9}.String(),
	}
}

func (f *fakeLedger) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.err
}

func (f *fakeLedger) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeLedger) GetBalance(context.Context, string, solana.Commitment) (uint64, error) {
	return f.balance, f.record("getBalance")
}

func (f *fakeLedger) GetTokenAccountsByOwner(context.Context, string, string, solana.Commitment) ([]string, error) {
	return f.accounts, f.record("getTokenAccountsByOwner")
}

func (f *fakeLedger) GetTokenAccountBalance(context.Context, string, solana.Commitment) (solana.TokenAmount, error) {
	return f.token, f.record("getTokenAccountBalance")
}

func (f *fakeLedger) GetLatestBlockhash(context.Context, solana.Commitment) (solana.Blockhash, error) {
	return solana.Blockhash{Blockhash: f.blockhash, LastValidBlockHeight: 100}, f.record("getLatestBlockhash")
}

func (f *fakeLedger) SendRawTransaction(_ context.Context, raw []byte, opts solana.SendOptions) (string, error) {
	if err := f.record("sendTransaction"); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.sent = append(f.sent, bytes.Clone(raw))
	f.sendOpts = append(f.sendOpts, opts)
	f.mu.Unlock()
	return f.sig, nil
}

func (f *fakeLedger) GetTransaction(context.Context, string, solana.Commitment) (*solana.TransactionStatus, error) {
	return f.status, f.record("getTransaction")
}

type fakeProvider struct {
	mu        sync.Mutex
	ledger    *fakeLedger
	endpoints []string
	released  int
}

func (p *fakeProvider) Ledger(_ context.Context, endpoint string) (solana.Ledger, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints = append(p.endpoints, endpoint)
	return p.ledger, func() {
		p.mu.Lock()
		p.released++
		p.mu.Unlock()
	}, nil
}

func (p *fakeProvider) counts() (leased, released int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints), p.released
}

func (p *fakeProvider) lastEndpoint() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[len(p.endpoints)-1]
}

type recordedCall struct {
	tool   string
	failed bool
	code   string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) ObserveToolCall(tool string, failed bool, code string, _ time.Duration) {
	r.mu.Lock()
	r.calls = append(r.calls, recordedCall{tool, failed, code})
	r.mu.Unlock()
}

type chanDispatcher chan alerting.Event

func (c chanDispatcher) Notify(_ context.Context, event alerting.Event) error {
	c <- event
	return nil
}

type harness struct {
	svc      *Service
	settings *Settings
	ledger   *fakeLedger
	provider *fakeProvider
	recorder *fakeRecorder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	settings, err := NewSettings(map[solana.Network]string{
		solana.Devnet:  testDevnet,
		solana.Mainnet: testMainnet,
	}, solana.Devnet)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	ledger := newFakeLedger()
	provider := &fakeProvider{ledger: ledger}
	recorder := &fakeRecorder{}
	opts = append([]Option{WithRecorder(recorder)}, opts...)
	return &harness{
		svc:      NewService(settings, provider, Ed25519Signer{}, opts...),
		settings: settings,
		ledger:   ledger,
		provider: provider,
		recorder: recorder,
	}
}

func testKeyMaterial(t *testing.T, seed byte) KeyMaterial {
	t.Helper()
	key, err := Ed25519Signer{}.KeyPairFromSecret(bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return key
}

func seedBase64(seed byte) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{seed}, 32))
}

func decodeBase64(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

func encodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }
