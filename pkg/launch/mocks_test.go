package launch

import (
	"context"
	"fmt"
	"sync"

	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// callLog records collaborator invocations across mocks so tests can
// assert the saga's side-effect ordering.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *callLog) count(entry string) int {
	n := 0
	for _, e := range l.snapshot() {
		if e == entry {
			n++
		}
	}
	return n
}

// MockRecordStore is a func-field mock of RecordStore. The default
// Create assigns sequential ids.
type MockRecordStore struct {
	log     *callLog
	nextID  int
	mu      sync.Mutex
	records map[string]*token.Record

	CreateFunc             func(ctx context.Context, rec *token.Record) error
	SetTxHashFunc          func(ctx context.Context, id, txHash string) error
	SetContractAddressFunc func(ctx context.Context, id, contractAddress string) error
}

func newMockRecordStore(log *callLog) *MockRecordStore {
	return &MockRecordStore{log: log, records: map[string]*token.Record{}}
}

func (m *MockRecordStore) Create(ctx context.Context, rec *token.Record) error {
	m.log.add("store.Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = fmt.Sprintf("rec-%d", m.nextID)
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MockRecordStore) SetTxHash(ctx context.Context, id, txHash string) error {
	m.log.add("store.SetTxHash")
	if m.SetTxHashFunc != nil {
		return m.SetTxHashFunc(ctx, id, txHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.TxHash = txHash
	}
	return nil
}

func (m *MockRecordStore) SetContractAddress(ctx context.Context, id, contractAddress string) error {
	m.log.add("store.SetContractAddress")
	if m.SetContractAddressFunc != nil {
		return m.SetContractAddressFunc(ctx, id, contractAddress)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.ContractAddress = contractAddress
	}
	return nil
}

func (m *MockRecordStore) record(id string) *token.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

type mockSigner struct{ addr string }

func (s mockSigner) Address() string { return s.addr }

// MockSignerProvider is a func-field mock of SignerProvider.
type MockSignerProvider struct {
	log        *callLog
	SignerFunc func(ctx context.Context, network string) (Signer, error)
}

func (m *MockSignerProvider) Signer(ctx context.Context, network string) (Signer, error) {
	m.log.add("signers.Signer")
	if m.SignerFunc != nil {
		return m.SignerFunc(ctx, network)
	}
	return mockSigner{addr: "0xOwner"}, nil
}

// MockChainDeployer is a func-field mock of ChainDeployer.
type MockChainDeployer struct {
	log               *callLog
	SubmitFunc        func(ctx context.Context, signer Signer, cfg DeployConfig) (string, error)
	WaitConfirmedFunc func(ctx context.Context, network, txHash string) (string, error)
}

func (m *MockChainDeployer) Submit(ctx context.Context, signer Signer, cfg DeployConfig) (string, error) {
	m.log.add("deployer.Submit")
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, signer, cfg)
	}
	return "0xabc", nil
}

func (m *MockChainDeployer) WaitConfirmed(ctx context.Context, network, txHash string) (string, error) {
	m.log.add("deployer.WaitConfirmed")
	if m.WaitConfirmedFunc != nil {
		return m.WaitConfirmedFunc(ctx, network, txHash)
	}
	return "0x123", nil
}
