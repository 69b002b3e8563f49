package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/tokenforge/launchpad-middleware/pkg/launch"
	"github.com/tokenforge/launchpad-middleware/pkg/recordstore"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

type mockStore struct {
	mu      sync.Mutex
	nextID  int
	records map[string]*token.Record

	CreateFn             func(ctx context.Context, rec *token.Record) error
	SetTxHashFn          func(ctx context.Context, id, txHash string) error
	SetContractAddressFn func(ctx context.Context, id, addr string) error
	GetFn                func(ctx context.Context, id string) (*token.Record, error)
	ListByCreatorFn      func(ctx context.Context, creatorID string) ([]*token.Record, error)
	ListDivergedFn       func(ctx context.Context) ([]*token.Record, error)
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]*token.Record)}
}

func (m *mockStore) Create(ctx context.Context, rec *token.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = fmt.Sprintf("rec-%d", m.nextID)
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockStore) SetTxHash(ctx context.Context, id, txHash string) error {
	if m.SetTxHashFn != nil {
		return m.SetTxHashFn(ctx, id, txHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.TxHash = txHash
	}
	return nil
}

func (m *mockStore) SetContractAddress(ctx context.Context, id, addr string) error {
	if m.SetContractAddressFn != nil {
		return m.SetContractAddressFn(ctx, id, addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		rec.ContractAddress = addr
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, id string) (*token.Record, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, recordstore.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockStore) ListByCreator(ctx context.Context, creatorID string) ([]*token.Record, error) {
	if m.ListByCreatorFn != nil {
		return m.ListByCreatorFn(ctx, creatorID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*token.Record
	for _, rec := range m.records {
		if rec.CreatorID == creatorID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) ListDiverged(ctx context.Context) ([]*token.Record, error) {
	if m.ListDivergedFn != nil {
		return m.ListDivergedFn(ctx)
	}
	return nil, nil
}

type mockSigner struct{ addr string }

func (s *mockSigner) Address() string { return s.addr }

type mockSignerProvider struct {
	SignerFn func(ctx context.Context, network string) (launch.Signer, error)
}

func (m *mockSignerProvider) Signer(ctx context.Context, network string) (launch.Signer, error) {
	if m.SignerFn != nil {
		return m.SignerFn(ctx, network)
	}
	return &mockSigner{addr: "0xOwner"}, nil
}

type mockDeployer struct {
	SubmitFn        func(ctx context.Context, signer launch.Signer, cfg launch.DeployConfig) (string, error)
	WaitConfirmedFn func(ctx context.Context, network, txHash string) (string, error)
}

func (m *mockDeployer) Submit(ctx context.Context, signer launch.Signer, cfg launch.DeployConfig) (string, error) {
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, signer, cfg)
	}
	return "0xabc", nil
}

func (m *mockDeployer) WaitConfirmed(ctx context.Context, network, txHash string) (string, error) {
	if m.WaitConfirmedFn != nil {
		return m.WaitConfirmedFn(ctx, network, txHash)
	}
	return "0x1230000000000000000000000000000000000000", nil
}
