package recordstore

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tokenforge/launchpad-middleware/pkg/pgutil"
	mghelper "github.com/tokenforge/launchpad-middleware/pkg/pgutil/migrations"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

func setupStore(t *testing.T) (context.Context, Store) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &TokenRecordDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed recordstore tests")
}

func newTestRecord(creatorID string) *token.Record {
	return token.NewRecord(creatorID, token.Draft{
		Name:          "My Token",
		Symbol:        "MTK",
		Decimals:      "18",
		InitialSupply: "1000000",
		Network:       "sepolia",
		TokenType:     token.TypeStandard,
	})
}

func TestRecordPGStore_CreateAndGet(t *testing.T) {
	ctx, s := setupStore(t)

	rec := newTestRecord("creator-1")
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected Create to assign a record id")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatalf("expected Create to assign a creation timestamp")
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != rec.Name || got.Symbol != rec.Symbol {
		t.Fatalf("record mismatch: got %s/%s want %s/%s", got.Name, got.Symbol, rec.Name, rec.Symbol)
	}
	if got.TxHash != "" || got.ContractAddress != "" {
		t.Fatalf("fresh record must have no tx hash or contract address, got %q/%q", got.TxHash, got.ContractAddress)
	}

	_, err = s.Get(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordPGStore_SetTxHash(t *testing.T) {
	ctx, s := setupStore(t)

	rec := newTestRecord("creator-1")
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := s.SetTxHash(ctx, rec.ID, "0xaaa"); err != nil {
		t.Fatalf("SetTxHash() failed: %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TxHash != "0xaaa" {
		t.Fatalf("tx hash mismatch: got %q want %q", got.TxHash, "0xaaa")
	}

	// A second write does not overwrite the first hash.
	if err := s.SetTxHash(ctx, rec.ID, "0xbbb"); err != nil {
		t.Fatalf("second SetTxHash() failed: %v", err)
	}
	got, err = s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TxHash != "0xaaa" {
		t.Fatalf("tx hash must be write-once: got %q", got.TxHash)
	}

	if err := s.SetTxHash(ctx, "00000000-0000-0000-0000-000000000000", "0xccc"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing record, got %v", err)
	}
}

func TestRecordPGStore_SetContractAddressIsWriteOnce(t *testing.T) {
	ctx, s := setupStore(t)

	rec := newTestRecord("creator-1")
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := s.SetContractAddress(ctx, rec.ID, "0x1230000000000000000000000000000000000000"); err != nil {
		t.Fatalf("SetContractAddress() failed: %v", err)
	}

	err := s.SetContractAddress(ctx, rec.ID, "0x4560000000000000000000000000000000000000")
	if !errors.Is(err, ErrAddressFinal) {
		t.Fatalf("expected ErrAddressFinal on second write, got %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.ContractAddress != "0x1230000000000000000000000000000000000000" {
		t.Fatalf("contract address mutated: got %q", got.ContractAddress)
	}

	if err := s.SetContractAddress(ctx, "00000000-0000-0000-0000-000000000000", "0x789"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing record, got %v", err)
	}
}

func TestRecordPGStore_ListByCreator(t *testing.T) {
	ctx, s := setupStore(t)

	first := newTestRecord("creator-1")
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("Create(first) failed: %v", err)
	}
	// Distinct created_at so the ordering assertion is meaningful.
	time.Sleep(10 * time.Millisecond)
	second := newTestRecord("creator-1")
	second.Symbol = "OTHER"
	if err := s.Create(ctx, second); err != nil {
		t.Fatalf("Create(second) failed: %v", err)
	}
	other := newTestRecord("creator-2")
	if err := s.Create(ctx, other); err != nil {
		t.Fatalf("Create(other) failed: %v", err)
	}

	got, err := s.ListByCreator(ctx, "creator-1")
	if err != nil {
		t.Fatalf("ListByCreator() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected record count: got %d want 2", len(got))
	}
	if got[0].ID != second.ID {
		t.Fatalf("expected newest record first, got %s", got[0].ID)
	}
}

func TestRecordPGStore_ListDiverged(t *testing.T) {
	ctx, s := setupStore(t)

	// Confirmed record: tx hash and address both set.
	confirmed := newTestRecord("creator-1")
	if err := s.Create(ctx, confirmed); err != nil {
		t.Fatalf("Create(confirmed) failed: %v", err)
	}
	if err := s.SetTxHash(ctx, confirmed.ID, "0xaaa"); err != nil {
		t.Fatalf("SetTxHash(confirmed) failed: %v", err)
	}
	if err := s.SetContractAddress(ctx, confirmed.ID, "0x1110000000000000000000000000000000000000"); err != nil {
		t.Fatalf("SetContractAddress(confirmed) failed: %v", err)
	}

	// Diverged record: tx hash set, address never written.
	diverged := newTestRecord("creator-1")
	if err := s.Create(ctx, diverged); err != nil {
		t.Fatalf("Create(diverged) failed: %v", err)
	}
	if err := s.SetTxHash(ctx, diverged.ID, "0xbbb"); err != nil {
		t.Fatalf("SetTxHash(diverged) failed: %v", err)
	}

	// Never-submitted record: neither set.
	fresh := newTestRecord("creator-1")
	if err := s.Create(ctx, fresh); err != nil {
		t.Fatalf("Create(fresh) failed: %v", err)
	}

	got, err := s.ListDiverged(ctx)
	if err != nil {
		t.Fatalf("ListDiverged() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected diverged count: got %d want 1", len(got))
	}
	if got[0].ID != diverged.ID {
		t.Fatalf("unexpected diverged record: got %s want %s", got[0].ID, diverged.ID)
	}
}

func TestRecordPGStore_RoundTripsOptionalFields(t *testing.T) {
	ctx, s := setupStore(t)

	rec := token.NewRecord("creator-1", token.Draft{
		Name:                "Biz Token",
		Symbol:              "BIZ",
		Decimals:            "6",
		InitialSupply:       "500000",
		MaxSupply:           "1000000",
		Network:             "polygon",
		TokenType:           token.TypeBusiness,
		MaxTransactionLimit: "1000",
		MaxWalletLimit:      "5000",
		LockupTime:          "30",
		Features:            token.Features{Mintable: true, Pausable: true},
	})
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TokenType != token.TypeBusiness {
		t.Fatalf("token type mismatch: got %s", got.TokenType)
	}
	if got.MaxSupply != "1000000" || got.MaxTransactionLimit != "1000" || got.LockupTime != "30" {
		t.Fatalf("optional fields did not round trip: %+v", got)
	}
	if !got.Features.Mintable || !got.Features.Pausable || got.Features.Burnable {
		t.Fatalf("features did not round trip: %+v", got.Features)
	}
}
