package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the record store.
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, rec *token.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	dao := toDao(rec)
	if _, err := s.db.NewInsert().Model(dao).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create token record: %w", err)
	}
	return nil
}

func (s *pgStore) SetTxHash(ctx context.Context, id, txHash string) error {
	res, err := s.db.NewUpdate().
		Model((*TokenRecordDao)(nil)).
		Set("tx_hash = ?", txHash).
		Where("id = ?", id).
		Where("tx_hash IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set tx hash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The hash never changes within an attempt; a repeat write for
		// the same record is a no-op, a write for a missing record is not.
		return s.mustExist(ctx, id)
	}
	return nil
}

func (s *pgStore) SetContractAddress(ctx context.Context, id, contractAddress string) error {
	res, err := s.db.NewUpdate().
		Model((*TokenRecordDao)(nil)).
		Set("contract_address = ?", contractAddress).
		Where("id = ?", id).
		Where("contract_address IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set contract address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if err := s.mustExist(ctx, id); err != nil {
			return err
		}
		return ErrAddressFinal
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, id string) (*token.Record, error) {
	dao := new(TokenRecordDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get token record: %w", err)
	}
	return toRecord(dao), nil
}

func (s *pgStore) ListByCreator(ctx context.Context, creatorID string) ([]*token.Record, error) {
	var daos []TokenRecordDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list token records: %w", err)
	}
	return toRecords(daos), nil
}

func (s *pgStore) ListDiverged(ctx context.Context) ([]*token.Record, error) {
	var daos []TokenRecordDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("tx_hash IS NOT NULL").
		Where("contract_address IS NULL").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list diverged token records: %w", err)
	}
	return toRecords(daos), nil
}

func (s *pgStore) mustExist(ctx context.Context, id string) error {
	exists, err := s.db.NewSelect().
		Model((*TokenRecordDao)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check token record exists: %w", err)
	}
	if !exists {
		return ErrRecordNotFound
	}
	return nil
}

func toRecords(daos []TokenRecordDao) []*token.Record {
	out := make([]*token.Record, 0, len(daos))
	for i := range daos {
		out = append(out, toRecord(&daos[i]))
	}
	return out
}

func parseDecimals(raw string) (int, error) {
	return strconv.Atoi(raw)
}

func formatDecimals(d int) string {
	return strconv.Itoa(d)
}
