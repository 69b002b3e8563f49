// Package recordstore persists token records in PostgreSQL. It is the
// off-chain source of truth the deployment saga writes to.
package recordstore

import (
	"context"
	"errors"

	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// ErrRecordNotFound is returned when a record lookup finds no match.
var ErrRecordNotFound = errors.New("token record not found")

// ErrAddressFinal is returned when a contract address write targets a
// record whose address was already set. The address transitions
// null to non-null exactly once and never reverts.
var ErrAddressFinal = errors.New("contract address already set")

// Store defines token record persistence. The orchestrator only
// needs the write side; the read side serves the API and the reconciler.
type Store interface {
	Create(ctx context.Context, rec *token.Record) error
	SetTxHash(ctx context.Context, id, txHash string) error
	SetContractAddress(ctx context.Context, id, contractAddress string) error

	Get(ctx context.Context, id string) (*token.Record, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*token.Record, error)

	// ListDiverged returns records that hold a tx hash but no contract
	// address: deployments whose on-chain and off-chain state may have
	// diverged. The reconciler repairs these.
	ListDiverged(ctx context.Context) ([]*token.Record, error)
}
