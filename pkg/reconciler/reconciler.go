// Package reconciler repairs deployments that confirmed on chain but
// never had their contract address written back to the database.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tokenforge/launchpad-middleware/internal/metrics"
	"github.com/tokenforge/launchpad-middleware/pkg/recordstore"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// RecordSource lists and repairs diverged token records.
type RecordSource interface {
	ListDiverged(ctx context.Context) ([]*token.Record, error)
	SetContractAddress(ctx context.Context, id, contractAddress string) error
}

// ReceiptSource looks up the confirmation state of a submitted
// transaction on its network.
type ReceiptSource interface {
	ConfirmedAddress(ctx context.Context, network, txHash string) (contractAddress string, status uint64, found bool, err error)
}

// Reconciler periodically scans for records whose transaction hash is
// set but whose contract address is still null and patches the address
// from the on-chain receipt.
type Reconciler struct {
	records  RecordSource
	receipts ReceiptSource
	logger   *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a new Reconciler
func New(records RecordSource, receipts ReceiptSource, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		records:  records,
		receipts: receipts,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// ReconcileAll repairs every diverged record it can. Records whose
// transactions are still pending are left for the next pass, reverted
// transactions are logged and skipped.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	start := time.Now()

	diverged, err := r.records.ListDiverged(ctx)
	if err != nil {
		return fmt.Errorf("failed to list diverged records: %w", err)
	}

	var repaired, pending int
	for _, rec := range diverged {
		contractAddress, status, found, err := r.receipts.ConfirmedAddress(ctx, rec.Network, rec.TxHash)
		if err != nil {
			r.logger.Warn("Failed to look up receipt",
				zap.String("record_id", rec.ID),
				zap.String("tx_hash", rec.TxHash),
				zap.Error(err))
			continue
		}
		if !found {
			pending++
			continue
		}
		if status == 0 {
			r.logger.Warn("Diverged record has reverted transaction",
				zap.String("record_id", rec.ID),
				zap.String("tx_hash", rec.TxHash))
			continue
		}

		if err := r.records.SetContractAddress(ctx, rec.ID, contractAddress); err != nil {
			// Another writer already patched it.
			if errors.Is(err, recordstore.ErrAddressFinal) {
				continue
			}
			r.logger.Warn("Failed to repair record",
				zap.String("record_id", rec.ID),
				zap.Error(err))
			continue
		}

		repaired++
		metrics.ReconciliationRepairs.Inc()
		r.logger.Info("Repaired diverged record",
			zap.String("record_id", rec.ID),
			zap.String("tx_hash", rec.TxHash),
			zap.String("contract_address", contractAddress))
	}

	metrics.ReconciliationPending.Set(float64(pending))

	if len(diverged) > 0 {
		r.logger.Info("Reconciliation pass completed",
			zap.Int("diverged", len(diverged)),
			zap.Int("repaired", repaired),
			zap.Int("pending", pending),
			zap.Duration("duration", time.Since(start)))
	}

	return nil
}

// StartPeriodicReconciliation starts a background goroutine that reconciles periodically
func (r *Reconciler) StartPeriodicReconciliation(interval time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger.Info("Started periodic reconciliation", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if err := r.ReconcileAll(ctx); err != nil {
					r.logger.Error("Periodic reconciliation failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("Stopping periodic reconciliation")
				return
			}
		}
	}()
}

// Stop stops the periodic reconciliation
func (r *Reconciler) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}
