// Package launch implements the token deployment saga: one logical
// "create token" intent driven across the off-chain record store and the
// on-chain deployer, with named stages exposed to the wizard UI.
package launch

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tokenforge/launchpad-middleware/internal/metrics"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// Signer authorizes a deployment transaction. The concrete value comes
// from the wallet collaborator; the saga only needs the owner address.
type Signer interface {
	Address() string
}

// SignerProvider hands out signers per network. Implementations return a
// wallet error when no signer is available.
type SignerProvider interface {
	Signer(ctx context.Context, network string) (Signer, error)
}

// RecordStore is the off-chain source of truth for token records.
type RecordStore interface {
	// Create persists a new record and assigns its id.
	Create(ctx context.Context, rec *token.Record) error
	// SetTxHash stamps the submitted transaction hash onto the record so
	// a diverged deployment stays detectable.
	SetTxHash(ctx context.Context, id, txHash string) error
	// SetContractAddress performs the one null-to-non-null transition of
	// the record's contract address.
	SetContractAddress(ctx context.Context, id, contractAddress string) error
}

// DeployConfig carries everything the chain deployer needs to build the
// contract-creation transaction. RecordID correlates the on-chain
// deployment with the off-chain record.
type DeployConfig struct {
	RecordID      string
	Name          string
	Symbol        string
	Decimals      int
	InitialSupply string
	Owner         string
	Network       string
	TokenType     token.Type
	Features      token.Features

	MarketingWallet     string
	BuyTax              string
	SellTax             string
	MaxSupply           string
	MaxTransactionLimit string
	MaxWalletLimit      string
	LockupTime          string
}

// ChainDeployer submits contract-creation transactions and awaits their
// confirmation. Submit returns as soon as the transaction hash is known;
// WaitConfirmed blocks until the deployer's own timeout policy resolves
// or rejects the transaction.
type ChainDeployer interface {
	Submit(ctx context.Context, signer Signer, cfg DeployConfig) (txHash string, err error)
	WaitConfirmed(ctx context.Context, network, txHash string) (contractAddress string, err error)
}

// Result is exposed once the saga reaches completed.
type Result struct {
	RecordID        string `json:"recordId"`
	ContractAddress string `json:"contractAddress"`
	TxHash          string `json:"txHash"`
}

// Orchestrator drives one deployment attempt at a time through
// preparing, deploying, confirming and verifying. Side effects are
// strictly ordered: the record is created before anything touches the
// chain, and the record is patched only after the chain confirms.
type Orchestrator struct {
	store    RecordStore
	signers  SignerProvider
	deployer ChainDeployer
	logger   *zap.Logger

	mu       sync.Mutex
	gen      int // attempt generation; bumped by Deploy and Reset
	stage    Stage
	txHash   string
	recordID string
	err      *Error
	result   *Result
	subs     map[int]chan Status
	nextSub  int
}

// NewOrchestrator creates a deployment orchestrator in not-started.
func NewOrchestrator(store RecordStore, signers SignerProvider, deployer ChainDeployer, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		signers:  signers,
		deployer: deployer,
		logger:   logger,
		stage:    StageNotStarted,
		subs:     map[int]chan Status{},
	}
}

// Deploy runs the full saga for the given frozen draft and returns the
// terminal outcome. A second call while an attempt is in flight returns
// ErrDeploymentInProgress without starting a parallel saga; a call after
// completed returns ErrAlreadyCompleted. After failed, a fresh call
// starts an entirely new attempt with a new record.
//
// Saga failures never surface as panics: they are captured into the
// failed stage and returned as a kinded *Error.
func (o *Orchestrator) Deploy(ctx context.Context, creatorID string, draft token.Draft) (*Result, error) {
	gen, err := o.begin()
	if err != nil {
		return nil, err
	}
	return o.attempt(ctx, gen, creatorID, draft)
}

// Start begins a deployment attempt in the background. The idempotency
// guard runs synchronously so callers learn about conflicts right away;
// the saga outcome is observed through Status, Subscribe and Result.
func (o *Orchestrator) Start(creatorID string, draft token.Draft) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	go func() {
		_, _ = o.attempt(context.Background(), gen, creatorID, draft)
	}()
	return nil
}

// begin applies the idempotency guard and claims a new attempt
// generation.
func (o *Orchestrator) begin() (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stage == StageCompleted {
		return 0, ErrAlreadyCompleted
	}
	if o.stage != StageNotStarted && o.stage != StageFailed {
		return 0, ErrDeploymentInProgress
	}

	o.gen++
	o.stage = StagePreparing
	o.txHash = ""
	o.recordID = ""
	o.err = nil
	o.result = nil
	o.broadcastLocked()
	return o.gen, nil
}

func (o *Orchestrator) attempt(ctx context.Context, gen int, creatorID string, draft token.Draft) (*Result, error) {
	o.logger.Info("Deployment attempt started",
		zap.String("creator_id", creatorID),
		zap.String("network", draft.Network),
		zap.String("symbol", draft.Symbol))
	metrics.StageTransitions.WithLabelValues(string(StagePreparing)).Inc()
	metrics.ActiveDeployments.Inc()
	defer metrics.ActiveDeployments.Dec()

	start := time.Now()
	res, err := o.run(ctx, gen, creatorID, draft)
	status := "completed"
	switch {
	case errors.Is(err, ErrAttemptAbandoned):
		status = "abandoned"
	case err != nil:
		status = "failed"
	}
	metrics.DeploymentsTotal.WithLabelValues(draft.Network, status).Inc()
	metrics.DeploymentDuration.WithLabelValues(draft.Network).Observe(time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) run(ctx context.Context, gen int, creatorID string, draft token.Draft) (*Result, error) {
	// Defensive re-check; the wizard gate normally catches this long
	// before Deploy is called.
	if errs := token.Validate(draft); len(errs) > 0 {
		return nil, o.fail(gen, KindValidation, firstMessage(errs), nil)
	}

	rec := token.NewRecord(creatorID, draft)
	if err := o.store.Create(ctx, rec); err != nil {
		// No partial record was retained; nothing reached the chain.
		return nil, o.fail(gen, KindPersistence, err.Error(), err)
	}

	o.mu.Lock()
	if gen == o.gen {
		o.recordID = rec.ID
	}
	o.mu.Unlock()

	// Reset may have superseded this attempt while the record write was
	// in flight; stop before anything reaches the chain. The record
	// stays behind as audit trail.
	if err := o.checkAbandoned(gen, rec.ID); err != nil {
		return nil, err
	}

	o.transition(gen, StageDeploying)

	signer, err := o.signers.Signer(ctx, draft.Network)
	if err != nil {
		// The record stays behind as audit trail of the failed attempt.
		return nil, o.fail(gen, KindWallet, err.Error(), err)
	}

	// Last pre-submit boundary: past this point the transaction cannot
	// be retracted and a reset only abandons the bookkeeping.
	if err := o.checkAbandoned(gen, rec.ID); err != nil {
		return nil, err
	}

	txHash, err := o.deployer.Submit(ctx, signer, buildDeployConfig(rec, signer.Address()))
	if err != nil {
		return nil, o.fail(gen, KindDeployment, err.Error(), err)
	}

	o.mu.Lock()
	if gen == o.gen {
		o.txHash = txHash
	}
	o.mu.Unlock()
	o.transition(gen, StageConfirming)

	// Best effort: a missing tx hash on the record only degrades
	// reconciliation, it does not fail the attempt.
	txHashPersisted := true
	if err := o.store.SetTxHash(ctx, rec.ID, txHash); err != nil {
		txHashPersisted = false
		o.logger.Warn("Failed to persist tx hash on record",
			zap.String("record_id", rec.ID),
			zap.String("tx_hash", txHash),
			zap.Error(err))
	}

	contractAddress, err := o.deployer.WaitConfirmed(ctx, draft.Network, txHash)
	if err != nil {
		return nil, o.fail(gen, KindDeployment, err.Error(), err)
	}

	o.transition(gen, StageVerifying)

	if err := o.store.SetContractAddress(ctx, rec.ID, contractAddress); err != nil {
		// The chain deployment confirmed but the off-chain record is
		// stale. The reconciler repairs these out of band, and it finds
		// them by their tx hash; retry that write if it was lost above.
		if !txHashPersisted {
			if retryErr := o.store.SetTxHash(ctx, rec.ID, txHash); retryErr != nil {
				o.logger.Error("Diverged record left without tx hash",
					zap.String("record_id", rec.ID),
					zap.String("tx_hash", txHash),
					zap.Error(retryErr))
			}
		}
		o.logger.Error("Deployment confirmed but record patch failed",
			zap.String("record_id", rec.ID),
			zap.String("tx_hash", txHash),
			zap.String("contract_address", contractAddress),
			zap.Error(err))
		return nil, o.fail(gen, KindReconciliation,
			"deployment confirmed but token record could not be updated", err)
	}

	res := &Result{RecordID: rec.ID, ContractAddress: contractAddress, TxHash: txHash}
	o.mu.Lock()
	if gen == o.gen {
		o.result = res
	}
	o.mu.Unlock()
	o.transition(gen, StageCompleted)

	o.logger.Info("Deployment completed",
		zap.String("record_id", rec.ID),
		zap.String("contract_address", contractAddress),
		zap.String("tx_hash", txHash))
	return res, nil
}

// Status returns the current stage projection.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return project(o.stage, o.txHash, o.err)
}

// Result returns the terminal result of the last completed attempt, or
// nil while none exists.
func (o *Orchestrator) Result() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// RecordID returns the record id of the current attempt, if any.
func (o *Orchestrator) RecordID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recordID
}

// Subscribe registers a stage listener. The current status is delivered
// immediately; later transitions follow. Slow listeners miss
// intermediate updates rather than blocking the saga. The returned
// cancel func must be called to release the subscription.
func (o *Orchestrator) Subscribe() (<-chan Status, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan Status, 8)
	ch <- project(o.stage, o.txHash, o.err)
	o.subs[id] = ch

	cancel := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if c, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Reset returns the saga to not-started from any state. An in-flight
// attempt is abandoned: one that has not yet submitted stops at the
// next pre-submit boundary without reaching the chain, and later
// transitions are dropped by the generation check. An already-submitted
// transaction cannot be retracted, so a reset during confirming or
// verifying may still be followed by a record patch racing the reset;
// the record keeps its single-writer, write-once contract address
// discipline either way.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.stage = StageNotStarted
	o.txHash = ""
	o.recordID = ""
	o.err = nil
	o.result = nil
	o.broadcastLocked()
	o.logger.Info("Deployment state reset")
}

// transition advances the stage for the given attempt. Transitions from
// abandoned attempts and regressions within an attempt are dropped.
func (o *Orchestrator) transition(gen int, st Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return
	}
	if stageRank[st] < stageRank[o.stage] {
		return
	}
	o.stage = st
	o.broadcastLocked()
	o.logger.Info("Deployment stage", zap.String("stage", string(st)), zap.String("tx_hash", o.txHash))
	metrics.StageTransitions.WithLabelValues(string(st)).Inc()
}

// checkAbandoned returns ErrAttemptAbandoned when the attempt's
// generation was superseded by Reset. Safe to call only before the
// transaction is submitted.
func (o *Orchestrator) checkAbandoned(gen int, recordID string) error {
	o.mu.Lock()
	current := o.gen
	o.mu.Unlock()
	if gen == current {
		return nil
	}
	o.logger.Info("Deployment attempt abandoned before submission",
		zap.String("record_id", recordID))
	return ErrAttemptAbandoned
}

func (o *Orchestrator) fail(gen int, kind Kind, message string, cause error) *Error {
	ferr := &Error{Kind: kind, Message: message, Err: cause}

	o.mu.Lock()
	if gen == o.gen && !o.stage.Terminal() {
		o.err = ferr
		o.stage = StageFailed
		o.broadcastLocked()
		metrics.StageTransitions.WithLabelValues(string(StageFailed)).Inc()
	}
	o.mu.Unlock()

	o.logger.Error("Deployment failed",
		zap.String("kind", string(kind)),
		zap.String("message", message),
		zap.Error(cause))
	return ferr
}

func (o *Orchestrator) broadcastLocked() {
	status := project(o.stage, o.txHash, o.err)
	for _, ch := range o.subs {
		select {
		case ch <- status:
		default:
		}
	}
}

func buildDeployConfig(rec *token.Record, owner string) DeployConfig {
	decimals, _ := strconv.Atoi(rec.Decimals) // validated upstream
	return DeployConfig{
		RecordID:            rec.ID,
		Name:                rec.Name,
		Symbol:              rec.Symbol,
		Decimals:            decimals,
		InitialSupply:       rec.InitialSupply,
		Owner:               owner,
		Network:             rec.Network,
		TokenType:           rec.TokenType,
		Features:            rec.Features,
		MarketingWallet:     rec.MarketingWallet,
		BuyTax:              rec.BuyTax,
		SellTax:             rec.SellTax,
		MaxSupply:           rec.MaxSupply,
		MaxTransactionLimit: rec.MaxTransactionLimit,
		MaxWalletLimit:      rec.MaxWalletLimit,
		LockupTime:          rec.LockupTime,
	}
}

// firstMessage picks a deterministic message out of a field error map.
func firstMessage(errs map[string]string) string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields[0] + ": " + errs[fields[0]]
}
