// Package wizard holds the multi-step form state behind the token
// creation flow: the working draft, the current step index and the
// field errors from the last refused advance.
package wizard

import (
	"sync"

	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// Wizard step indices. The UI owns the rendering of each step; the
// store only tracks the position and gates advancement on validation.
const (
	StepTokenType = iota
	StepDetails
	StepFeatures
	StepAdvanced
	StepReview

	stepCount
)

// Wizard is the mutable form state store. All methods are safe for
// concurrent use; mutation and reads are serialized under one mutex.
type Wizard struct {
	mu     sync.Mutex
	draft  token.Draft
	step   int
	errors map[string]string
}

// New returns a wizard holding the initial empty draft at step 0.
func New() *Wizard {
	return &Wizard{
		draft:  token.NewDraft(),
		errors: map[string]string{},
	}
}

// UpdateField replaces one draft field and clears any validation error
// previously recorded for it.
func (w *Wizard) UpdateField(name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch name {
	case token.FieldName:
		w.draft.Name = value
	case token.FieldSymbol:
		w.draft.Symbol = value
	case token.FieldDecimals:
		w.draft.Decimals = value
	case token.FieldInitialSupply:
		w.draft.InitialSupply = value
	case token.FieldNetwork:
		w.draft.Network = value
	case token.FieldTokenType:
		if t, err := token.ParseType(value); err == nil {
			w.draft.TokenType = t
		} else {
			// Keep the raw value so validation surfaces the problem on
			// the field rather than silently ignoring the input.
			w.draft.TokenType = token.Type(value)
		}
	case token.FieldMarketingWallet:
		w.draft.MarketingWallet = value
	case token.FieldBuyTax:
		w.draft.BuyTax = value
	case token.FieldSellTax:
		w.draft.SellTax = value
	case token.FieldMaxSupply:
		w.draft.MaxSupply = value
	case token.FieldMaxTransactionLimit:
		w.draft.MaxTransactionLimit = value
	case token.FieldMaxWalletLimit:
		w.draft.MaxWalletLimit = value
	case token.FieldLockupTime:
		w.draft.LockupTime = value
	default:
		return
	}

	delete(w.errors, name)
}

// UpdateFeature merges one feature flag into the draft's feature set.
func (w *Wizard) UpdateFeature(flag string, on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch flag {
	case "mintable":
		w.draft.Features.Mintable = on
	case "burnable":
		w.draft.Features.Burnable = on
	case "pausable":
		w.draft.Features.Pausable = on
	case "shareable":
		w.draft.Features.Shareable = on
	}
}

// Advance validates the draft and moves to the next step. While the
// validation gate reports errors the step index stays put and the
// errors are retained for the UI.
func (w *Wizard) Advance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if errs := token.Validate(w.draft); len(errs) > 0 {
		w.errors = errs
		return false
	}

	w.errors = map[string]string{}
	if w.step < stepCount-1 {
		w.step++
	}
	return true
}

// Back moves one step back. No validation applies in this direction.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > 0 {
		w.step--
	}
}

// Reset restores the initial empty draft and step 0.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = token.NewDraft()
	w.step = 0
	w.errors = map[string]string{}
}

// Draft returns a copy of the current draft. The copy is what the
// orchestrator deploys from, so user edits after a deployment starts
// never reach the in-flight attempt.
func (w *Wizard) Draft() token.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Step returns the current step index.
func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Errors returns the field errors recorded by the last refused advance.
func (w *Wizard) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.errors))
	for k, v := range w.errors {
		out[k] = v
	}
	return out
}
