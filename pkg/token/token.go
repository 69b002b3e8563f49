// Package token defines the token draft and record domain model shared by
// the wizard, the deployment orchestrator and the record store.
package token

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Type identifies the contract template a token is deployed from.
type Type string

const (
	TypeStandard  Type = "standard"
	TypeMarketing Type = "marketing"
	TypeBusiness  Type = "business"
)

// ParseType resolves a raw form value into a Type.
// The wizard resolves the type once at the form boundary; everything
// downstream works with the tagged value only.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeStandard, TypeMarketing, TypeBusiness:
		return Type(raw), nil
	default:
		return "", fmt.Errorf("unknown token type %q", raw)
	}
}

// Valid reports whether the type is a member of the fixed registry.
func (t Type) Valid() bool {
	_, err := ParseType(string(t))
	return err == nil
}

// Features holds the optional capabilities baked into the deployed contract.
type Features struct {
	Mintable  bool `json:"mintable"`
	Burnable  bool `json:"burnable"`
	Pausable  bool `json:"pausable"`
	Shareable bool `json:"shareable"`
}

// Draft is the user-entered, not-yet-persisted intent to create a token.
// All user-facing numeric fields are kept as strings: they arrive from
// form inputs and several of them (supply, limits) carry arbitrary
// precision. The validation gate owns parsing.
type Draft struct {
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"`
	Decimals      string   `json:"decimals" default:"18"`
	InitialSupply string   `json:"initialSupply"`
	Network       string   `json:"network" default:"ethereum"`
	TokenType     Type     `json:"tokenType" default:"standard"`
	Features      Features `json:"features"`

	// Marketing-type fields.
	MarketingWallet string `json:"marketingWallet,omitempty"`
	BuyTax          string `json:"buyTax,omitempty"`
	SellTax         string `json:"sellTax,omitempty"`

	// Business-type fields.
	MaxSupply           string `json:"maxSupply,omitempty"`
	MaxTransactionLimit string `json:"maxTransactionLimit,omitempty"`
	MaxWalletLimit      string `json:"maxWalletLimit,omitempty"`
	LockupTime          string `json:"lockupTime,omitempty"`
}

// NewDraft returns the initial empty draft with defaults applied.
func NewDraft() Draft {
	var d Draft
	_ = defaults.Set(&d)
	return d
}

// Record is the durable off-chain representation of a token. It is
// created when a deployment attempt starts and patched with the contract
// address once the deployment confirms. Records are never deleted by
// this subsystem; a record left by a failed attempt stays as audit trail.
type Record struct {
	ID        string
	CreatorID string
	Draft

	// TxHash is set once a deployment transaction has been submitted.
	// A record with a tx hash but no contract address marks a deployment
	// whose on-chain and off-chain state may have diverged; the
	// reconciler picks those up.
	TxHash          string
	ContractAddress string
	CreatedAt       time.Time
}

// NewRecord builds an unpersisted record from a frozen draft.
// The record id is assigned by the store on first persist.
func NewRecord(creatorID string, d Draft) *Record {
	return &Record{
		CreatorID: creatorID,
		Draft:     d,
	}
}
