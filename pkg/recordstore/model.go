package recordstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// TokenRecordDao is a data access object that maps directly to the
// 'token_records' table in PostgreSQL.
type TokenRecordDao struct {
	bun.BaseModel `bun:"table:token_records,alias:tr"`

	ID            string `bun:"id,pk,type:uuid"`
	CreatorID     string `bun:"creator_id,notnull,type:varchar(255)"`
	Name          string `bun:"name,notnull,type:varchar(255)"`
	Symbol        string `bun:"symbol,notnull,type:varchar(6)"`
	Decimals      int    `bun:"decimals,notnull"`
	InitialSupply string `bun:"initial_supply,notnull,type:numeric(78,0)"`
	Network       string `bun:"network,notnull,type:varchar(32)"`
	TokenType     string `bun:"token_type,notnull,type:varchar(16)"`

	Mintable  bool `bun:"mintable,notnull,default:false"`
	Burnable  bool `bun:"burnable,notnull,default:false"`
	Pausable  bool `bun:"pausable,notnull,default:false"`
	Shareable bool `bun:"shareable,notnull,default:false"`

	MarketingWallet     *string `bun:"marketing_wallet,type:varchar(42)"`
	BuyTax              *string `bun:"buy_tax,type:numeric(5,2)"`
	SellTax             *string `bun:"sell_tax,type:numeric(5,2)"`
	MaxSupply           *string `bun:"max_supply,type:numeric(78,0)"`
	MaxTransactionLimit *string `bun:"max_transaction_limit,type:numeric(78,0)"`
	MaxWalletLimit      *string `bun:"max_wallet_limit,type:numeric(78,0)"`
	LockupTime          *string `bun:"lockup_time,type:numeric(20,0)"`

	TxHash          *string   `bun:"tx_hash,type:varchar(66)"`
	ContractAddress *string   `bun:"contract_address,type:varchar(42)"`
	CreatedAt       time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromOptional(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// toDao converts a domain record to its DAO. Decimals were validated at
// the form boundary; a draft that reaches the store always parses.
func toDao(rec *token.Record) *TokenRecordDao {
	decimals := 18
	if d, err := parseDecimals(rec.Decimals); err == nil {
		decimals = d
	}
	return &TokenRecordDao{
		ID:                  rec.ID,
		CreatorID:           rec.CreatorID,
		Name:                rec.Name,
		Symbol:              rec.Symbol,
		Decimals:            decimals,
		InitialSupply:       rec.InitialSupply,
		Network:             rec.Network,
		TokenType:           string(rec.TokenType),
		Mintable:            rec.Features.Mintable,
		Burnable:            rec.Features.Burnable,
		Pausable:            rec.Features.Pausable,
		Shareable:           rec.Features.Shareable,
		MarketingWallet:     optional(rec.MarketingWallet),
		BuyTax:              optional(rec.BuyTax),
		SellTax:             optional(rec.SellTax),
		MaxSupply:           optional(rec.MaxSupply),
		MaxTransactionLimit: optional(rec.MaxTransactionLimit),
		MaxWalletLimit:      optional(rec.MaxWalletLimit),
		LockupTime:          optional(rec.LockupTime),
		TxHash:              optional(rec.TxHash),
		ContractAddress:     optional(rec.ContractAddress),
		CreatedAt:           rec.CreatedAt,
	}
}

func toRecord(dao *TokenRecordDao) *token.Record {
	return &token.Record{
		ID:        dao.ID,
		CreatorID: dao.CreatorID,
		Draft: token.Draft{
			Name:                dao.Name,
			Symbol:              dao.Symbol,
			Decimals:            formatDecimals(dao.Decimals),
			InitialSupply:       dao.InitialSupply,
			Network:             dao.Network,
			TokenType:           token.Type(dao.TokenType),
			Features:            token.Features{Mintable: dao.Mintable, Burnable: dao.Burnable, Pausable: dao.Pausable, Shareable: dao.Shareable},
			MarketingWallet:     fromOptional(dao.MarketingWallet),
			BuyTax:              fromOptional(dao.BuyTax),
			SellTax:             fromOptional(dao.SellTax),
			MaxSupply:           fromOptional(dao.MaxSupply),
			MaxTransactionLimit: fromOptional(dao.MaxTransactionLimit),
			MaxWalletLimit:      fromOptional(dao.MaxWalletLimit),
			LockupTime:          fromOptional(dao.LockupTime),
		},
		TxHash:          fromOptional(dao.TxHash),
		ContractAddress: fromOptional(dao.ContractAddress),
		CreatedAt:       dao.CreatedAt,
	}
}
