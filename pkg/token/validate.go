package token

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tokenforge/launchpad-middleware/pkg/registry"
)

// Form field keys, shared with the wizard and the HTTP layer.
const (
	FieldName                = "name"
	FieldSymbol              = "symbol"
	FieldDecimals            = "decimals"
	FieldInitialSupply       = "initialSupply"
	FieldNetwork             = "network"
	FieldTokenType           = "tokenType"
	FieldMarketingWallet     = "marketingWallet"
	FieldBuyTax              = "buyTax"
	FieldSellTax             = "sellTax"
	FieldMaxSupply           = "maxSupply"
	FieldMaxTransactionLimit = "maxTransactionLimit"
	FieldMaxWalletLimit      = "maxWalletLimit"
	FieldLockupTime          = "lockupTime"
)

const maxSymbolLen = 6

// Validate maps a draft to field-level error messages. It is pure and
// total: any draft yields a map, never a panic. An empty map means the
// draft may advance.
func Validate(d Draft) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(d.Name) == "" {
		errs[FieldName] = "token name is required"
	}

	switch sym := strings.TrimSpace(d.Symbol); {
	case sym == "":
		errs[FieldSymbol] = "token symbol is required"
	case len(sym) > maxSymbolLen:
		errs[FieldSymbol] = "symbol must be 6 characters or fewer"
	case sym != strings.ToUpper(sym):
		errs[FieldSymbol] = "symbol must be uppercase"
	}

	if dec, err := strconv.Atoi(strings.TrimSpace(d.Decimals)); err != nil {
		errs[FieldDecimals] = "decimals must be a number"
	} else if dec < 0 || dec > 18 {
		errs[FieldDecimals] = "decimals must be between 0 and 18"
	}

	if supply, ok := parsePositiveInteger(d.InitialSupply); !ok {
		errs[FieldInitialSupply] = "initial supply must be a positive whole number"
	} else if d.MaxSupply != "" {
		if maxSupply, ok := parsePositiveInteger(d.MaxSupply); !ok {
			errs[FieldMaxSupply] = "max supply must be a positive whole number"
		} else if maxSupply.LessThan(supply) {
			errs[FieldMaxSupply] = "max supply must be at least the initial supply"
		}
	}

	if !registry.IsSupported(d.Network) {
		errs[FieldNetwork] = "unsupported network"
	}
	if !d.TokenType.Valid() {
		errs[FieldTokenType] = "unsupported token type"
	}

	if d.TokenType == TypeMarketing {
		validateTax(errs, FieldBuyTax, d.BuyTax)
		validateTax(errs, FieldSellTax, d.SellTax)
	}

	if d.TokenType == TypeBusiness {
		validateOptionalLimit(errs, FieldMaxTransactionLimit, d.MaxTransactionLimit)
		validateOptionalLimit(errs, FieldMaxWalletLimit, d.MaxWalletLimit)
		validateOptionalLimit(errs, FieldLockupTime, d.LockupTime)
	}

	return errs
}

var maxTax = decimal.NewFromInt(10)

func validateTax(errs map[string]string, field, raw string) {
	tax, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		errs[field] = "tax rate is required"
		return
	}
	if tax.IsNegative() || tax.GreaterThan(maxTax) {
		errs[field] = "tax rate must be between 0 and 10"
	}
}

func validateOptionalLimit(errs map[string]string, field, raw string) {
	if raw == "" {
		return
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsInteger() || v.IsNegative() {
		errs[field] = "must be a non-negative whole number"
	}
}

func parsePositiveInteger(raw string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsInteger() || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}
