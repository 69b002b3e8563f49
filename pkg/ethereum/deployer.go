package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tokenforge/launchpad-middleware/pkg/launch"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultConfirmTimeout  = 5 * time.Minute
)

// Deployer submits token contract creation transactions and waits for
// their receipts.
type Deployer struct {
	clients   map[string]*Client
	artifacts map[token.Type]Artifact
	logger    *zap.Logger
}

// NewDeployer creates a deployer over the configured network clients.
func NewDeployer(clients map[string]*Client, artifacts map[token.Type]Artifact, logger *zap.Logger) *Deployer {
	return &Deployer{
		clients:   clients,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Submit builds, signs and broadcasts the contract creation transaction.
func (d *Deployer) Submit(ctx context.Context, signer launch.Signer, cfg launch.DeployConfig) (string, error) {
	client, ok := d.clients[cfg.Network]
	if !ok {
		return "", fmt.Errorf("no client configured for network %s", cfg.Network)
	}

	keySigner, ok := signer.(*KeySigner)
	if !ok {
		return "", fmt.Errorf("unsupported signer type %T", signer)
	}

	artifact, ok := d.artifacts[cfg.TokenType]
	if !ok {
		return "", fmt.Errorf("no artifact for token type %s", cfg.TokenType)
	}

	args, err := constructorArgs(cfg)
	if err != nil {
		return "", err
	}

	auth, err := client.GetTransactor(ctx, keySigner)
	if err != nil {
		return "", err
	}

	_, tx, _, err := bind.DeployContract(auth, artifact.Constructor, artifact.Bytecode, client.client, args...)
	if err != nil {
		return "", fmt.Errorf("failed to submit deployment: %w", err)
	}

	d.logger.Info("Deployment transaction submitted",
		zap.String("record_id", cfg.RecordID),
		zap.String("network", cfg.Network),
		zap.String("token_type", string(cfg.TokenType)),
		zap.String("tx_hash", tx.Hash().Hex()))

	return tx.Hash().Hex(), nil
}

// WaitConfirmed polls for the transaction receipt until the network
// confirms or the configured timeout elapses.
func (d *Deployer) WaitConfirmed(ctx context.Context, network, txHash string) (string, error) {
	client, ok := d.clients[network]
	if !ok {
		return "", fmt.Errorf("no client configured for network %s", network)
	}

	interval := client.cfg.PollingInterval
	if interval <= 0 {
		interval = defaultPollingInterval
	}
	timeout := client.cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		contractAddress, status, found, err := client.TransactionReceipt(waitCtx, txHash)
		if err != nil {
			return "", err
		}
		if found {
			if status == 0 {
				return "", fmt.Errorf("transaction %s reverted on %s", txHash, network)
			}
			return contractAddress, nil
		}

		select {
		case <-waitCtx.Done():
			return "", fmt.Errorf("confirmation timed out for %s on %s: %w", txHash, network, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// ConfirmedAddress does a single receipt lookup for a submitted
// transaction. found is false while the transaction is still pending.
func (d *Deployer) ConfirmedAddress(ctx context.Context, network, txHash string) (contractAddress string, status uint64, found bool, err error) {
	client, ok := d.clients[network]
	if !ok {
		return "", 0, false, fmt.Errorf("no client configured for network %s", network)
	}
	return client.TransactionReceipt(ctx, txHash)
}

// constructorArgs assembles the variant-specific constructor arguments
// in the order the contract ABIs declare them.
func constructorArgs(cfg launch.DeployConfig) ([]interface{}, error) {
	initialSupply, err := toBaseUnits(cfg.InitialSupply, cfg.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid initial supply: %w", err)
	}

	maxSupply := big.NewInt(0)
	if cfg.MaxSupply != "" {
		maxSupply, err = toBaseUnits(cfg.MaxSupply, cfg.Decimals)
		if err != nil {
			return nil, fmt.Errorf("invalid max supply: %w", err)
		}
	}

	owner := common.HexToAddress(cfg.Owner)

	args := []interface{}{
		cfg.Name,
		cfg.Symbol,
		uint8(cfg.Decimals),
		initialSupply,
		maxSupply,
		owner,
	}

	switch cfg.TokenType {
	case token.TypeMarketing:
		marketingWallet := owner
		if cfg.MarketingWallet != "" {
			marketingWallet = common.HexToAddress(cfg.MarketingWallet)
		}
		buyTax, err := taxToBps(cfg.BuyTax)
		if err != nil {
			return nil, fmt.Errorf("invalid buy tax: %w", err)
		}
		sellTax, err := taxToBps(cfg.SellTax)
		if err != nil {
			return nil, fmt.Errorf("invalid sell tax: %w", err)
		}
		args = append(args, marketingWallet, buyTax, sellTax)

	case token.TypeBusiness:
		maxTx := big.NewInt(0)
		if cfg.MaxTransactionLimit != "" {
			maxTx, err = toBaseUnits(cfg.MaxTransactionLimit, cfg.Decimals)
			if err != nil {
				return nil, fmt.Errorf("invalid max transaction limit: %w", err)
			}
		}
		maxWallet := big.NewInt(0)
		if cfg.MaxWalletLimit != "" {
			maxWallet, err = toBaseUnits(cfg.MaxWalletLimit, cfg.Decimals)
			if err != nil {
				return nil, fmt.Errorf("invalid max wallet limit: %w", err)
			}
		}
		lockup := big.NewInt(0)
		if cfg.LockupTime != "" {
			days, err := decimal.NewFromString(cfg.LockupTime)
			if err != nil {
				return nil, fmt.Errorf("invalid lockup time: %w", err)
			}
			lockup = days.Mul(decimal.NewFromInt(86400)).BigInt()
		}
		args = append(args, maxTx, maxWallet, lockup)
	}

	return args, nil
}

// toBaseUnits scales a whole-token amount into base units.
func toBaseUnits(amount string, decimals int) (*big.Int, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	return dec.Shift(int32(decimals)).BigInt(), nil
}

// taxToBps converts a percentage string into basis points.
func taxToBps(tax string) (uint16, error) {
	if tax == "" {
		return 0, nil
	}
	dec, err := decimal.NewFromString(tax)
	if err != nil {
		return 0, err
	}
	return uint16(dec.Mul(decimal.NewFromInt(100)).IntPart()), nil
}
