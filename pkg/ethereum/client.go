// Package ethereum submits and confirms token contract deployments
// against the configured EVM networks.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/tokenforge/launchpad-middleware/pkg/config"
	"github.com/tokenforge/launchpad-middleware/pkg/registry"
)

// Client wraps an ethclient connection to a single network.
type Client struct {
	network registry.Network
	cfg     config.NetworkConfig
	client  *ethclient.Client
	logger  *zap.Logger
}

// NewClient connects to the RPC endpoint of a registered network.
func NewClient(networkID string, cfg config.NetworkConfig, logger *zap.Logger) (*Client, error) {
	network, ok := registry.Lookup(networkID)
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", networkID)
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	logger.Info("Connected to Ethereum",
		zap.String("network", networkID),
		zap.Int64("chain_id", network.ChainID),
		zap.String("rpc_url", cfg.RPCURL))

	return &Client{
		network: network,
		cfg:     cfg,
		client:  client,
		logger:  logger,
	}, nil
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// ChainID returns the chain id of the connected network
func (c *Client) ChainID() int64 {
	return c.network.ChainID
}

// GetTransactor returns a transaction signer for the given key
func (c *Client) GetTransactor(ctx context.Context, signer *KeySigner) (*bind.TransactOpts, error) {
	chainID := big.NewInt(c.network.ChainID)

	auth, err := bind.NewKeyedTransactorWithChainID(signer.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	nonce, err := c.client.PendingNonceAt(ctx, signer.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	auth.Nonce = big.NewInt(int64(nonce))
	auth.GasLimit = c.cfg.GasLimit
	auth.Context = ctx

	if c.cfg.MaxGasPrice != "" {
		maxGasPrice := new(big.Int)
		maxGasPrice.SetString(c.cfg.MaxGasPrice, 10)

		gasPrice, err := c.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}

		if gasPrice.Cmp(maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.String("suggested", gasPrice.String()),
				zap.String("max", maxGasPrice.String()))
			auth.GasPrice = maxGasPrice
		} else {
			auth.GasPrice = gasPrice
		}
	}

	return auth, nil
}

// TransactionReceipt fetches the receipt for a transaction hash.
// Returns found=false while the transaction is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (contractAddress string, status uint64, found bool, err error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, goethereum.NotFound) {
			return "", 0, false, nil
		}
		return "", 0, false, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt.ContractAddress.Hex(), receipt.Status, true, nil
}
