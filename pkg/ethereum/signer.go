package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokenforge/launchpad-middleware/pkg/launch"
)

// KeySigner is a private-key backed signer for the deployer wallet.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// Address returns the hex address of the wallet
func (s *KeySigner) Address() string {
	return s.address.Hex()
}

// Provider hands out the deployer wallet signer for configured networks.
type Provider struct {
	signer  *KeySigner
	clients map[string]*Client
}

// NewProvider loads the deployer private key and binds it to the
// configured network clients.
func NewProvider(privateKeyHex string, clients map[string]*Client) (*Provider, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployer private key: %w", err)
	}

	return &Provider{
		signer: &KeySigner{
			key:     key,
			address: crypto.PubkeyToAddress(key.PublicKey),
		},
		clients: clients,
	}, nil
}

// Signer returns the deployer signer for a network. It fails when the
// network has no configured client or the wallet has no funds on it.
func (p *Provider) Signer(ctx context.Context, network string) (launch.Signer, error) {
	client, ok := p.clients[network]
	if !ok {
		return nil, fmt.Errorf("no client configured for network %s", network)
	}

	balance, err := client.client.BalanceAt(ctx, p.signer.address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil, fmt.Errorf("deployer wallet %s has no funds on %s", p.signer.Address(), network)
	}

	return p.signer, nil
}
