// Package registry holds the fixed registry of networks a token can be
// deployed to. The wizard validates the draft's network against it and
// the Ethereum client resolves chain ids and explorer links through it.
package registry

import "sort"

// Network describes a supported deployment target.
type Network struct {
	ID          string
	Name        string
	ChainID     int64
	ExplorerURL string
	Testnet     bool
}

var networks = map[string]Network{
	"ethereum": {ID: "ethereum", Name: "Ethereum Mainnet", ChainID: 1, ExplorerURL: "https://etherscan.io"},
	"sepolia":  {ID: "sepolia", Name: "Sepolia Testnet", ChainID: 11155111, ExplorerURL: "https://sepolia.etherscan.io", Testnet: true},
	"bsc":      {ID: "bsc", Name: "BNB Smart Chain", ChainID: 56, ExplorerURL: "https://bscscan.com"},
	"polygon":  {ID: "polygon", Name: "Polygon PoS", ChainID: 137, ExplorerURL: "https://polygonscan.com"},
	"base":     {ID: "base", Name: "Base", ChainID: 8453, ExplorerURL: "https://basescan.org"},
}

// Lookup returns the network for the given id.
func Lookup(id string) (Network, bool) {
	n, ok := networks[id]
	return n, ok
}

// IsSupported reports whether id names a registered network.
func IsSupported(id string) bool {
	_, ok := networks[id]
	return ok
}

// All returns the registered networks ordered by id.
func All() []Network {
	out := make([]Network, 0, len(networks))
	for _, n := range networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TxURL returns the explorer link for a transaction hash, or empty if the
// network is unknown.
func TxURL(networkID, txHash string) string {
	n, ok := networks[networkID]
	if !ok || txHash == "" {
		return ""
	}
	return n.ExplorerURL + "/tx/" + txHash
}
