package ethereum

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenforge/launchpad-middleware/pkg/config"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

// Artifact holds the compiled creation bytecode and constructor ABI for
// one token contract variant.
type Artifact struct {
	Bytecode    []byte
	Constructor abi.ABI
}

// Constructor ABI per token variant. The bytecode is configurable but the
// constructor signatures are fixed by the contract sources.
const (
	standardConstructorABI = `[{"inputs":[
		{"name":"name_","type":"string"},
		{"name":"symbol_","type":"string"},
		{"name":"decimals_","type":"uint8"},
		{"name":"initialSupply_","type":"uint256"},
		{"name":"maxSupply_","type":"uint256"},
		{"name":"owner_","type":"address"}],
		"stateMutability":"nonpayable","type":"constructor"}]`

	marketingConstructorABI = `[{"inputs":[
		{"name":"name_","type":"string"},
		{"name":"symbol_","type":"string"},
		{"name":"decimals_","type":"uint8"},
		{"name":"initialSupply_","type":"uint256"},
		{"name":"maxSupply_","type":"uint256"},
		{"name":"owner_","type":"address"},
		{"name":"marketingWallet_","type":"address"},
		{"name":"buyTaxBps_","type":"uint16"},
		{"name":"sellTaxBps_","type":"uint16"}],
		"stateMutability":"nonpayable","type":"constructor"}]`

	businessConstructorABI = `[{"inputs":[
		{"name":"name_","type":"string"},
		{"name":"symbol_","type":"string"},
		{"name":"decimals_","type":"uint8"},
		{"name":"initialSupply_","type":"uint256"},
		{"name":"maxSupply_","type":"uint256"},
		{"name":"owner_","type":"address"},
		{"name":"maxTransactionLimit_","type":"uint256"},
		{"name":"maxWalletLimit_","type":"uint256"},
		{"name":"lockupTime_","type":"uint256"}],
		"stateMutability":"nonpayable","type":"constructor"}]`
)

// LoadArtifacts reads the configured bytecode files for all token variants.
func LoadArtifacts(cfg config.ArtifactsConfig) (map[token.Type]Artifact, error) {
	paths := map[token.Type]string{
		token.TypeStandard:  cfg.Standard,
		token.TypeMarketing: cfg.Marketing,
		token.TypeBusiness:  cfg.Business,
	}
	abis := map[token.Type]string{
		token.TypeStandard:  standardConstructorABI,
		token.TypeMarketing: marketingConstructorABI,
		token.TypeBusiness:  businessConstructorABI,
	}

	artifacts := make(map[token.Type]Artifact, len(paths))
	for typ, path := range paths {
		if path == "" {
			return nil, fmt.Errorf("no artifact configured for %s token", typ)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
		}

		bytecode := common.FromHex(strings.TrimSpace(string(raw)))
		if len(bytecode) == 0 {
			return nil, fmt.Errorf("artifact %s contains no bytecode", path)
		}

		parsed, err := abi.JSON(strings.NewReader(abis[typ]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse constructor abi for %s: %w", typ, err)
		}

		artifacts[typ] = Artifact{Bytecode: bytecode, Constructor: parsed}
	}

	return artifacts, nil
}
