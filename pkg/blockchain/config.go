package blockchain

import (
	"github.com/korthochain/ledger/pkg/isi"
	"github.com/korthochain/ledger/pkg/permission"
)

// ChainConfig controls block assembly and transaction admission.
type ChainConfig struct {
	MaxTransactionsInBlock int        `yaml:"maxtransactionsinblock"`
	TransactionLimits      isi.Limits `yaml:"transactionlimits"`
	GenesisPath            string     `yaml:"genesispath"`
	GenesisPublicKey       string     `yaml:"genesispublickey"`
	PermissionPreset       string     `yaml:"permissionpreset"`
}

func DefaultConfig() ChainConfig {
	return ChainConfig{
		MaxTransactionsInBlock: 8192,
		TransactionLimits:      isi.DefaultLimits(),
		GenesisPath:            "genesis.yaml",
		PermissionPreset:       permission.PrivatePreset,
	}
}
