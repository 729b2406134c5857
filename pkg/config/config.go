// Package config gathers the configuration of every component of a node.
package config

import (
	"github.com/korthochain/ledger/pkg/blockchain"
	"github.com/korthochain/ledger/pkg/logger"
	"github.com/korthochain/ledger/pkg/query"
	"github.com/korthochain/ledger/pkg/storage/store"
	"github.com/korthochain/ledger/pkg/util/ntp"
	"github.com/korthochain/ledger/pkg/wsv"
	"github.com/spf13/viper"
)

type CfgInfo struct {
	LogConfig     *logger.Config         `yaml:"logconfig"`
	StorageConfig store.Config           `yaml:"storageconfig"`
	WsvConfig     wsv.Config             `yaml:"wsvconfig"`
	ChainConfig   blockchain.ChainConfig `yaml:"chainconfig"`
	QueryConfig   query.Config           `yaml:"queryconfig"`
	NtpConfig     ntp.Config             `yaml:"ntpconfig"`
	NodeName      string                 `yaml:"nodename"`
}

// DefaultConfig is the configuration used for anything the file leaves out.
func DefaultConfig() *CfgInfo {
	return &CfgInfo{
		LogConfig:     logger.DefaultConfig(),
		StorageConfig: store.DefaultConfig(),
		WsvConfig:     wsv.DefaultConfig(),
		ChainConfig:   blockchain.DefaultConfig(),
		QueryConfig:   query.DefaultConfig(),
		NtpConfig:     ntp.DefaultConfig(),
	}
}

// LoadConfig load configuration information from path, or from
// ./config/ledgerConf.yaml when path is empty.
func LoadConfig(path string) (*CfgInfo, error) {
	viper := viper.New()
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("ledgerConf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config/")
	}
	viper.SetDefault("nodename", "ledgerd")
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
