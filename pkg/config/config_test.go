package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/korthochain/ledger/pkg/permission"
	"github.com/korthochain/ledger/pkg/storage/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerConf = `
logconfig:
  level: ERROR
  filename: ""
storageconfig:
  engine: leveldb
  path: /var/lib/ledger
chainconfig:
  maxtransactionsinblock: 16
  permissionpreset: public
  transactionlimits:
    maxinstructionnumber: 8
queryconfig:
  limiterttl: 1h
wsvconfig:
  accountmetadatalimits:
    maxlen: 4
`

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "ledgerConf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(ledgerConf), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	defaults := DefaultConfig()

	assert.Equal("ERROR", cfg.LogConfig.Level)
	assert.Equal("", cfg.LogConfig.FileName)
	assert.Equal(defaults.LogConfig.MaxSize, cfg.LogConfig.MaxSize)

	assert.Equal(store.LevelDB, cfg.StorageConfig.Engine)
	assert.Equal("/var/lib/ledger", cfg.StorageConfig.Path)

	assert.Equal(16, cfg.ChainConfig.MaxTransactionsInBlock)
	assert.Equal(permission.PublicPreset, cfg.ChainConfig.PermissionPreset)
	assert.Equal(uint64(8), cfg.ChainConfig.TransactionLimits.MaxInstructionNumber)
	assert.Equal(defaults.ChainConfig.TransactionLimits.MaxValueDepth, cfg.ChainConfig.TransactionLimits.MaxValueDepth)

	assert.Equal(time.Hour, cfg.QueryConfig.LimiterTTL)
	assert.Equal(defaults.QueryConfig.CacheSize, cfg.QueryConfig.CacheSize)

	assert.Equal(uint32(4), cfg.WsvConfig.AccountMetadataLimits.MaxLen)
	assert.Equal(defaults.WsvConfig.DomainMetadataLimits, cfg.WsvConfig.DomainMetadataLimits)
	assert.Equal(defaults.NtpConfig, cfg.NtpConfig)
	assert.Equal("ledgerd", cfg.NodeName)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
