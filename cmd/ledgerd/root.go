package main

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/korthochain/ledger/pkg/blockchain"
	"github.com/korthochain/ledger/pkg/config"
	"github.com/korthochain/ledger/pkg/logger"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/storage"
	"github.com/korthochain/ledger/pkg/storage/store"
	"github.com/korthochain/ledger/pkg/wsv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// genesisDomain holds the account that signs the genesis transactions.
const genesisDomain = "genesis"

type rootOptions struct {
	configPath string
	verbose    bool
}

// node is what every command works on: the configuration, the store and the
// world loaded from it.
type node struct {
	cfg    *config.CfgInfo
	db     store.DB
	wsv    *wsv.WorldStateView
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ledgerd",
		Short: "ledgerd - permissioned ledger node",
		Long:  "Seeds, advances and inspects a permissioned ledger world state.",
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config/ledgerConf.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(newGenesisCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))

	return cmd
}

func openNode(opts *rootOptions) (*node, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.verbose {
		cfg.LogConfig.Level = "DEBUG"
	}

	l, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	l = l.With(zap.String("node", cfg.NodeName), zap.String("instance", id.String()))

	db, err := storage.Open(cfg.StorageConfig)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	v, err := wsv.Load(db, cfg.WsvConfig, l)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load world state: %w", err)
	}

	l.Info("world state loaded", zap.String("engine", cfg.StorageConfig.Engine), zap.Uint64("height", v.Height()))
	return &node{cfg: cfg, db: db, wsv: v, logger: l}, nil
}

func (n *node) close() {
	if err := n.db.Close(); err != nil {
		n.logger.Error("close storage", zap.Error(err))
	}
	_ = n.logger.Sync()
}

// genesisAccount is the account named by the configured genesis key, or the
// zero id when no key is configured.
func (n *node) genesisAccount() (model.AccountId, error) {
	if n.cfg.ChainConfig.GenesisPublicKey == "" {
		return model.AccountId{}, nil
	}
	key, err := model.ParsePublicKey(n.cfg.ChainConfig.GenesisPublicKey)
	if err != nil {
		return model.AccountId{}, fmt.Errorf("genesis public key: %w", err)
	}
	return model.NewAccountId(key, genesisDomain), nil
}

func (n *node) blockchain() (*blockchain.Blockchain, error) {
	return blockchain.New(n.cfg.ChainConfig, n.wsv, n.db, n.logger)
}
