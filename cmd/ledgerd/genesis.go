package main

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/genesis"
	"github.com/korthochain/ledger/pkg/util/ntp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGenesisCommand(rootOpts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Apply the genesis file to an empty store",
		Long: `Reads the genesis file, executes its transactions without permission
checks and commits the result as the first block.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenesis(rootOpts, path, cmd)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "genesis file (default chainconfig.genesispath)")

	return cmd
}

func runGenesis(opts *rootOptions, path string, cmd *cobra.Command) error {
	n, err := openNode(opts)
	if err != nil {
		return err
	}
	defer n.close()

	if path == "" {
		path = n.cfg.ChainConfig.GenesisPath
	}
	authority, err := n.genesisAccount()
	if err != nil {
		return err
	}
	txs, err := genesis.Load(path, authority)
	if err != nil {
		return err
	}

	clock := ntp.NewClock(n.cfg.NtpConfig, n.logger)
	if err := clock.Sync(); err != nil {
		n.logger.Warn("ntp sync failed, using local time", zap.Error(err))
	}

	bc, err := n.blockchain()
	if err != nil {
		return err
	}
	b, err := bc.ApplyGenesis(txs, clock.NowMs())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "genesis block %s: %d transactions, %d events\n",
		b.Hash(), len(b.Transactions), len(b.EventRecommendations))
	return nil
}
