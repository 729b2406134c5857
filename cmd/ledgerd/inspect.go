package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/korthochain/ledger/pkg/expr"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/query"
	"github.com/spf13/cobra"
)

// inspectQueries builds the query for each inspect target from its
// argument, if it takes one.
var inspectQueries = map[string]func(arg string) (model.Query, error){
	"domains": func(string) (model.Query, error) { return model.FindAllDomains{}, nil },
	"domain": func(arg string) (model.Query, error) {
		id, err := model.ParseDomainId(arg)
		return model.FindDomainById{Id: model.Val(id)}, err
	},
	"account": func(arg string) (model.Query, error) {
		id, err := model.ParseAccountId(arg)
		return model.FindAccountById{Id: model.Val(id)}, err
	},
	"assets": func(arg string) (model.Query, error) {
		id, err := model.ParseAccountId(arg)
		return model.FindAssetsByAccountId{AccountId: model.Val(id)}, err
	},
	"asset": func(arg string) (model.Query, error) {
		id, err := model.ParseAssetId(arg)
		return model.FindAssetById{Id: model.Val(id)}, err
	},
	"definitions": func(string) (model.Query, error) { return model.FindAllAssetsDefinitions{}, nil },
	"blocks":      func(string) (model.Query, error) { return model.FindAllBlockHeaders{}, nil },
	"tx": func(arg string) (model.Query, error) {
		h, err := model.ParseHash(arg)
		return model.FindTransactionByHash{Hash: model.Val(h)}, err
	},
	"parameters": func(string) (model.Query, error) { return model.FindAllParameters{}, nil },
}

func inspectTargets() []string {
	targets := make([]string, 0, len(inspectQueries))
	for name := range inspectQueries {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	return targets
}

func newInspectCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "inspect <target> [id]",
		Short:        "Query the persisted world state",
		Long:         fmt.Sprintf("Runs a read-only query against the stored world state.\n\nTargets: %v", inspectTargets()),
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 2 {
				arg = args[1]
			}
			return runInspect(rootOpts, args[0], arg, cmd)
		},
	}

	return cmd
}

func runInspect(opts *rootOptions, target, arg string, cmd *cobra.Command) error {
	build, ok := inspectQueries[target]
	if !ok {
		return fmt.Errorf("unknown target %q: must be one of %v", target, inspectTargets())
	}
	q, err := build(arg)
	if err != nil {
		return err
	}

	n, err := openNode(opts)
	if err != nil {
		return err
	}
	defer n.close()

	authority, err := n.genesisAccount()
	if err != nil {
		return err
	}
	svc := query.NewService(n.cfg.QueryConfig, n.wsv, expr.Evaluator(expr.NewContext()), n.logger)
	result, err := svc.Execute(authority, q)
	if err != nil {
		return err
	}
	printValue(cmd.OutOrStdout(), result, "")
	return nil
}

func printValue(w io.Writer, v model.Value, indent string) {
	switch t := v.(type) {
	case model.Vec:
		for _, item := range t {
			printValue(w, item, indent)
		}
	case *model.Domain:
		fmt.Fprintf(w, "%sdomain %s: %d accounts, %d asset definitions\n", indent, t.Id, len(t.Accounts), len(t.AssetDefinitions))
	case *model.Account:
		fmt.Fprintf(w, "%saccount %s\n", indent, t.Id)
		for _, key := range t.Signatories {
			fmt.Fprintf(w, "%s  signatory %s\n", indent, key)
		}
		for _, token := range t.PermissionTokens {
			fmt.Fprintf(w, "%s  permission %s\n", indent, token)
		}
		for _, asset := range t.SortedAssets() {
			printValue(w, asset, indent+"  ")
		}
	case *model.Asset:
		fmt.Fprintf(w, "%sasset %s = %v\n", indent, t.Id, t.Value)
	case *model.AssetDefinition:
		fmt.Fprintf(w, "%sdefinition %s: %s, mintable %t\n", indent, t.Id, t.ValueType, t.Mintable)
	case model.BlockHeaderValue:
		fmt.Fprintf(w, "%s%s\n", indent, t)
	case model.TransactionValue:
		fmt.Fprintf(w, "%stransaction %s by %s, %d instructions\n", indent,
			t.Transaction.Hash(), t.Transaction.Payload.AccountId, len(t.Transaction.Payload.Instructions))
		if reason, ok := t.Rejection.Get(); ok {
			fmt.Fprintf(w, "%s  rejected: %s\n", indent, reason.Error())
		}
	case model.Parameter:
		fmt.Fprintf(w, "%sparameter %s = %v\n", indent, t.Name, t.Value)
	default:
		fmt.Fprintf(w, "%s%v\n", indent, v)
	}
}
