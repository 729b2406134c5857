// Package query runs read-only queries against the world state.
package query

import (
	"fmt"

	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
)

// FindError names the entity a query could not find.
type FindError = wsv.FindError

// Evaluator computes a query parameter against the view the query runs on.
type Evaluator func(e model.EvaluatesTo, v *wsv.WorldStateView) (model.Value, error)

// Constants accepts only literal parameters.
func Constants(e model.EvaluatesTo, _ *wsv.WorldStateView) (model.Value, error) {
	raw, ok := e.Expression.(model.Raw)
	if !ok || raw.Value == nil {
		return nil, fmt.Errorf("query parameter is not a constant")
	}
	return raw.Value, nil
}

type queryFunc func(q model.Query, r *runner) (model.Value, error)

var queryRegistry map[model.QueryKind]queryFunc

func handle[T model.Query](fn func(T, *runner) (model.Value, error)) queryFunc {
	return func(q model.Query, r *runner) (model.Value, error) {
		return fn(q.(T), r)
	}
}

func init() {
	queryRegistry = map[model.QueryKind]queryFunc{
		model.QueryFindAllDomains:                  handle(findAllDomains),
		model.QueryFindDomainById:                  handle(findDomainById),
		model.QueryFindAllAccounts:                 handle(findAllAccounts),
		model.QueryFindAccountById:                 handle(findAccountById),
		model.QueryFindAccountsByDomainId:          handle(findAccountsByDomainId),
		model.QueryFindAllAssets:                   handle(findAllAssets),
		model.QueryFindAssetById:                   handle(findAssetById),
		model.QueryFindAssetsByAccountId:           handle(findAssetsByAccountId),
		model.QueryFindAssetsByAssetDefinitionId:   handle(findAssetsByAssetDefinitionId),
		model.QueryFindAllAssetsDefinitions:        handle(findAllAssetsDefinitions),
		model.QueryFindAssetDefinitionById:         handle(findAssetDefinitionById),
		model.QueryFindAssetQuantityById:           handle(findAssetQuantityById),
		model.QueryFindDomainKeyValueByIdAndKey:    handle(findDomainKeyValue),
		model.QueryFindAccountKeyValueByIdAndKey:   handle(findAccountKeyValue),
		model.QueryFindAssetKeyValueByIdAndKey:     handle(findAssetKeyValue),
		model.QueryFindPermissionTokensByAccountId: handle(findPermissionTokens),
		model.QueryFindAllBlocks:                   handle(findAllBlocks),
		model.QueryFindAllBlockHeaders:             handle(findAllBlockHeaders),
		model.QueryFindTransactionsByAccountId:     handle(findTransactionsByAccountId),
		model.QueryFindTransactionByHash:           handle(findTransactionByHash),
		model.QueryFindAllParameters:               handle(findAllParameters),
	}
}

type runner struct {
	v    *wsv.WorldStateView
	eval Evaluator
}

// Execute runs q against v. Parameters are computed with eval; a nil eval
// accepts literal parameters only. Missing entities are reported as
// *FindError and empty results as an empty Vec.
func Execute(q model.Query, v *wsv.WorldStateView, eval Evaluator) (model.Value, error) {
	if q == nil {
		return nil, fmt.Errorf("nil query")
	}
	fn, ok := queryRegistry[q.Kind()]
	if !ok {
		return nil, fmt.Errorf("unsupported query %s", q.Kind())
	}
	if eval == nil {
		eval = Constants
	}
	return fn(q, &runner{v: v, eval: eval})
}

// param evaluates e and requires a value of type T.
func param[T model.Value](r *runner, what string, e model.EvaluatesTo) (T, error) {
	var zero T
	val, err := r.eval(e, r.v)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", what, err)
	}
	t, ok := val.(T)
	if !ok {
		return zero, &TypeError{Param: what, Want: zero.Kind(), Got: val.Kind()}
	}
	return t, nil
}

// TypeError reports a parameter or stored value of the wrong kind.
type TypeError struct {
	Param string
	Want  model.ValueKind
	Got   model.ValueKind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Param, e.Want, e.Got)
}

// found keeps a typed nil out of the returned interface.
func found[T model.Value](v T, err error) (model.Value, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func vecOf[T model.Value](items []T) model.Vec {
	out := make(model.Vec, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func findAllDomains(_ model.FindAllDomains, r *runner) (model.Value, error) {
	return vecOf(r.v.Domains()), nil
}

func findDomainById(q model.FindDomainById, r *runner) (model.Value, error) {
	id, err := param[model.DomainId](r, "domain id", q.Id)
	if err != nil {
		return nil, err
	}
	return found[*model.Domain](r.v.Domain(id))
}

func findAllAccounts(_ model.FindAllAccounts, r *runner) (model.Value, error) {
	return vecOf(r.v.Accounts()), nil
}

func findAccountById(q model.FindAccountById, r *runner) (model.Value, error) {
	id, err := param[model.AccountId](r, "account id", q.Id)
	if err != nil {
		return nil, err
	}
	return found[*model.Account](r.v.Account(id))
}

func findAccountsByDomainId(q model.FindAccountsByDomainId, r *runner) (model.Value, error) {
	id, err := param[model.DomainId](r, "domain id", q.DomainId)
	if err != nil {
		return nil, err
	}
	accounts, err := r.v.AccountsInDomain(id)
	if err != nil {
		return nil, err
	}
	return vecOf(accounts), nil
}

func findAllAssets(_ model.FindAllAssets, r *runner) (model.Value, error) {
	return vecOf(r.v.Assets()), nil
}

func findAssetById(q model.FindAssetById, r *runner) (model.Value, error) {
	id, err := param[model.AssetId](r, "asset id", q.Id)
	if err != nil {
		return nil, err
	}
	return found[*model.Asset](r.v.Asset(id))
}

func findAssetsByAccountId(q model.FindAssetsByAccountId, r *runner) (model.Value, error) {
	id, err := param[model.AccountId](r, "account id", q.AccountId)
	if err != nil {
		return nil, err
	}
	assets, err := r.v.AccountAssets(id)
	if err != nil {
		return nil, err
	}
	return vecOf(assets), nil
}

func findAssetsByAssetDefinitionId(q model.FindAssetsByAssetDefinitionId, r *runner) (model.Value, error) {
	id, err := param[model.AssetDefinitionId](r, "asset definition id", q.AssetDefinitionId)
	if err != nil {
		return nil, err
	}
	assets, err := r.v.AssetsByDefinition(id)
	if err != nil {
		return nil, err
	}
	return vecOf(assets), nil
}

func findAllAssetsDefinitions(_ model.FindAllAssetsDefinitions, r *runner) (model.Value, error) {
	entries := r.v.AssetDefinitions()
	out := make(model.Vec, 0, len(entries))
	for _, e := range entries {
		def := e.Definition
		out = append(out, &def)
	}
	return out, nil
}

func findAssetDefinitionById(q model.FindAssetDefinitionById, r *runner) (model.Value, error) {
	id, err := param[model.AssetDefinitionId](r, "asset definition id", q.Id)
	if err != nil {
		return nil, err
	}
	e, err := r.v.AssetDefinitionEntry(id)
	if err != nil {
		return nil, err
	}
	def := e.Definition
	return &def, nil
}

// findAssetQuantityById returns the numeric value of an asset. Store assets
// have no quantity.
func findAssetQuantityById(q model.FindAssetQuantityById, r *runner) (model.Value, error) {
	id, err := param[model.AssetId](r, "asset id", q.Id)
	if err != nil {
		return nil, err
	}
	asset, err := r.v.Asset(id)
	if err != nil {
		return nil, err
	}
	switch asset.Value.(type) {
	case model.U32, model.U128, model.Fixed:
		return asset.Value, nil
	}
	return nil, &TypeError{Param: "asset " + id.String(), Want: model.ValueU32, Got: asset.Value.Kind()}
}

func (r *runner) keyValue(q model.EvaluatesTo, m model.Metadata) (model.Value, error) {
	key, err := param[model.Name](r, "key", q)
	if err != nil {
		return nil, err
	}
	v, ok := m.Get(key)
	if !ok {
		return nil, &FindError{Kind: wsv.MetadataKeyEntity, ID: string(key)}
	}
	return v, nil
}

func findDomainKeyValue(q model.FindDomainKeyValueByIdAndKey, r *runner) (model.Value, error) {
	id, err := param[model.DomainId](r, "domain id", q.Id)
	if err != nil {
		return nil, err
	}
	d, err := r.v.Domain(id)
	if err != nil {
		return nil, err
	}
	return r.keyValue(q.Key, d.Metadata)
}

func findAccountKeyValue(q model.FindAccountKeyValueByIdAndKey, r *runner) (model.Value, error) {
	id, err := param[model.AccountId](r, "account id", q.Id)
	if err != nil {
		return nil, err
	}
	a, err := r.v.Account(id)
	if err != nil {
		return nil, err
	}
	return r.keyValue(q.Key, a.Metadata)
}

func findAssetKeyValue(q model.FindAssetKeyValueByIdAndKey, r *runner) (model.Value, error) {
	id, err := param[model.AssetId](r, "asset id", q.Id)
	if err != nil {
		return nil, err
	}
	asset, err := r.v.Asset(id)
	if err != nil {
		return nil, err
	}
	store, ok := asset.Value.(model.Metadata)
	if !ok {
		return nil, &TypeError{Param: "asset " + id.String(), Want: model.ValueMetadata, Got: asset.Value.Kind()}
	}
	return r.keyValue(q.Key, store)
}

func findPermissionTokens(q model.FindPermissionTokensByAccountId, r *runner) (model.Value, error) {
	id, err := param[model.AccountId](r, "account id", q.Id)
	if err != nil {
		return nil, err
	}
	a, err := r.v.Account(id)
	if err != nil {
		return nil, err
	}
	return vecOf(a.PermissionTokens), nil
}

func findAllBlocks(_ model.FindAllBlocks, r *runner) (model.Value, error) {
	return vecOf(r.v.Blocks()), nil
}

func findAllBlockHeaders(_ model.FindAllBlockHeaders, r *runner) (model.Value, error) {
	blocks := r.v.Blocks()
	out := make(model.Vec, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Header)
	}
	return out, nil
}

func findTransactionsByAccountId(q model.FindTransactionsByAccountId, r *runner) (model.Value, error) {
	id, err := param[model.AccountId](r, "account id", q.AccountId)
	if err != nil {
		return nil, err
	}
	return vecOf(r.v.TransactionsByAccount(id)), nil
}

func findTransactionByHash(q model.FindTransactionByHash, r *runner) (model.Value, error) {
	h, err := param[model.Hash](r, "transaction hash", q.Hash)
	if err != nil {
		return nil, err
	}
	return found[model.TransactionValue](r.v.TransactionByHash(h))
}

func findAllParameters(_ model.FindAllParameters, r *runner) (model.Value, error) {
	return vecOf(r.v.Parameters()), nil
}
