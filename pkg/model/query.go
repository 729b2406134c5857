package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type QueryKind uint8

const (
	QueryFindAllDomains QueryKind = iota + 1
	QueryFindDomainById
	QueryFindAllAccounts
	QueryFindAccountById
	QueryFindAccountsByDomainId
	QueryFindAllAssets
	QueryFindAssetById
	QueryFindAssetsByAccountId
	QueryFindAssetsByAssetDefinitionId
	QueryFindAllAssetsDefinitions
	QueryFindAssetDefinitionById
	QueryFindAssetQuantityById
	QueryFindDomainKeyValueByIdAndKey
	QueryFindAccountKeyValueByIdAndKey
	QueryFindAssetKeyValueByIdAndKey
	QueryFindPermissionTokensByAccountId
	QueryFindAllBlocks
	QueryFindAllBlockHeaders
	QueryFindTransactionsByAccountId
	QueryFindTransactionByHash
	QueryFindAllParameters
)

var queryKindNames = map[QueryKind]string{
	QueryFindAllDomains:                  "FindAllDomains",
	QueryFindDomainById:                  "FindDomainById",
	QueryFindAllAccounts:                 "FindAllAccounts",
	QueryFindAccountById:                 "FindAccountById",
	QueryFindAccountsByDomainId:          "FindAccountsByDomainId",
	QueryFindAllAssets:                   "FindAllAssets",
	QueryFindAssetById:                   "FindAssetById",
	QueryFindAssetsByAccountId:           "FindAssetsByAccountId",
	QueryFindAssetsByAssetDefinitionId:   "FindAssetsByAssetDefinitionId",
	QueryFindAllAssetsDefinitions:        "FindAllAssetsDefinitions",
	QueryFindAssetDefinitionById:         "FindAssetDefinitionById",
	QueryFindAssetQuantityById:           "FindAssetQuantityById",
	QueryFindDomainKeyValueByIdAndKey:    "FindDomainKeyValueByIdAndKey",
	QueryFindAccountKeyValueByIdAndKey:   "FindAccountKeyValueByIdAndKey",
	QueryFindAssetKeyValueByIdAndKey:     "FindAssetKeyValueByIdAndKey",
	QueryFindPermissionTokensByAccountId: "FindPermissionTokensByAccountId",
	QueryFindAllBlocks:                   "FindAllBlocks",
	QueryFindAllBlockHeaders:             "FindAllBlockHeaders",
	QueryFindTransactionsByAccountId:     "FindTransactionsByAccountId",
	QueryFindTransactionByHash:           "FindTransactionByHash",
	QueryFindAllParameters:               "FindAllParameters",
}

func (k QueryKind) String() string {
	if s, ok := queryKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("QueryKind(%d)", uint8(k))
}

// Query is a read-only request against the world state. Parameters are
// expressions resolved before the query runs.
type Query interface {
	Kind() QueryKind
	query()
}

type (
	FindAllDomains struct {
		_ struct{} `cbor:",toarray"`
	}
	FindDomainById struct {
		_  struct{} `cbor:",toarray"`
		Id EvaluatesTo
	}
	FindAllAccounts struct {
		_ struct{} `cbor:",toarray"`
	}
	FindAccountById struct {
		_  struct{} `cbor:",toarray"`
		Id EvaluatesTo
	}
	FindAccountsByDomainId struct {
		_        struct{} `cbor:",toarray"`
		DomainId EvaluatesTo
	}
	FindAllAssets struct {
		_ struct{} `cbor:",toarray"`
	}
	FindAssetById struct {
		_  struct{} `cbor:",toarray"`
		Id EvaluatesTo
	}
	FindAssetsByAccountId struct {
		_         struct{} `cbor:",toarray"`
		AccountId EvaluatesTo
	}
	FindAssetsByAssetDefinitionId struct {
		_                 struct{} `cbor:",toarray"`
		AssetDefinitionId EvaluatesTo
	}
	FindAllAssetsDefinitions struct {
		_ struct{} `cbor:",toarray"`
	}
	FindAssetDefinitionById struct {
		_  struct{} `cbor:",toarray"`
		Id EvaluatesTo
	}
	FindAssetQuantityById struct {
		_  struct{} `cbor:",toarray"`
		Id EvaluatesTo
	}
	FindDomainKeyValueByIdAndKey struct {
		_   struct{} `cbor:",toarray"`
		Id  EvaluatesTo
		Key EvaluatesTo
	}
	FindAccountKeyValueByIdAndKey struct {
		_   struct{} `cbor:",toarray"`
		Id  EvaluatesTo
		Key EvaluatesTo
	}
	FindAssetKeyValueByIdAndKey struct {
		_   struct{} `cbor:",toarray"`
		Id  EvaluatesTo
		Key EvaluatesTo
	}
	FindPermissionTokensByAccountId struct {
		_  struct{} `cbor:",toarray"`
		Id EvaluatesTo
	}
	FindAllBlocks struct {
		_ struct{} `cbor:",toarray"`
	}
	FindAllBlockHeaders struct {
		_ struct{} `cbor:",toarray"`
	}
	FindTransactionsByAccountId struct {
		_         struct{} `cbor:",toarray"`
		AccountId EvaluatesTo
	}
	FindTransactionByHash struct {
		_    struct{} `cbor:",toarray"`
		Hash EvaluatesTo
	}
	FindAllParameters struct {
		_ struct{} `cbor:",toarray"`
	}
)

func (FindAllDomains) Kind() QueryKind                  { return QueryFindAllDomains }
func (FindDomainById) Kind() QueryKind                  { return QueryFindDomainById }
func (FindAllAccounts) Kind() QueryKind                 { return QueryFindAllAccounts }
func (FindAccountById) Kind() QueryKind                 { return QueryFindAccountById }
func (FindAccountsByDomainId) Kind() QueryKind          { return QueryFindAccountsByDomainId }
func (FindAllAssets) Kind() QueryKind                   { return QueryFindAllAssets }
func (FindAssetById) Kind() QueryKind                   { return QueryFindAssetById }
func (FindAssetsByAccountId) Kind() QueryKind           { return QueryFindAssetsByAccountId }
func (FindAssetsByAssetDefinitionId) Kind() QueryKind   { return QueryFindAssetsByAssetDefinitionId }
func (FindAllAssetsDefinitions) Kind() QueryKind        { return QueryFindAllAssetsDefinitions }
func (FindAssetDefinitionById) Kind() QueryKind         { return QueryFindAssetDefinitionById }
func (FindAssetQuantityById) Kind() QueryKind           { return QueryFindAssetQuantityById }
func (FindDomainKeyValueByIdAndKey) Kind() QueryKind    { return QueryFindDomainKeyValueByIdAndKey }
func (FindAccountKeyValueByIdAndKey) Kind() QueryKind   { return QueryFindAccountKeyValueByIdAndKey }
func (FindAssetKeyValueByIdAndKey) Kind() QueryKind     { return QueryFindAssetKeyValueByIdAndKey }
func (FindPermissionTokensByAccountId) Kind() QueryKind { return QueryFindPermissionTokensByAccountId }
func (FindAllBlocks) Kind() QueryKind                   { return QueryFindAllBlocks }
func (FindAllBlockHeaders) Kind() QueryKind             { return QueryFindAllBlockHeaders }
func (FindTransactionsByAccountId) Kind() QueryKind     { return QueryFindTransactionsByAccountId }
func (FindTransactionByHash) Kind() QueryKind           { return QueryFindTransactionByHash }
func (FindAllParameters) Kind() QueryKind               { return QueryFindAllParameters }

func (FindAllDomains) query()                  {}
func (FindDomainById) query()                  {}
func (FindAllAccounts) query()                 {}
func (FindAccountById) query()                 {}
func (FindAccountsByDomainId) query()          {}
func (FindAllAssets) query()                   {}
func (FindAssetById) query()                   {}
func (FindAssetsByAccountId) query()           {}
func (FindAssetsByAssetDefinitionId) query()   {}
func (FindAllAssetsDefinitions) query()        {}
func (FindAssetDefinitionById) query()         {}
func (FindAssetQuantityById) query()           {}
func (FindDomainKeyValueByIdAndKey) query()    {}
func (FindAccountKeyValueByIdAndKey) query()   {}
func (FindAssetKeyValueByIdAndKey) query()     {}
func (FindPermissionTokensByAccountId) query() {}
func (FindAllBlocks) query()                   {}
func (FindAllBlockHeaders) query()             {}
func (FindTransactionsByAccountId) query()     {}
func (FindTransactionByHash) query()           {}
func (FindAllParameters) query()               {}

func asQuery[T Query](raw []byte) (Query, error) {
	return decodeAs[T](raw)
}

var queryDecoders = map[QueryKind]func([]byte) (Query, error){
	QueryFindAllDomains:                  asQuery[FindAllDomains],
	QueryFindDomainById:                  asQuery[FindDomainById],
	QueryFindAllAccounts:                 asQuery[FindAllAccounts],
	QueryFindAccountById:                 asQuery[FindAccountById],
	QueryFindAccountsByDomainId:          asQuery[FindAccountsByDomainId],
	QueryFindAllAssets:                   asQuery[FindAllAssets],
	QueryFindAssetById:                   asQuery[FindAssetById],
	QueryFindAssetsByAccountId:           asQuery[FindAssetsByAccountId],
	QueryFindAssetsByAssetDefinitionId:   asQuery[FindAssetsByAssetDefinitionId],
	QueryFindAllAssetsDefinitions:        asQuery[FindAllAssetsDefinitions],
	QueryFindAssetDefinitionById:         asQuery[FindAssetDefinitionById],
	QueryFindAssetQuantityById:           asQuery[FindAssetQuantityById],
	QueryFindDomainKeyValueByIdAndKey:    asQuery[FindDomainKeyValueByIdAndKey],
	QueryFindAccountKeyValueByIdAndKey:   asQuery[FindAccountKeyValueByIdAndKey],
	QueryFindAssetKeyValueByIdAndKey:     asQuery[FindAssetKeyValueByIdAndKey],
	QueryFindPermissionTokensByAccountId: asQuery[FindPermissionTokensByAccountId],
	QueryFindAllBlocks:                   asQuery[FindAllBlocks],
	QueryFindAllBlockHeaders:             asQuery[FindAllBlockHeaders],
	QueryFindTransactionsByAccountId:     asQuery[FindTransactionsByAccountId],
	QueryFindTransactionByHash:           asQuery[FindTransactionByHash],
	QueryFindAllParameters:               asQuery[FindAllParameters],
}

func encodeQuery(q Query) ([]byte, error) {
	if q == nil {
		return nil, fmt.Errorf("encode nil query")
	}
	return marshalEnvelope(uint8(q.Kind()), q)
}

func decodeQuery(data []byte) (Query, error) {
	kind, payload, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, err
	}
	dec, ok := queryDecoders[QueryKind(kind)]
	if !ok {
		return nil, decodeErr("query", "unknown kind %d", kind)
	}
	q, err := dec(payload)
	if err != nil {
		return nil, &DecodeError{What: QueryKind(kind).String(), Err: err}
	}
	return q, nil
}

// SerializeQuery encodes q in the versioned binary form. The encoding is
// also used as a cache key by the query service.
func SerializeQuery(q Query) ([]byte, error) {
	body, err := encodeQuery(q)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(versioned{Version: CodecVersion, Body: body})
}

func DeserializeQuery(data []byte) (Query, error) {
	var raw cbor.RawMessage
	if err := deserialize("query", data, &raw); err != nil {
		return nil, err
	}
	return decodeQuery(raw)
}
