// Package genesis reads the genesis file into the transactions that seed an
// empty world.
//
// A genesis file lists transactions, each a list of instruction entries:
//
//	authority: ed25519:6ZNpDCL8Xs@genesis
//	transactions:
//	  - isi:
//	      - kind: register_domain
//	        domain: wonderland
//	      - kind: register_account
//	        account: ed25519:4vJ9JU1bJJ@wonderland
//	      - kind: register_asset_definition
//	        definition: rose#wonderland
//	        value_type: quantity
//	      - kind: mint
//	        asset: rose#wonderland#ed25519:4vJ9JU1bJJ@wonderland
//	        amount: 13
//
// Any malformed entry fails the whole file.
package genesis

import (
	"fmt"
	"strconv"

	"github.com/goinggo/mapstructure"
	"github.com/korthochain/ledger/pkg/fixed"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/permission"
	"github.com/korthochain/ledger/pkg/util/math"
	"github.com/spf13/viper"
)

// Instruction entry kinds.
const (
	RegisterDomain          = "register_domain"
	RegisterAccount         = "register_account"
	RegisterAssetDefinition = "register_asset_definition"
	RegisterAsset           = "register_asset"
	Mint                    = "mint"
	Grant                   = "grant"
	SetKeyValue             = "set_key_value"
)

// entry is one instruction as written in the file. Which fields are read
// depends on Kind.
type entry struct {
	Kind       string                 `mapstructure:"kind"`
	Domain     string                 `mapstructure:"domain"`
	Account    string                 `mapstructure:"account"`
	Definition string                 `mapstructure:"definition"`
	Asset      string                 `mapstructure:"asset"`
	ValueType  string                 `mapstructure:"value_type"`
	Fixed      bool                   `mapstructure:"fixed_supply"`
	Amount     interface{}            `mapstructure:"amount"`
	Token      string                 `mapstructure:"token"`
	Params     map[string]interface{} `mapstructure:"params"`
	Key        string                 `mapstructure:"key"`
	Value      interface{}            `mapstructure:"value"`
}

// Load reads the genesis file at path. authority signs every transaction
// unless the file names its own; one of the two must be set.
func Load(path string, authority model.AccountId) ([]*model.Transaction, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read genesis %s: %w", path, err)
	}

	if s := v.GetString("authority"); s != "" {
		id, err := model.ParseAccountId(s)
		if err != nil {
			return nil, fmt.Errorf("genesis authority: %w", err)
		}
		authority = id
	}
	if authority == (model.AccountId{}) {
		return nil, fmt.Errorf("genesis %s: no authority", path)
	}
	return Parse(v.Get("transactions"), authority)
}

// Parse builds transactions from the decoded "transactions" list.
func Parse(raw interface{}, authority model.AccountId) ([]*model.Transaction, error) {
	list, ok := normalize(raw).([]interface{})
	if !ok {
		return nil, fmt.Errorf("genesis transactions: expected a list, got %T", raw)
	}

	txs := make([]*model.Transaction, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("genesis transaction %d: expected a map, got %T", i, item)
		}
		entries, ok := m["isi"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("genesis transaction %d: missing isi list", i)
		}

		instructions := make(model.Instructions, 0, len(entries))
		for j, raw := range entries {
			fields, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("genesis transaction %d instruction %d: expected a map, got %T", i, j, raw)
			}
			var e entry
			if err := mapstructure.Decode(fields, &e); err != nil {
				return nil, fmt.Errorf("genesis transaction %d instruction %d: %w", i, j, err)
			}
			instr, err := e.instruction()
			if err != nil {
				return nil, fmt.Errorf("genesis transaction %d instruction %d: %w", i, j, err)
			}
			instructions = append(instructions, instr)
		}
		txs = append(txs, model.NewTransaction(authority, instructions, 0, 0))
	}
	return txs, nil
}

// normalize turns the map[interface{}]interface{} produced by yaml into
// string keyed maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

func (e *entry) instruction() (model.Instruction, error) {
	switch e.Kind {
	case RegisterDomain:
		id, err := model.ParseDomainId(e.Domain)
		if err != nil {
			return nil, err
		}
		return register(model.NewDomain(id)), nil

	case RegisterAccount:
		id, err := model.ParseAccountId(e.Account)
		if err != nil {
			return nil, err
		}
		return register(model.NewAccount(id)), nil

	case RegisterAssetDefinition:
		id, err := model.ParseAssetDefinitionId(e.Definition)
		if err != nil {
			return nil, err
		}
		vt, err := valueType(e.ValueType)
		if err != nil {
			return nil, err
		}
		def := model.NewAssetDefinition(id, vt)
		def.Mintable = !e.Fixed
		return register(def), nil

	case RegisterAsset:
		id, err := model.ParseAssetId(e.Asset)
		if err != nil {
			return nil, err
		}
		amount, err := quantity(e.ValueType, e.Amount)
		if err != nil {
			return nil, err
		}
		return register(model.NewAsset(id, amount)), nil

	case Mint:
		id, err := model.ParseAssetId(e.Asset)
		if err != nil {
			return nil, err
		}
		amount, err := quantity(e.ValueType, e.Amount)
		if err != nil {
			return nil, err
		}
		return model.MintBox{Object: model.Val(amount), DestinationId: model.Val(id)}, nil

	case Grant:
		id, err := model.ParseAccountId(e.Account)
		if err != nil {
			return nil, err
		}
		token, err := e.token()
		if err != nil {
			return nil, err
		}
		return model.GrantBox{Object: model.Val(token), DestinationId: model.Val(id)}, nil

	case SetKeyValue:
		id, err := e.object()
		if err != nil {
			return nil, err
		}
		value, err := metadataValue(e.Value)
		if err != nil {
			return nil, err
		}
		key := model.Name(e.Key)
		if err := key.Validate(); err != nil {
			return nil, err
		}
		return model.SetKeyValueBox{ObjectId: model.Val(id), Key: model.Val(key), Value: model.Val(value)}, nil
	}
	return nil, fmt.Errorf("unknown instruction kind %q", e.Kind)
}

func register(v model.Value) model.Instruction {
	return model.RegisterBox{Object: model.Val(v)}
}

// object is the id named by whichever of asset, definition, account or
// domain is set, in that order.
func (e *entry) object() (model.IdBox, error) {
	switch {
	case e.Asset != "":
		return model.ParseAssetId(e.Asset)
	case e.Definition != "":
		return model.ParseAssetDefinitionId(e.Definition)
	case e.Account != "":
		return model.ParseAccountId(e.Account)
	case e.Domain != "":
		return model.ParseDomainId(e.Domain)
	}
	return nil, fmt.Errorf("set_key_value needs an object id")
}

func (e *entry) token() (model.PermissionToken, error) {
	name := model.Name(e.Token)
	if err := name.Validate(); err != nil {
		return model.PermissionToken{}, fmt.Errorf("token name: %w", err)
	}
	token := model.NewPermissionToken(name)
	for k, raw := range e.Params {
		s, ok := raw.(string)
		if !ok {
			return model.PermissionToken{}, fmt.Errorf("token parameter %s: expected a string, got %T", k, raw)
		}
		var (
			value model.Value
			err   error
		)
		switch model.Name(k) {
		case permission.AssetDefinitionIdParam:
			value, err = model.ParseAssetDefinitionId(s)
		case permission.AssetIdParam:
			value, err = model.ParseAssetId(s)
		case permission.AccountIdParam:
			value, err = model.ParseAccountId(s)
		default:
			value = model.String(s)
		}
		if err != nil {
			return model.PermissionToken{}, fmt.Errorf("token parameter %s: %w", k, err)
		}
		token = token.WithParam(model.Name(k), value)
	}
	return token, nil
}

func valueType(s string) (model.AssetValueType, error) {
	switch s {
	case "", "quantity":
		return model.AssetQuantity, nil
	case "big_quantity":
		return model.AssetBigQuantity, nil
	case "fixed":
		return model.AssetFixed, nil
	case "store":
		return model.AssetStore, nil
	}
	return 0, fmt.Errorf("unknown asset value type %q", s)
}

// quantity reads amount as a value of the named type. Amounts too large for
// a yaml integer should be written as strings.
func quantity(typ string, amount interface{}) (model.Value, error) {
	if amount == nil {
		return nil, fmt.Errorf("missing amount")
	}
	vt, err := valueType(typ)
	if err != nil {
		return nil, err
	}
	s := fmt.Sprint(amount)
	switch vt {
	case model.AssetQuantity:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("quantity %q: %w", s, err)
		}
		return model.U32(n), nil
	case model.AssetBigQuantity:
		n, err := math.ParseUint128(s)
		if err != nil {
			return nil, fmt.Errorf("big quantity %q: %w", s, err)
		}
		return model.U128{Uint128: n}, nil
	case model.AssetFixed:
		f, err := fixed.Parse(s)
		if err != nil {
			return nil, err
		}
		return model.NewFixed(f), nil
	}
	return nil, fmt.Errorf("%s assets have no amount", vt)
}

func metadataValue(v interface{}) (model.Value, error) {
	switch t := v.(type) {
	case string:
		return model.String(t), nil
	case bool:
		return model.Bool(t), nil
	case int:
		if t < 0 || int64(t) > int64(^uint32(0)) {
			return nil, fmt.Errorf("metadata value %d out of range", t)
		}
		return model.U32(t), nil
	case float64:
		f, err := fixed.FromFloat(t)
		if err != nil {
			return nil, err
		}
		return model.NewFixed(f), nil
	}
	return nil, fmt.Errorf("unsupported metadata value %T", v)
}
