package isi

import (
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/util/math"
	"github.com/korthochain/ledger/pkg/wsv"
)

// increase and decrease combine an asset value with an amount of the same
// numeric kind.
func increase(cur, amount model.Value) (model.Value, error) {
	switch a := amount.(type) {
	case model.U32:
		if c, ok := cur.(model.U32); ok {
			n, err := math.AddUint32Overflow(uint32(c), uint32(a))
			if err != nil {
				return nil, &ExecError{Kind: Math, Err: err}
			}
			return model.U32(n), nil
		}
	case model.U128:
		if c, ok := cur.(model.U128); ok {
			n, err := c.Add(a.Uint128)
			if err != nil {
				return nil, &ExecError{Kind: Math, Err: err}
			}
			return model.U128{Uint128: n}, nil
		}
	case model.Fixed:
		if c, ok := cur.(model.Fixed); ok {
			n, err := c.Add(a.Fixed)
			if err != nil {
				return nil, err
			}
			return model.NewFixed(n), nil
		}
	default:
		return nil, execErr(TypeMismatch, "%s is not an asset quantity", amount.Kind())
	}
	return nil, execErr(TypeMismatch, "cannot combine %s asset with %s", cur.Kind(), amount.Kind())
}

func decrease(cur, amount model.Value) (model.Value, error) {
	switch a := amount.(type) {
	case model.U32:
		if c, ok := cur.(model.U32); ok {
			n, err := math.SubUint32Overflow(uint32(c), uint32(a))
			if err != nil {
				return nil, &ExecError{Kind: Math, Err: err}
			}
			return model.U32(n), nil
		}
	case model.U128:
		if c, ok := cur.(model.U128); ok {
			n, err := c.Sub(a.Uint128)
			if err != nil {
				return nil, &ExecError{Kind: Math, Err: err}
			}
			return model.U128{Uint128: n}, nil
		}
	case model.Fixed:
		if c, ok := cur.(model.Fixed); ok {
			n, err := c.Sub(a.Fixed)
			if err != nil {
				return nil, err
			}
			return model.NewFixed(n), nil
		}
	default:
		return nil, execErr(TypeMismatch, "%s is not an asset quantity", amount.Kind())
	}
	return nil, execErr(TypeMismatch, "cannot combine %s asset with %s", cur.Kind(), amount.Kind())
}

func (ex *executor) updateAsset(id model.AssetId, fn func(cur model.Value) (model.Value, error)) error {
	err := ex.v.ModifyAsset(id, func(asset *model.Asset) error {
		next, err := fn(asset.Value)
		if err != nil {
			return err
		}
		asset.Value = next
		return nil
	})
	if err != nil {
		return err
	}
	ex.emit(model.EntityAsset, model.Updated, id)
	return nil
}

func executeMint(i model.MintBox, ex *executor) error {
	obj, err := ex.value(i.Object)
	if err != nil {
		return err
	}
	dest, err := ex.id(i.DestinationId)
	if err != nil {
		return err
	}

	switch id := dest.(type) {
	case model.AssetId:
		entry, err := ex.v.AssetDefinitionEntry(id.Definition)
		if err != nil {
			return err
		}
		if !entry.Definition.Mintable {
			return execErr(Mintability, "asset definition %s is not mintable", id.Definition)
		}
		return ex.updateAsset(id, func(cur model.Value) (model.Value, error) {
			return increase(cur, obj)
		})
	case model.AccountId:
		return ex.mintToAccount(id, obj)
	}
	return execErr(TypeMismatch, "cannot mint to %s", dest.Kind())
}

func (ex *executor) mintToAccount(id model.AccountId, obj model.Value) error {
	switch o := obj.(type) {
	case model.PublicKey:
		err := ex.v.ModifyAccount(id, func(a *model.Account) error {
			if !a.AddSignatory(o) {
				return &wsv.RepetitionError{Kind: wsv.SignatoryEntity, ID: o.String()}
			}
			return nil
		})
		if err != nil {
			return err
		}
		ex.emit(model.EntitySignatory, model.Created, id)
	case model.SignatureCheckCondition:
		err := ex.v.ModifyAccount(id, func(a *model.Account) error {
			a.SignatureCheckCondition = o
			return nil
		})
		if err != nil {
			return err
		}
		ex.emit(model.EntityAccount, model.Updated, id)
	default:
		return execErr(TypeMismatch, "cannot mint %s to an account", obj.Kind())
	}
	return nil
}

func executeBurn(i model.BurnBox, ex *executor) error {
	obj, err := ex.value(i.Object)
	if err != nil {
		return err
	}
	dest, err := ex.id(i.DestinationId)
	if err != nil {
		return err
	}

	switch id := dest.(type) {
	case model.AssetId:
		if _, err := ex.v.Asset(id); err != nil {
			return err
		}
		return ex.updateAsset(id, func(cur model.Value) (model.Value, error) {
			return decrease(cur, obj)
		})
	case model.AccountId:
		key, ok := obj.(model.PublicKey)
		if !ok {
			return execErr(TypeMismatch, "cannot burn %s from an account", obj.Kind())
		}
		err := ex.v.ModifyAccount(id, func(a *model.Account) error {
			if !a.RemoveSignatory(key) {
				return &wsv.FindError{Kind: wsv.SignatoryEntity, ID: key.String()}
			}
			return nil
		})
		if err != nil {
			return err
		}
		ex.emit(model.EntitySignatory, model.Deleted, id)
		return nil
	}
	return execErr(TypeMismatch, "cannot burn from %s", dest.Kind())
}

// executeTransfer moves an amount between two assets of one definition,
// creating the destination asset if needed.
func executeTransfer(i model.TransferBox, ex *executor) error {
	src, err := operand[model.AssetId](ex, "transfer source", i.SourceId)
	if err != nil {
		return err
	}
	amount, err := ex.value(i.Object)
	if err != nil {
		return err
	}
	dst, err := operand[model.AssetId](ex, "transfer destination", i.DestinationId)
	if err != nil {
		return err
	}
	if src.Definition != dst.Definition {
		return execErr(TypeMismatch, "cannot transfer %s to %s", src.Definition, dst.Definition)
	}
	if _, err := ex.v.Asset(src); err != nil {
		return err
	}

	err = ex.updateAsset(src, func(cur model.Value) (model.Value, error) {
		return decrease(cur, amount)
	})
	if err != nil {
		return err
	}
	return ex.updateAsset(dst, func(cur model.Value) (model.Value, error) {
		return increase(cur, amount)
	})
}
