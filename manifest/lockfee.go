package manifest

import (
	"fmt"

	"xdao.co/txkit/model"
)

// DefaultLockFee is the fee locked by PrependLockFee when none is given.
const DefaultLockFee model.Decimal = "10"

// LockFeeCallMethod returns the instruction that locks fee on account.
func LockFeeCallMethod(account model.AccountAddress, fee model.Decimal) model.CallMethod {
	return model.CallMethod{
		ComponentAddress: model.ComponentAddress{Address: string(account)},
		MethodName:       "lock_fee",
		Arguments:        model.Values{fee},
	}
}

// PrependLockFee returns m converted to parsed form with a lock_fee call on
// account as its first instruction.
func PrependLockFee(conv Converter, m model.Manifest, network model.NetworkID, account model.AccountAddress, fee model.Decimal) (model.Manifest, error) {
	if fee == "" {
		fee = DefaultLockFee
	}
	if _, ok := (model.ComponentAddress{Address: string(account)}).AsAccount(); !ok {
		return model.Manifest{}, fmt.Errorf("manifest: %q is not an account address", account)
	}
	ins, err := parse(conv, m, network)
	if err != nil {
		return model.Manifest{}, err
	}
	out := make(model.ParsedInstructions, 0, len(ins)+1)
	out = append(out, LockFeeCallMethod(account, fee))
	out = append(out, ins...)
	return model.Manifest{Instructions: out, Blobs: m.Blobs}, nil
}
