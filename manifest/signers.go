package manifest

import (
	"fmt"

	"xdao.co/txkit/model"
)

// Converter converts a manifest between its text and parsed representations.
// *engine.Toolkit satisfies it.
type Converter interface {
	ConvertManifest(network model.NetworkID, kind model.InstructionsKind, m model.Manifest) (model.Manifest, error)
}

// authMethods are the account methods that require the account's owner to
// sign.
var authMethods = map[model.String]bool{
	"withdraw":                        true,
	"withdraw_by_amount":              true,
	"withdraw_by_ids":                 true,
	"lock_fee":                        true,
	"lock_contingent_fee":             true,
	"lock_fee_and_withdraw":           true,
	"lock_fee_and_withdraw_by_amount": true,
	"lock_fee_and_withdraw_by_ids":    true,
	"create_proof":                    true,
	"create_proof_by_amount":          true,
	"create_proof_by_ids":             true,
}

// RequiresAuth reports whether calling method on an account needs the
// account's signature.
func RequiresAuth(method string) bool { return authMethods[model.String(method)] }

// AccountsRequiredToSign returns the accounts whose signatures m needs: the
// receivers of auth-sensitive account methods, plus every account whose own
// configuration m changes.
//
// It panics if the converter returns a manifest that is not parsed.
func AccountsRequiredToSign(conv Converter, m model.Manifest, network model.NetworkID) (AccountSet, error) {
	ins, err := parse(conv, m, network)
	if err != nil {
		return nil, err
	}
	return scan(ins, false), nil
}

// AccountsSuitableToPayTXFee returns every account m calls a method on,
// together with the accounts that must sign m anyway. It is always a superset
// of AccountsRequiredToSign.
//
// It panics if the converter returns a manifest that is not parsed.
func AccountsSuitableToPayTXFee(conv Converter, m model.Manifest, network model.NetworkID) (AccountSet, error) {
	ins, err := parse(conv, m, network)
	if err != nil {
		return nil, err
	}
	return scan(ins, true), nil
}

// scan collects accounts from ins. With anyMethod set every method call
// receiver counts, not only those of auth-sensitive methods.
func scan(ins model.ParsedInstructions, anyMethod bool) AccountSet {
	set := AccountSet{}
	for _, in := range ins {
		switch v := in.(type) {
		case model.CallMethod:
			if anyMethod || authMethods[v.MethodName] {
				addComponent(set, v.ComponentAddress)
			}
		case model.SetMetadata:
			addEntity(set, v.EntityAddress)
		case model.SetMethodAccessRule:
			addEntity(set, v.EntityAddress)
		case model.SetComponentRoyaltyConfig:
			addComponent(set, v.ComponentAddress)
		case model.ClaimComponentRoyalty:
			addComponent(set, v.ComponentAddress)
		}
	}
	return set
}

func parse(conv Converter, m model.Manifest, network model.NetworkID) (model.ParsedInstructions, error) {
	if conv == nil {
		return nil, fmt.Errorf("manifest: missing converter")
	}
	out, err := conv.ConvertManifest(network, model.InstructionsParsed, m)
	if err != nil {
		return nil, fmt.Errorf("manifest: convert to parsed: %w", err)
	}
	ins, ok := out.Instructions.(model.ParsedInstructions)
	if !ok {
		panic(fmt.Sprintf("manifest: converter returned %T instructions for a parsed conversion", out.Instructions))
	}
	return ins, nil
}

func addComponent(set AccountSet, c model.ComponentAddress) {
	if a, ok := c.AsAccount(); ok {
		set.Add(a)
	}
}

func addEntity(set AccountSet, v model.Value) {
	if a, ok := model.EntityAccount(v); ok {
		set.Add(a)
	}
}
