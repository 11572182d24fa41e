package manifest_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xdao.co/txkit/engine"
	"xdao.co/txkit/engine/enginetest"
	"xdao.co/txkit/manifest"
	"xdao.co/txkit/model"
)

const network = model.NetworkSimulator

func toolkit() *engine.Toolkit { return engine.New(enginetest.Simulated(), engine.Options{}) }

func account(seed byte) model.AccountAddress { return enginetest.Account(network, seed) }

func call(a model.AccountAddress, method string, args ...model.Value) model.CallMethod {
	return model.CallMethod{
		ComponentAddress: model.ComponentAddress{Address: string(a)},
		MethodName:       model.String(method),
		Arguments:        model.Values(args),
	}
}

func parsed(ins ...model.Instruction) model.Manifest {
	return model.Manifest{Instructions: model.ParsedInstructions(ins)}
}

func TestAccountsRequiredToSign_Empty(t *testing.T) {
	for name, m := range map[string]model.Manifest{
		"parsed": parsed(),
		"text":   {Instructions: model.StringInstructions("CLEAR_AUTH_ZONE;\nDROP_ALL_PROOFS;")},
	} {
		got, err := manifest.AccountsRequiredToSign(toolkit(), m, network)
		if err != nil {
			t.Fatalf("%s: AccountsRequiredToSign: %v", name, err)
		}
		if got.Len() != 0 {
			t.Fatalf("%s: expected no accounts, got %v", name, got.Sorted())
		}
	}
}

func TestAccountsRequiredToSign_WithdrawAndMetadata(t *testing.T) {
	a, b := account(1), account(2)
	text := fmt.Sprintf(`CALL_METHOD ComponentAddress("%s") "withdraw" ResourceAddress("resource_sim1") Decimal("5");
SET_METADATA ComponentAddress("%s") "name" "bob";
`, a, b)

	got, err := manifest.AccountsRequiredToSign(toolkit(), model.Manifest{Instructions: model.StringInstructions(text)}, network)
	if err != nil {
		t.Fatalf("AccountsRequiredToSign: %v", err)
	}
	want := manifest.AccountSet{}
	want.Add(a)
	want.Add(b)
	if diff := cmp.Diff(want.Sorted(), got.Sorted()); diff != "" {
		t.Fatalf("signer set mismatch (-want +got):\n%s", diff)
	}
}

func accessRule(entity model.Value) model.SetMethodAccessRule {
	return model.SetMethodAccessRule{
		EntityAddress: model.AnyValue{Value: entity},
		Index:         0,
		Key:           model.AnyValue{Value: model.String("withdraw")},
		Rule:          model.AnyValue{Value: model.String("AllowAll")},
	}
}

func TestAccountsRequiredToSign_MethodAllowList(t *testing.T) {
	a, b, c, d := account(1), account(2), account(3), account(4)
	e, f := account(5), account(6)
	m := parsed(
		call(a, "lock_fee", model.Decimal("10")),
		call(b, "deposit_batch", model.Expression(model.ExpressionEntireWorktop)),
		call(c, "create_proof_by_amount", model.ResourceAddress{Address: "resource_sim1"}, model.Decimal("1")),
		model.CallMethod{ComponentAddress: model.ComponentAddress{Address: "component_sim1"}, MethodName: "withdraw"},
		model.ClaimComponentRoyalty{ComponentAddress: model.ComponentAddress{Address: string(d)}},
		model.SetMetadata{EntityAddress: model.AnyValue{Value: model.ResourceAddress{Address: "resource_sim1"}}, Key: "k", Value: "v"},
		accessRule(model.ComponentAddress{Address: string(e)}),
		accessRule(model.PackageAddress{Address: "package_sim1"}),
		model.SetComponentRoyaltyConfig{
			ComponentAddress: model.ComponentAddress{Address: string(f)},
			RoyaltyConfig:    model.AnyValue{Value: model.String("free")},
		},
	)

	required, err := manifest.AccountsRequiredToSign(toolkit(), m, network)
	if err != nil {
		t.Fatalf("AccountsRequiredToSign: %v", err)
	}
	want := []model.AccountAddress{a, c, d, e, f}
	for _, acc := range want {
		if !required.Has(acc) {
			t.Fatalf("expected %s to be required", acc)
		}
	}
	if required.Has(b) || required.Len() != len(want) {
		t.Fatalf("unexpected required set %v", required.Sorted())
	}

	fee, err := manifest.AccountsSuitableToPayTXFee(toolkit(), m, network)
	if err != nil {
		t.Fatalf("AccountsSuitableToPayTXFee: %v", err)
	}
	if !fee.Has(b) || fee.Len() != len(want)+1 {
		t.Fatalf("unexpected fee payer set %v", fee.Sorted())
	}
	for acc := range required {
		if !fee.Has(acc) {
			t.Fatalf("fee payers must include required signer %s", acc)
		}
	}
}

func TestAccountsRequiredToSign_ConfigurationOfNonAccounts(t *testing.T) {
	m := parsed(
		model.SetMetadata{EntityAddress: model.AnyValue{Value: model.ResourceAddress{Address: "resource_sim1"}}, Key: "name", Value: "token"},
		model.SetMetadata{EntityAddress: model.AnyValue{Value: model.PackageAddress{Address: "package_sim1"}}, Key: "name", Value: "pkg"},
		accessRule(model.ResourceAddress{Address: "resource_sim1"}),
		model.SetComponentRoyaltyConfig{
			ComponentAddress: model.ComponentAddress{Address: "component_sim1"},
			RoyaltyConfig:    model.AnyValue{Value: model.String("free")},
		},
		model.ClaimComponentRoyalty{ComponentAddress: model.ComponentAddress{Address: "component_sim1"}},
	)
	for name, fn := range map[string]func(manifest.Converter, model.Manifest, model.NetworkID) (manifest.AccountSet, error){
		"required": manifest.AccountsRequiredToSign,
		"fee":      manifest.AccountsSuitableToPayTXFee,
	} {
		got, err := fn(toolkit(), m, network)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.Len() != 0 {
			t.Fatalf("%s: expected no accounts, got %v", name, got.Sorted())
		}
	}
}

func TestAccountsRequiredToSign_Deduplicates(t *testing.T) {
	a := account(1)
	m := parsed(call(a, "lock_fee", model.Decimal("1")), call(a, "withdraw"), model.SetMetadata{
		EntityAddress: model.AnyValue{Value: model.ComponentAddress{Address: string(a)}},
		Key:           "name",
		Value:         "a",
	})
	got, err := manifest.AccountsRequiredToSign(toolkit(), m, network)
	if err != nil {
		t.Fatalf("AccountsRequiredToSign: %v", err)
	}
	if got.Len() != 1 || !got.Has(a) {
		t.Fatalf("expected only %s, got %v", a, got.Sorted())
	}
}

func TestAccountsRequiredToSign_SurfacesConversionError(t *testing.T) {
	bad := model.Manifest{Instructions: model.StringInstructions(`TELEPORT "x";`)}
	_, err := manifest.AccountsRequiredToSign(toolkit(), bad, network)
	if resp, ok := engine.AsErrorResponse(err); !ok || resp.Kind != engine.ErrParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

// textConverter always answers with the text representation.
type textConverter struct{}

func (textConverter) ConvertManifest(model.NetworkID, model.InstructionsKind, model.Manifest) (model.Manifest, error) {
	return model.Manifest{Instructions: model.StringInstructions("CLEAR_AUTH_ZONE;")}, nil
}

func TestAccountsRequiredToSign_WrongRepresentationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic when the converter ignores the requested representation")
		}
	}()
	_, _ = manifest.AccountsRequiredToSign(textConverter{}, parsed(), network)
}

func TestAccountSet_Sorted(t *testing.T) {
	s := manifest.AccountSet{}
	for _, a := range []model.AccountAddress{"account_c", "account_a", "account_b", "account_a"} {
		s.Add(a)
	}
	want := []model.AccountAddress{"account_a", "account_b", "account_c"}
	if diff := cmp.Diff(want, s.Sorted()); diff != "" {
		t.Fatalf("Sorted mismatch (-want +got):\n%s", diff)
	}
}

func TestRequiresAuth(t *testing.T) {
	if !manifest.RequiresAuth("lock_fee_and_withdraw_by_ids") || manifest.RequiresAuth("deposit") {
		t.Fatalf("unexpected allow-list membership")
	}
}
