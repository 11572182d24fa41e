package engine_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"xdao.co/txkit/engine"
	"xdao.co/txkit/engine/enginetest"
	"xdao.co/txkit/model"
)

func sampleInstructions(network model.NetworkID) []model.Instruction {
	account := string(enginetest.Account(network, 9))
	return []model.Instruction{
		model.CallMethod{
			ComponentAddress: model.ComponentAddress{Address: account},
			MethodName:       "lock_fee",
			Arguments:        model.Values{model.Decimal("10")},
		},
		model.CallMethod{
			ComponentAddress: model.ComponentAddress{Address: account},
			MethodName:       "deposit_batch",
			Arguments:        model.Values{model.Expression(model.ExpressionEntireWorktop)},
		},
	}
}

func TestSimulated_CompileDecompileIntent(t *testing.T) {
	f := enginetest.Simulated()
	tk := engine.New(f, engine.Options{})
	intent := enginetest.Intent(model.NetworkSimulator, enginetest.NotaryKey(1), sampleInstructions(model.NetworkSimulator)...)

	compiled, err := tk.CompileTransactionIntent(intent)
	if err != nil {
		t.Fatalf("CompileTransactionIntent: %v", err)
	}
	again, err := tk.CompileTransactionIntent(intent)
	if err != nil {
		t.Fatalf("CompileTransactionIntent: %v", err)
	}
	if string(compiled) != string(again) {
		t.Fatalf("compilation is not deterministic")
	}

	back, err := tk.DecompileTransactionIntent(compiled, model.InstructionsParsed)
	if err != nil {
		t.Fatalf("DecompileTransactionIntent: %v", err)
	}
	if diff := cmp.Diff(intent, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("decompiled intent mismatch (-want +got):\n%s", diff)
	}
	assertBalanced(t, f, 6)
}

func TestSimulated_DecompileRejectsForeignPayload(t *testing.T) {
	tk := engine.New(enginetest.Simulated(), engine.Options{})

	_, err := tk.DecompileSignedTransactionIntent([]byte{0x01, '{', '}'}, model.InstructionsParsed)
	resp, ok := engine.AsErrorResponse(err)
	if !ok || resp.Kind != engine.ErrUnrecognizedCompiledIntentFormat {
		t.Fatalf("expected UnrecognizedCompiledIntentFormat, got %v", err)
	}
}

func TestSimulated_ConvertManifestBothWays(t *testing.T) {
	tk := engine.New(enginetest.Simulated(), engine.Options{})
	parsed := model.Manifest{Instructions: model.ParsedInstructions(sampleInstructions(model.NetworkSimulator))}

	text, err := tk.ConvertManifest(model.NetworkSimulator, model.InstructionsString, parsed)
	if err != nil {
		t.Fatalf("ConvertManifest to String: %v", err)
	}
	s, ok := text.Instructions.(model.StringInstructions)
	if !ok {
		t.Fatalf("expected string instructions, got %T", text.Instructions)
	}
	if !strings.Contains(string(s), `"lock_fee" Decimal("10");`) {
		t.Fatalf("unexpected manifest text:\n%s", s)
	}

	back, err := tk.ConvertManifest(model.NetworkSimulator, model.InstructionsParsed, text)
	if err != nil {
		t.Fatalf("ConvertManifest to Parsed: %v", err)
	}
	if diff := cmp.Diff(parsed, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulated_ConvertManifestParseError(t *testing.T) {
	tk := engine.New(enginetest.Simulated(), engine.Options{})
	bad := model.Manifest{Instructions: model.StringInstructions(`CALL_METHOD Decimal("1") "withdraw";`)}

	_, err := tk.ConvertManifest(model.NetworkSimulator, model.InstructionsParsed, bad)
	resp, ok := engine.AsErrorResponse(err)
	if !ok || resp.Kind != engine.ErrParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestSimulated_Addresses(t *testing.T) {
	tk := engine.New(enginetest.Simulated(), engine.Options{})
	key := enginetest.NotaryKey(3)

	account, err := tk.DeriveVirtualAccountAddress(model.NetworkStokenet, key)
	if err != nil {
		t.Fatalf("DeriveVirtualAccountAddress: %v", err)
	}
	if !strings.HasPrefix(string(account), model.AccountAddressPrefix) {
		t.Fatalf("expected an account address, got %s", account)
	}

	decoded, err := tk.DecodeAddress(string(account))
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if decoded.NetworkID != model.NetworkStokenet || decoded.EntityType != "AccountComponent" {
		t.Fatalf("unexpected decode: %+v", decoded)
	}

	encoded, err := tk.EncodeAddress(decoded.NetworkID, decoded.Data)
	if err != nil {
		t.Fatalf("EncodeAddress: %v", err)
	}
	if encoded.Address != string(account) || encoded.Kind != model.KindComponentAddress {
		t.Fatalf("re-encoded address mismatch: %+v", encoded)
	}

	known, err := tk.KnownEntityAddresses(model.NetworkStokenet)
	if err != nil {
		t.Fatalf("KnownEntityAddresses: %v", err)
	}
	if !strings.HasPrefix(known.XRDResourceAddress.Address, "resource_") {
		t.Fatalf("unexpected xrd address %q", known.XRDResourceAddress.Address)
	}

	if _, err := tk.DecodeAddress("not-an-address"); err == nil {
		t.Fatalf("expected decode failure")
	}
}
