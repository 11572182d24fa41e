package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testKey(b byte) PublicKey {
	return PublicKey{Curve: CurveEd25519, Bytes: bytes.Repeat([]byte{b}, 32)}
}

func TestSnapshot_CallMethod_JSONShape(t *testing.T) {
	ins := CallMethod{
		ComponentAddress: ComponentAddress{Address: "account_sim1"},
		MethodName:       "withdraw",
		Arguments: Values{
			ResourceAddress{Address: "resource_sim1"},
			Decimal("12.5"),
		},
	}
	b, err := EncodeInstruction(ins)
	if err != nil {
		t.Fatalf("EncodeInstruction: %v", err)
	}

	const want = `{"instruction":"CALL_METHOD",` +
		`"component_address":{"type":"ComponentAddress","address":"account_sim1"},` +
		`"method_name":{"type":"String","value":"withdraw"},` +
		`"arguments":[{"type":"ResourceAddress","address":"resource_sim1"},{"type":"Decimal","value":"12.5"}]}`
	if string(b) != want {
		t.Fatalf("unexpected JSON:\n got: %s\nwant: %s", b, want)
	}

	back, err := DecodeInstruction(b)
	if err != nil {
		t.Fatalf("DecodeInstruction: %v", err)
	}
	if diff := cmp.Diff(Instruction(ins), back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_Header_DecimalStrings(t *testing.T) {
	h := TransactionHeader{
		Version:             TransactionVersion,
		NetworkID:           NetworkSimulator,
		StartEpochInclusive: 100,
		EndEpochExclusive:   102,
		Nonce:               42,
		NotaryPublicKey:     testKey(1),
		CostUnitLimit:       10_000_000,
		TipPercentage:       5,
	}
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, frag := range []string{
		`"version":"1"`,
		`"network_id":"242"`,
		`"start_epoch_inclusive":"100"`,
		`"end_epoch_exclusive":"102"`,
		`"nonce":"42"`,
		`"notary_public_key":{"curve":"EddsaEd25519","public_key":"0101`,
		`"notary_as_signatory":false`,
		`"cost_unit_limit":"10000000"`,
		`"tip_percentage":"5"`,
	} {
		if !strings.Contains(string(b), frag) {
			t.Fatalf("header JSON missing %s:\n%s", frag, b)
		}
	}

	var back TransactionHeader
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(h, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`{"network_id":242}`), &back); err == nil {
		t.Fatalf("numeric network id must be rejected")
	}
	if err := json.Unmarshal([]byte(`{"network_id":"256"}`), &back); err == nil {
		t.Fatalf("out of range network id must be rejected")
	}
}

func TestHeader_Validate(t *testing.T) {
	h := TransactionHeader{StartEpochInclusive: 5, EndEpochExclusive: 5, NotaryPublicKey: testKey(1)}
	if err := h.Validate(); err == nil {
		t.Fatalf("empty epoch range must be rejected")
	}
	h.EndEpochExclusive = 6
	if err := h.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	h.NotaryPublicKey.Bytes = h.NotaryPublicKey.Bytes[:31]
	if err := h.Validate(); err == nil {
		t.Fatalf("short notary key must be rejected")
	}
}

func TestValues_AllKinds_RoundTrip(t *testing.T) {
	vals := Values{
		Bool(true),
		U8(18),
		U32(7),
		U64(1 << 40),
		String("hi"),
		Decimal("1.5"),
		ComponentAddress{Address: "component_sim1"},
		ResourceAddress{Address: "resource_sim1"},
		PackageAddress{Address: "package_sim1"},
		Bucket{Identifier: String("b")},
		Proof{Identifier: U32(3)},
		Expression(ExpressionEntireAuthZone),
		Blob{Hash: HashOf([]byte("code"))},
		Bytes{0xde, 0xad},
		Array{ElementKind: KindDecimal, Elements: Values{Decimal("1"), Decimal("2")}},
		Tuple{Elements: Values{String("a"), U8(1)}},
		Map{KeyKind: KindString, ValueKind: KindU8, Entries: []MapEntry{{Key: String("k"), Value: U8(1)}}},
		Enum{Variant: "AccessRule::AllowAll"},
	}
	b, err := json.Marshal(vals)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Values
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, b)
	}
	if diff := cmp.Diff(vals, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Contains(b, []byte(`{"type":"U64","value":"1099511627776"}`)) {
		t.Fatalf("U64 must be a decimal string: %s", b)
	}
}

func TestValue_RejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"unknown type":         `{"type":"Float","value":"1"}`,
		"missing type":         `{"value":"1"}`,
		"bucket of decimal":    `{"type":"Bucket","identifier":{"type":"Decimal","value":"1"}}`,
		"numeric u32":          `{"type":"U32","value":1}`,
		"map entry of three":   `{"type":"Map","key_value_kind":"U8","value_value_kind":"U8","entries":[[{"type":"U8","value":"1"},{"type":"U8","value":"1"},{"type":"U8","value":"1"}]]}`,
		"invalid hex bytes":    `{"type":"Bytes","value":"zz"}`,
	}
	for name, raw := range cases {
		if _, err := DecodeValue([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if _, err := json.Marshal(Array{ElementKind: KindU8, Elements: Values{String("x")}}); err == nil {
		t.Fatalf("array element kind mismatch must be rejected")
	}
}

func TestInstruction_UnknownKindRejected(t *testing.T) {
	if _, err := DecodeInstruction([]byte(`{"instruction":"TELEPORT"}`)); err == nil {
		t.Fatalf("expected unknown instruction to be rejected")
	}
	if _, err := DecodeInstruction([]byte(`{"component_address":{}}`)); err == nil {
		t.Fatalf("expected missing discriminator to be rejected")
	}
}

func TestManifest_BothRepresentations(t *testing.T) {
	text := Manifest{Instructions: StringInstructions("CLEAR_AUTH_ZONE;"), Blobs: []HexBytes{{0x01, 0x02}}}
	b, err := json.Marshal(text)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	const want = `{"instructions":{"type":"String","value":"CLEAR_AUTH_ZONE;"},"blobs":["0102"]}`
	if string(b) != want {
		t.Fatalf("unexpected JSON:\n got: %s\nwant: %s", b, want)
	}

	parsed := Manifest{Instructions: ParsedInstructions{ClearAuthZone{}, DropAllProofs{}}}
	b, err = json.Marshal(parsed)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	const wantParsed = `{"instructions":{"type":"Parsed","value":[{"instruction":"CLEAR_AUTH_ZONE"},{"instruction":"DROP_ALL_PROOFS"}]},"blobs":[]}`
	if string(b) != wantParsed {
		t.Fatalf("unexpected JSON:\n got: %s\nwant: %s", b, wantParsed)
	}

	var back Manifest
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(parsed, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`{"instructions":{"type":"Json","value":[]},"blobs":[]}`), &back); err == nil {
		t.Fatalf("unknown instructions kind must be rejected")
	}
}

func TestSignatureWithPublicKey_CurveTagged(t *testing.T) {
	sig := SignatureWithPublicKey{
		PublicKey: testKey(2),
		Signature: Signature{Curve: CurveEd25519, Bytes: bytes.Repeat([]byte{3}, 64)},
	}
	b, err := json.Marshal(sig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasPrefix(string(b), `{"curve":"EddsaEd25519","public_key":"0202`) {
		t.Fatalf("discriminator must come first: %s", b)
	}
	var back SignatureWithPublicKey
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(sig, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	mixed := sig
	mixed.Signature.Curve = CurveSecp256k1
	if _, err := json.Marshal(mixed); err == nil {
		t.Fatalf("mixed curves must be rejected")
	}
	if err := json.Unmarshal([]byte(`{"curve":"EcdsaSecp256k1","public_key":"02","signature":"00"}`), &back); err == nil {
		t.Fatalf("wrong key length must be rejected")
	}
}

func TestNotarizedTransaction_NotaryKeyFromHeader(t *testing.T) {
	notary := testKey(4)
	n := NotarizedTransaction{
		SignedIntent: SignedTransactionIntent{
			Intent: TransactionIntent{
				Header:   TransactionHeader{Version: 1, NetworkID: NetworkSimulator, StartEpochInclusive: 1, EndEpochExclusive: 2, NotaryPublicKey: notary},
				Manifest: Manifest{Instructions: ParsedInstructions{ClearAuthZone{}}},
			},
		},
		NotarySignature: SignatureWithPublicKey{
			PublicKey: notary,
			Signature: Signature{Curve: CurveEd25519, Bytes: bytes.Repeat([]byte{5}, 64)},
		},
	}
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Contains(b, []byte(`"intent_signatures":[]`)) {
		t.Fatalf("empty signature list must encode as []: %s", b)
	}
	if !bytes.Contains(b, []byte(`"notary_signature":{"curve":"EddsaEd25519","signature":"0505`)) {
		t.Fatalf("notary signature must omit its public key: %s", b)
	}

	var back NotarizedTransaction
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(n, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if err := back.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	n.NotarySignature.PublicKey = testKey(6)
	if _, err := json.Marshal(n); err == nil {
		t.Fatalf("notary signature by a foreign key must be rejected")
	}
}

func TestNetwork_Names(t *testing.T) {
	if NetworkMainnet.Name() != "mainnet" || NetworkID(99).Name() != "99" {
		t.Fatalf("unexpected names")
	}
	if id, ok := ParseNetwork("stokenet"); !ok || id != NetworkStokenet {
		t.Fatalf("ParseNetwork(stokenet) = %v, %v", id, ok)
	}
	if id, ok := ParseNetwork("242"); !ok || id != NetworkSimulator {
		t.Fatalf("ParseNetwork(242) = %v, %v", id, ok)
	}
	if _, ok := ParseNetwork("nowhere"); ok {
		t.Fatalf("unknown network name must not parse")
	}
}

func TestEntityAccount(t *testing.T) {
	if a, ok := EntityAccount(AnyValue{ComponentAddress{Address: "account_sim1"}}); !ok || a != "account_sim1" {
		t.Fatalf("expected account, got %q %v", a, ok)
	}
	if _, ok := EntityAccount(ComponentAddress{Address: "component_sim1"}); ok {
		t.Fatalf("plain component must not be an account")
	}
	if _, ok := EntityAccount(ResourceAddress{Address: "account_sim1"}); ok {
		t.Fatalf("resource address must not be an account")
	}
}
