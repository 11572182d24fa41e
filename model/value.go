package model

import (
	"encoding/json"
	"fmt"
)

// ValueKind is the discriminator of a manifest value.
type ValueKind string

const (
	KindBool             ValueKind = "Bool"
	KindU8               ValueKind = "U8"
	KindU32              ValueKind = "U32"
	KindU64              ValueKind = "U64"
	KindString           ValueKind = "String"
	KindDecimal          ValueKind = "Decimal"
	KindComponentAddress ValueKind = "ComponentAddress"
	KindResourceAddress  ValueKind = "ResourceAddress"
	KindPackageAddress   ValueKind = "PackageAddress"
	KindBucket           ValueKind = "Bucket"
	KindProof            ValueKind = "Proof"
	KindExpression       ValueKind = "Expression"
	KindBlob             ValueKind = "Blob"
	KindBytes            ValueKind = "Bytes"
	KindArray            ValueKind = "Array"
	KindTuple            ValueKind = "Tuple"
	KindMap              ValueKind = "Map"
	KindEnum             ValueKind = "Enum"
)

const valueKey = "type"

// Value is a manifest value. The set of implementations is closed.
type Value interface {
	Kind() ValueKind
}

var valueDecoders = map[ValueKind]func([]byte) (Value, error){
	KindBool:             decodeValueAs[Bool],
	KindU8:               decodeValueAs[U8],
	KindU32:              decodeValueAs[U32],
	KindU64:              decodeValueAs[U64],
	KindString:           decodeValueAs[String],
	KindDecimal:          decodeValueAs[Decimal],
	KindComponentAddress: decodeValueAs[ComponentAddress],
	KindResourceAddress:  decodeValueAs[ResourceAddress],
	KindPackageAddress:   decodeValueAs[PackageAddress],
	KindBucket:           decodeValueAs[Bucket],
	KindProof:            decodeValueAs[Proof],
	KindExpression:       decodeValueAs[Expression],
	KindBlob:             decodeValueAs[Blob],
	KindBytes:            decodeValueAs[Bytes],
	KindArray:            decodeValueAs[Array],
	KindTuple:            decodeValueAs[Tuple],
	KindMap:              decodeValueAs[Map],
	KindEnum:             decodeValueAs[Enum],
}

func decodeValueAs[T Value](data []byte) (Value, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeValue reads the "type" discriminator and decodes the matching value.
func DecodeValue(data []byte) (Value, error) {
	tag, err := readTag(data, valueKey)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	decode, ok := valueDecoders[ValueKind(tag)]
	if !ok {
		return nil, fmt.Errorf("value: unknown type %q", tag)
	}
	v, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("value %s: %w", tag, err)
	}
	return v, nil
}

// AnyValue holds a value of any kind where the wire position is polymorphic.
type AnyValue struct {
	Value
}

func (a AnyValue) MarshalJSON() ([]byte, error) {
	if a.Value == nil {
		return nil, fmt.Errorf("value: nil")
	}
	return json.Marshal(a.Value)
}

func (a *AnyValue) UnmarshalJSON(data []byte) error {
	v, err := DecodeValue(data)
	if err != nil {
		return err
	}
	a.Value = v
	return nil
}

// Values is an ordered list of values of any kind.
type Values []Value

func (vs Values) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(vs))
	for i, v := range vs {
		if v == nil {
			return nil, fmt.Errorf("value %d: nil", i)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

func (vs *Values) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Values, 0, len(raws))
	for _, raw := range raws {
		v, err := DecodeValue(raw)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*vs = out
	return nil
}

type scalar[T any] struct {
	Value T `json:"value"`
}

func encodeScalar[T any](kind ValueKind, v T) ([]byte, error) {
	return encodeTagged(valueKey, string(kind), scalar[T]{Value: v})
}

func decodeScalar[T any](data []byte, kind ValueKind) (T, error) {
	var p scalar[T]
	err := decodeTagged(data, valueKey, string(kind), &p)
	return p.Value, err
}

type Bool bool

func (Bool) Kind() ValueKind                { return KindBool }
func (v Bool) MarshalJSON() ([]byte, error) { return encodeScalar(KindBool, bool(v)) }
func (v *Bool) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[bool](b, KindBool)
	*v = Bool(x)
	return err
}

type U8 uint8

func (U8) Kind() ValueKind                { return KindU8 }
func (v U8) MarshalJSON() ([]byte, error) { return encodeScalar(KindU8, Uint8(v)) }
func (v *U8) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[Uint8](b, KindU8)
	*v = U8(x)
	return err
}

type U32 uint32

func (U32) Kind() ValueKind                { return KindU32 }
func (v U32) MarshalJSON() ([]byte, error) { return encodeScalar(KindU32, Uint32(v)) }
func (v *U32) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[Uint32](b, KindU32)
	*v = U32(x)
	return err
}

type U64 uint64

func (U64) Kind() ValueKind                { return KindU64 }
func (v U64) MarshalJSON() ([]byte, error) { return encodeScalar(KindU64, Nonce(v)) }
func (v *U64) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[Nonce](b, KindU64)
	*v = U64(x)
	return err
}

type String string

func (String) Kind() ValueKind                { return KindString }
func (v String) MarshalJSON() ([]byte, error) { return encodeScalar(KindString, string(v)) }
func (v *String) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[string](b, KindString)
	*v = String(x)
	return err
}

// Decimal is a fixed point amount kept in its decimal text form.
type Decimal string

func (Decimal) Kind() ValueKind                { return KindDecimal }
func (v Decimal) MarshalJSON() ([]byte, error) { return encodeScalar(KindDecimal, string(v)) }
func (v *Decimal) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[string](b, KindDecimal)
	*v = Decimal(x)
	return err
}

// Expression names a manifest expression such as ENTIRE_WORKTOP.
type Expression string

const (
	ExpressionEntireWorktop  Expression = "ENTIRE_WORKTOP"
	ExpressionEntireAuthZone Expression = "ENTIRE_AUTH_ZONE"
)

func (Expression) Kind() ValueKind                { return KindExpression }
func (v Expression) MarshalJSON() ([]byte, error) { return encodeScalar(KindExpression, string(v)) }
func (v *Expression) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[string](b, KindExpression)
	*v = Expression(x)
	return err
}

type Bytes []byte

func (Bytes) Kind() ValueKind                { return KindBytes }
func (v Bytes) MarshalJSON() ([]byte, error) { return encodeScalar(KindBytes, HexBytes(v)) }
func (v *Bytes) UnmarshalJSON(b []byte) error {
	x, err := decodeScalar[HexBytes](b, KindBytes)
	*v = Bytes(x)
	return err
}

type addressFields struct {
	Address string `json:"address"`
}

type ComponentAddress struct {
	Address string
}

func (ComponentAddress) Kind() ValueKind { return KindComponentAddress }
func (v ComponentAddress) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(KindComponentAddress), addressFields{v.Address})
}
func (v *ComponentAddress) UnmarshalJSON(b []byte) error {
	var f addressFields
	err := decodeTagged(b, valueKey, string(KindComponentAddress), &f)
	v.Address = f.Address
	return err
}

type ResourceAddress struct {
	Address string
}

func (ResourceAddress) Kind() ValueKind { return KindResourceAddress }
func (v ResourceAddress) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(KindResourceAddress), addressFields{v.Address})
}
func (v *ResourceAddress) UnmarshalJSON(b []byte) error {
	var f addressFields
	err := decodeTagged(b, valueKey, string(KindResourceAddress), &f)
	v.Address = f.Address
	return err
}

type PackageAddress struct {
	Address string
}

func (PackageAddress) Kind() ValueKind { return KindPackageAddress }
func (v PackageAddress) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(KindPackageAddress), addressFields{v.Address})
}
func (v *PackageAddress) UnmarshalJSON(b []byte) error {
	var f addressFields
	err := decodeTagged(b, valueKey, string(KindPackageAddress), &f)
	v.Address = f.Address
	return err
}

type identifierFields struct {
	Identifier AnyValue `json:"identifier"`
}

func checkIdentifier(v Value) error {
	switch v.(type) {
	case String, U32:
		return nil
	}
	return fmt.Errorf("identifier must be String or U32, got %T", v)
}

// Bucket references a worktop bucket by a String or U32 identifier.
type Bucket struct {
	Identifier Value
}

func (Bucket) Kind() ValueKind { return KindBucket }
func (v Bucket) MarshalJSON() ([]byte, error) {
	if err := checkIdentifier(v.Identifier); err != nil {
		return nil, fmt.Errorf("bucket: %w", err)
	}
	return encodeTagged(valueKey, string(KindBucket), identifierFields{AnyValue{v.Identifier}})
}
func (v *Bucket) UnmarshalJSON(b []byte) error {
	var f identifierFields
	if err := decodeTagged(b, valueKey, string(KindBucket), &f); err != nil {
		return err
	}
	if err := checkIdentifier(f.Identifier.Value); err != nil {
		return fmt.Errorf("bucket: %w", err)
	}
	v.Identifier = f.Identifier.Value
	return nil
}

// Proof references an auth zone proof by a String or U32 identifier.
type Proof struct {
	Identifier Value
}

func (Proof) Kind() ValueKind { return KindProof }
func (v Proof) MarshalJSON() ([]byte, error) {
	if err := checkIdentifier(v.Identifier); err != nil {
		return nil, fmt.Errorf("proof: %w", err)
	}
	return encodeTagged(valueKey, string(KindProof), identifierFields{AnyValue{v.Identifier}})
}
func (v *Proof) UnmarshalJSON(b []byte) error {
	var f identifierFields
	if err := decodeTagged(b, valueKey, string(KindProof), &f); err != nil {
		return err
	}
	if err := checkIdentifier(f.Identifier.Value); err != nil {
		return fmt.Errorf("proof: %w", err)
	}
	v.Identifier = f.Identifier.Value
	return nil
}

// Blob references a manifest blob by hash.
type Blob struct {
	Hash HashedData
}

type blobFields struct {
	Hash HashedData `json:"hash"`
}

func (Blob) Kind() ValueKind { return KindBlob }
func (v Blob) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(KindBlob), blobFields{v.Hash})
}
func (v *Blob) UnmarshalJSON(b []byte) error {
	var f blobFields
	err := decodeTagged(b, valueKey, string(KindBlob), &f)
	v.Hash = f.Hash
	return err
}

type Array struct {
	ElementKind ValueKind
	Elements    Values
}

type arrayFields struct {
	ElementKind ValueKind `json:"element_kind"`
	Elements    Values    `json:"elements"`
}

func (Array) Kind() ValueKind { return KindArray }
func (v Array) MarshalJSON() ([]byte, error) {
	for i, e := range v.Elements {
		if e != nil && e.Kind() != v.ElementKind {
			return nil, fmt.Errorf("array: element %d is %s, want %s", i, e.Kind(), v.ElementKind)
		}
	}
	return encodeTagged(valueKey, string(KindArray), arrayFields(v))
}
func (v *Array) UnmarshalJSON(b []byte) error {
	var f arrayFields
	if err := decodeTagged(b, valueKey, string(KindArray), &f); err != nil {
		return err
	}
	*v = Array(f)
	return nil
}

type Tuple struct {
	Elements Values
}

type tupleFields struct {
	Elements Values `json:"elements"`
}

func (Tuple) Kind() ValueKind { return KindTuple }
func (v Tuple) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(KindTuple), tupleFields(v))
}
func (v *Tuple) UnmarshalJSON(b []byte) error {
	var f tupleFields
	if err := decodeTagged(b, valueKey, string(KindTuple), &f); err != nil {
		return err
	}
	*v = Tuple(f)
	return nil
}

// MapEntry is encoded as a two element array.
type MapEntry struct {
	Key   Value
	Value Value
}

func (e MapEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(Values{e.Key, e.Value})
}

func (e *MapEntry) UnmarshalJSON(b []byte) error {
	var vs Values
	if err := json.Unmarshal(b, &vs); err != nil {
		return err
	}
	if len(vs) != 2 {
		return fmt.Errorf("map entry: got %d elements, want 2", len(vs))
	}
	e.Key, e.Value = vs[0], vs[1]
	return nil
}

type Map struct {
	KeyKind   ValueKind
	ValueKind ValueKind
	Entries   []MapEntry
}

type mapFields struct {
	KeyKind   ValueKind  `json:"key_value_kind"`
	ValueKind ValueKind  `json:"value_value_kind"`
	Entries   []MapEntry `json:"entries"`
}

func (Map) Kind() ValueKind { return KindMap }
func (v Map) MarshalJSON() ([]byte, error) {
	f := mapFields(v)
	if f.Entries == nil {
		f.Entries = []MapEntry{}
	}
	return encodeTagged(valueKey, string(KindMap), f)
}
func (v *Map) UnmarshalJSON(b []byte) error {
	var f mapFields
	if err := decodeTagged(b, valueKey, string(KindMap), &f); err != nil {
		return err
	}
	*v = Map(f)
	return nil
}

// Enum is a named variant with positional fields, e.g. "AccessRule::AllowAll".
type Enum struct {
	Variant string
	Fields  Values
}

type enumFields struct {
	Variant string `json:"variant"`
	Fields  Values `json:"fields,omitempty"`
}

func (Enum) Kind() ValueKind { return KindEnum }
func (v Enum) MarshalJSON() ([]byte, error) {
	return encodeTagged(valueKey, string(KindEnum), enumFields(v))
}
func (v *Enum) UnmarshalJSON(b []byte) error {
	var f enumFields
	if err := decodeTagged(b, valueKey, string(KindEnum), &f); err != nil {
		return err
	}
	*v = Enum(f)
	return nil
}
