package model

import (
	"encoding/json"
	"fmt"
)

// Curve tags public keys and signatures.
type Curve string

const (
	CurveSecp256k1 Curve = "EcdsaSecp256k1"
	CurveEd25519   Curve = "EddsaEd25519"
)

const curveKey = "curve"

// PublicKeyLength returns the encoded public key size for the curve.
func (c Curve) PublicKeyLength() int {
	switch c {
	case CurveSecp256k1:
		return 33
	case CurveEd25519:
		return 32
	}
	return 0
}

// SignatureLength returns the encoded signature size for the curve.
func (c Curve) SignatureLength() int {
	switch c {
	case CurveSecp256k1:
		return 65
	case CurveEd25519:
		return 64
	}
	return 0
}

func (c Curve) Valid() bool { return c == CurveSecp256k1 || c == CurveEd25519 }

// PublicKey is a curve-tagged public key.
type PublicKey struct {
	Curve Curve
	Bytes HexBytes
}

func (k PublicKey) Validate() error {
	if !k.Curve.Valid() {
		return fmt.Errorf("public key: unknown curve %q", k.Curve)
	}
	if len(k.Bytes) != k.Curve.PublicKeyLength() {
		return &IncorrectByteCountError{Got: len(k.Bytes), Expected: k.Curve.PublicKeyLength()}
	}
	return nil
}

func (k PublicKey) Equal(o PublicKey) bool {
	return k.Curve == o.Curve && string(k.Bytes) == string(o.Bytes)
}

func (k PublicKey) String() string { return string(k.Curve) + ":" + k.Bytes.String() }

type publicKeyFields struct {
	PublicKey HexBytes `json:"public_key"`
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return encodeTagged(curveKey, string(k.Curve), publicKeyFields{PublicKey: k.Bytes})
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	tag, err := readTag(data, curveKey)
	if err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	var f publicKeyFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	out := PublicKey{Curve: Curve(tag), Bytes: f.PublicKey}
	if err := out.Validate(); err != nil {
		return err
	}
	*k = out
	return nil
}

// Signature is a curve-tagged signature without its public key.
type Signature struct {
	Curve Curve
	Bytes HexBytes
}

func (s Signature) Validate() error {
	if !s.Curve.Valid() {
		return fmt.Errorf("signature: unknown curve %q", s.Curve)
	}
	if len(s.Bytes) != s.Curve.SignatureLength() {
		return &IncorrectByteCountError{Got: len(s.Bytes), Expected: s.Curve.SignatureLength()}
	}
	return nil
}

type signatureFields struct {
	Signature HexBytes `json:"signature"`
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return encodeTagged(curveKey, string(s.Curve), signatureFields{Signature: s.Bytes})
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	tag, err := readTag(data, curveKey)
	if err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	var f signatureFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	out := Signature{Curve: Curve(tag), Bytes: f.Signature}
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}

// SignatureWithPublicKey pairs a signature with the key that produced it.
// Both halves carry the same curve.
type SignatureWithPublicKey struct {
	PublicKey PublicKey
	Signature Signature
}

// NewSignatureWithPublicKey validates that key and sig share a curve.
func NewSignatureWithPublicKey(key PublicKey, sig Signature) (SignatureWithPublicKey, error) {
	out := SignatureWithPublicKey{PublicKey: key, Signature: sig}
	return out, out.Validate()
}

func (s SignatureWithPublicKey) Curve() Curve { return s.PublicKey.Curve }

func (s SignatureWithPublicKey) Validate() error {
	if s.PublicKey.Curve != s.Signature.Curve {
		return fmt.Errorf("signature with public key: curve mismatch %q vs %q", s.PublicKey.Curve, s.Signature.Curve)
	}
	if err := s.PublicKey.Validate(); err != nil {
		return err
	}
	return s.Signature.Validate()
}

type signatureWithPublicKeyFields struct {
	PublicKey HexBytes `json:"public_key"`
	Signature HexBytes `json:"signature"`
}

func (s SignatureWithPublicKey) MarshalJSON() ([]byte, error) {
	if s.PublicKey.Curve != s.Signature.Curve {
		return nil, fmt.Errorf("signature with public key: curve mismatch %q vs %q", s.PublicKey.Curve, s.Signature.Curve)
	}
	return encodeTagged(curveKey, string(s.PublicKey.Curve), signatureWithPublicKeyFields{
		PublicKey: s.PublicKey.Bytes,
		Signature: s.Signature.Bytes,
	})
}

func (s *SignatureWithPublicKey) UnmarshalJSON(data []byte) error {
	tag, err := readTag(data, curveKey)
	if err != nil {
		return fmt.Errorf("signature with public key: %w", err)
	}
	var f signatureWithPublicKeyFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("signature with public key: %w", err)
	}
	out := SignatureWithPublicKey{
		PublicKey: PublicKey{Curve: Curve(tag), Bytes: f.PublicKey},
		Signature: Signature{Curve: Curve(tag), Bytes: f.Signature},
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}
