package model

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/cloudflare/circl/sign/ed25519"
)

// ErrInvalidSignature reports a signature that does not verify under its key.
var ErrInvalidSignature = errors.New("signature does not verify")

// Verify checks that s signs hash. Secp256k1 signatures carry the recovery id
// in their first byte; the recovered key must equal the compressed public key.
func (s SignatureWithPublicKey) Verify(hash HashedData) error {
	if err := s.Validate(); err != nil {
		return err
	}
	switch s.PublicKey.Curve {
	case CurveEd25519:
		if !ed25519.Verify(ed25519.PublicKey(s.PublicKey.Bytes), hash[:], s.Signature.Bytes) {
			return ErrInvalidSignature
		}
		return nil
	case CurveSecp256k1:
		recID := s.Signature.Bytes[0]
		if recID > 3 {
			return fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, recID)
		}
		compact := make([]byte, len(s.Signature.Bytes))
		compact[0] = recID + 27 + 4
		copy(compact[1:], s.Signature.Bytes[1:])
		pub, compressed, err := ecdsa.RecoverCompact(compact, hash[:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		if !compressed || !bytes.Equal(pub.SerializeCompressed(), s.PublicKey.Bytes) {
			return ErrInvalidSignature
		}
		return nil
	}
	return fmt.Errorf("signature: unknown curve %q", s.PublicKey.Curve)
}
