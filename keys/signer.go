package keys

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/cloudflare/circl/sign/ed25519"

	"xdao.co/txkit/model"
	"xdao.co/txkit/txn"
)

// Ed25519Signer signs the double blake2b hash of a message with Ed25519.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  model.PublicKey
}

// NewEd25519Signer returns the signer for a 32-byte seed.
func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Ed25519Signer{
		priv: priv,
		pub:  model.PublicKey{Curve: model.CurveEd25519, Bytes: append(model.HexBytes(nil), pub...)},
	}, nil
}

// GenerateEd25519Signer returns a signer for a fresh key read from rand.
func GenerateEd25519Signer(rand io.Reader) (*Ed25519Signer, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand, seed); err != nil {
		return nil, err
	}
	return NewEd25519Signer(seed)
}

func (s *Ed25519Signer) PublicKey() model.PublicKey { return s.pub }

func (s *Ed25519Signer) Sign(msg []byte) (model.HashedData, model.SignatureWithPublicKey, error) {
	hash := model.HashOf(msg)
	sig := ed25519.Sign(s.priv, hash[:])
	out, err := model.NewSignatureWithPublicKey(s.pub, model.Signature{Curve: model.CurveEd25519, Bytes: sig})
	return hash, out, err
}

// Secp256k1Signer signs the double blake2b hash of a message with recoverable
// ECDSA. Signatures are 65 bytes: the recovery id followed by r and s.
type Secp256k1Signer struct {
	priv *btcec.PrivateKey
	pub  model.PublicKey
}

// NewSecp256k1Signer returns the signer for a 32-byte secret scalar.
func NewSecp256k1Signer(secret []byte) (*Secp256k1Signer, error) {
	if len(secret) != SeedSize {
		return nil, fmt.Errorf("secp256k1 secret must be %d bytes, got %d", SeedSize, len(secret))
	}
	priv, pub := btcec.PrivKeyFromBytes(secret)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("secp256k1 secret is not a valid scalar")
	}
	return &Secp256k1Signer{
		priv: priv,
		pub:  model.PublicKey{Curve: model.CurveSecp256k1, Bytes: pub.SerializeCompressed()},
	}, nil
}

// GenerateSecp256k1Signer returns a signer for a fresh key.
func GenerateSecp256k1Signer() (*Secp256k1Signer, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return NewSecp256k1Signer(priv.Serialize())
}

func (s *Secp256k1Signer) PublicKey() model.PublicKey { return s.pub }

func (s *Secp256k1Signer) Sign(msg []byte) (model.HashedData, model.SignatureWithPublicKey, error) {
	hash := model.HashOf(msg)
	compact, err := ecdsa.SignCompact(s.priv, hash[:], true)
	if err != nil {
		return hash, model.SignatureWithPublicKey{}, err
	}
	// compact[0] is 27 + recovery id + 4 for a compressed key.
	sig := make([]byte, len(compact))
	sig[0] = compact[0] - 27 - 4
	copy(sig[1:], compact[1:])
	out, err := model.NewSignatureWithPublicKey(s.pub, model.Signature{Curve: model.CurveSecp256k1, Bytes: sig})
	return hash, out, err
}

// NewSigner returns the signer for seed on curve.
func NewSigner(curve model.Curve, seed []byte) (txn.Signer, error) {
	switch curve {
	case model.CurveEd25519:
		s, err := NewEd25519Signer(seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	case model.CurveSecp256k1:
		s, err := NewSecp256k1Signer(seed)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", curve)
	}
}

var (
	_ txn.Signer = (*Ed25519Signer)(nil)
	_ txn.Signer = (*Secp256k1Signer)(nil)
)
