package keys

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SeedSize is the length of every stored seed, for both curves.
const SeedSize = 32

const roleKDFDomain = "txkit-keystore-v1"

// DeriveRoleSeed deterministically derives a role-specific seed from a root
// seed with HKDF-SHA256. The derived seed is used with the root key's curve.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	kdf := hkdf.New(sha256.New, rootSeed, []byte(roleKDFDomain), []byte("role:"+role))
	out := make([]byte, SeedSize)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, fmt.Errorf("derive role seed: %w", err)
	}
	return out, nil
}
