package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/txkit/model"
	"xdao.co/txkit/txn"
)

// KeyStore is a local-first key store.
//
// EXPERIMENTAL: this filesystem-backed storage surface is not part of the
// stable API and may change in minor releases.
//
// Each key file holds one line, "<curve> <seed hex>". Role keys are derived
// from a root key and use the root key's curve.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Identifier string
	Curve      model.Curve
	Roles      []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".txkit", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) roleKeyPath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func checkName(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

func CheckKeyName(identifier string) error { return checkName("identifier", identifier) }
func CheckRole(role string) error          { return checkName("role", role) }

// ParseSeedHex decodes a 32-byte seed, tolerating surrounding space and a 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

func parseCurve(s string) (model.Curve, error) {
	switch c := model.Curve(s); {
	case c.Valid():
		return c, nil
	case strings.EqualFold(s, "ed25519"):
		return model.CurveEd25519, nil
	case strings.EqualFold(s, "secp256k1"):
		return model.CurveSecp256k1, nil
	default:
		return "", fmt.Errorf("unknown curve %q", s)
	}
}

// ParseCurve accepts a wire curve name or its short form ("ed25519", "secp256k1").
func ParseCurve(s string) (model.Curve, error) { return parseCurve(strings.TrimSpace(s)) }

func (ks *KeyStore) saveKey(filePath string, curve model.Curve, seed []byte, overwrite bool) error {
	if _, err := NewSigner(curve, seed); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := fmt.Fprintf(file, "%s %s\n", curve, hex.EncodeToString(seed)); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadKey(filePath string) (model.Curve, []byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", nil, err
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return "", nil, fmt.Errorf("%s: expected \"<curve> <seed hex>\"", filePath)
	}
	curve, err := parseCurve(fields[0])
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", filePath, err)
	}
	seed, err := ParseSeedHex(fields[1])
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return curve, seed, nil
}

func (ks *KeyStore) keyPath(identifier, role string) (string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return "", err
	}
	if role == "" {
		return ks.rootKeyPath(identifier), nil
	}
	if err := CheckRole(role); err != nil {
		return "", err
	}
	return ks.roleKeyPath(identifier, role), nil
}

// InitializeRootKey stores seed as the root key of identifier.
func (ks *KeyStore) InitializeRootKey(identifier string, curve model.Curve, seed []byte, overwrite bool) (model.PublicKey, string, error) {
	filePath, err := ks.keyPath(identifier, "")
	if err != nil {
		return model.PublicKey{}, "", err
	}
	if err := ks.saveKey(filePath, curve, seed, overwrite); err != nil {
		return model.PublicKey{}, "", err
	}
	s, err := NewSigner(curve, seed)
	if err != nil {
		return model.PublicKey{}, "", err
	}
	return s.PublicKey(), filePath, nil
}

// DeriveKeyFromRole derives and stores the role key of from.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (model.PublicKey, string, error) {
	rootPath, err := ks.keyPath(from, "")
	if err != nil {
		return model.PublicKey{}, "", err
	}
	if err := CheckRole(role); err != nil {
		return model.PublicKey{}, "", err
	}
	curve, rootSeed, err := ks.loadKey(rootPath)
	if err != nil {
		return model.PublicKey{}, "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return model.PublicKey{}, "", err
	}
	filePath := ks.roleKeyPath(from, role)
	if err := ks.saveKey(filePath, curve, roleSeed, overwrite); err != nil {
		return model.PublicKey{}, "", err
	}
	s, err := NewSigner(curve, roleSeed)
	if err != nil {
		return model.PublicKey{}, "", err
	}
	return s.PublicKey(), filePath, nil
}

// ExportKey returns the public key of identifier, or of its role key when
// role is set.
func (ks *KeyStore) ExportKey(identifier, role string) (model.PublicKey, error) {
	s, err := ks.Signer(identifier, role)
	if err != nil {
		return model.PublicKey{}, err
	}
	return s.PublicKey(), nil
}

// Signer loads the signer for identifier, or for its role key when role is set.
func (ks *KeyStore) Signer(identifier, role string) (txn.Signer, error) {
	filePath, err := ks.keyPath(identifier, role)
	if err != nil {
		return nil, err
	}
	return ks.signerFromFile(filePath)
}

func (ks *KeyStore) signerFromFile(filePath string) (txn.Signer, error) {
	curve, seed, err := ks.loadKey(filePath)
	if err != nil {
		return nil, err
	}
	return NewSigner(curve, seed)
}

// LoadSigner resolves a signer from, in order: an explicit seed, a key file,
// or a stored key name and optional role.
func (ks *KeyStore) LoadSigner(curve model.Curve, seedHex, signerName, signerRole, keyFile string) (txn.Signer, error) {
	if seedHex != "" {
		seed, err := ParseSeedHex(seedHex)
		if err != nil {
			return nil, err
		}
		return NewSigner(curve, seed)
	}
	if keyFile != "" {
		return ks.signerFromFile(keyFile)
	}
	if signerName != "" {
		return ks.Signer(signerName, signerRole)
	}
	return nil, errors.New("no signer provided")
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		curve, _, err := ks.loadKey(ks.rootKeyPath(identifier))
		if err != nil {
			continue
		}
		var roles []string
		if roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, identifier, "roles")); rerr == nil {
			for _, roleEntry := range roleEntries {
				if !roleEntry.IsDir() && strings.HasSuffix(roleEntry.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(roleEntry.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Identifier: identifier, Curve: curve, Roles: roles})
	}
	return result, nil
}
