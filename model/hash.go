package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashLength is the byte length of HashedData.
const HashLength = 32

// IncorrectByteCountError reports a byte buffer of the wrong length.
type IncorrectByteCountError struct {
	Got      int
	Expected int
}

func (e *IncorrectByteCountError) Error() string {
	return fmt.Sprintf("incorrect byte count: got %d, expected %d", e.Got, e.Expected)
}

// HashedData is a 32-byte digest.
type HashedData [HashLength]byte

// NewHashedData copies b into a HashedData.
func NewHashedData(b []byte) (HashedData, error) {
	var h HashedData
	if len(b) != HashLength {
		return h, &IncorrectByteCountError{Got: len(b), Expected: HashLength}
	}
	copy(h[:], b)
	return h, nil
}

// HashedDataFromHex parses a hex encoded 32-byte digest.
func HashedDataFromHex(s string) (HashedData, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return HashedData{}, fmt.Errorf("hashed data: %w", err)
	}
	return NewHashedData(b)
}

// HashOf returns blake2b-256(blake2b-256(data)), the digest signed over
// compiled intents.
func HashOf(data []byte) HashedData {
	first := blake2b.Sum256(data)
	return HashedData(blake2b.Sum256(first[:]))
}

func (h HashedData) Bytes() []byte {
	out := make([]byte, HashLength)
	copy(out, h[:])
	return out
}

func (h HashedData) Hex() string    { return hex.EncodeToString(h[:]) }
func (h HashedData) String() string { return h.Hex() }
func (h HashedData) IsZero() bool   { return h == HashedData{} }

func (h HashedData) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *HashedData) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hashed data: %w", err)
	}
	parsed, err := HashedDataFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
