package model

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// HexBytes is a byte buffer encoded as a lowercase hex JSON string.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex bytes: %w", err)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("hex bytes: %w", err)
	}
	*b = raw
	return nil
}

func (b HexBytes) String() string { return hex.EncodeToString(b) }

func marshalDecimal(v uint64) ([]byte, error) {
	return json.Marshal(strconv.FormatUint(v, 10))
}

func unmarshalDecimal(data []byte, bitSize int, what string) (uint64, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("%s must be a decimal string: %w", what, err)
	}
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return v, nil
}

// encodeTagged renders payload as a JSON object whose first key is the
// discriminator key set to tag.
func encodeTagged(key, tag string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	k, _ := json.Marshal(key)
	t, _ := json.Marshal(tag)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(t)

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.TrimSpace(body)
		if len(body) < 2 || body[0] != '{' || body[len(body)-1] != '}' {
			return nil, fmt.Errorf("%s %q: payload is not a JSON object", key, tag)
		}
		inner := bytes.TrimSpace(body[1 : len(body)-1])
		if len(inner) > 0 {
			buf.WriteByte(',')
			buf.Write(inner)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// readTag returns the string value of the discriminator key in a JSON object.
func readTag(data []byte, key string) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", err
	}
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing discriminator %q", key)
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return "", fmt.Errorf("discriminator %q: %w", key, err)
	}
	return tag, nil
}

// decodeTagged checks that the discriminator matches want and decodes the
// remaining fields into payload.
func decodeTagged(data []byte, key, want string, payload any) error {
	tag, err := readTag(data, key)
	if err != nil {
		return err
	}
	if tag != want {
		return fmt.Errorf("%s: got %q, want %q", key, tag, want)
	}
	if payload == nil {
		return nil
	}
	return json.Unmarshal(data, payload)
}
