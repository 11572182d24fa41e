package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"xdao.co/txkit/model"
)

// ParsePublicKey parses the "<curve>:<hex>" form produced by
// model.PublicKey.String.
func ParsePublicKey(s string) (model.PublicKey, error) {
	curveName, keyHex, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return model.PublicKey{}, fmt.Errorf("public key must be <curve>:<hex>, got %q", s)
	}
	curve, err := ParseCurve(curveName)
	if err != nil {
		return model.PublicKey{}, err
	}
	b, err := hex.DecodeString(keyHex)
	if err != nil {
		return model.PublicKey{}, fmt.Errorf("public key hex: %w", err)
	}
	pk := model.PublicKey{Curve: curve, Bytes: b}
	if err := pk.Validate(); err != nil {
		return model.PublicKey{}, err
	}
	return pk, nil
}
