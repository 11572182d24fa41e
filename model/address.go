package model

import "strings"

// AccountAddressPrefix is the human readable part shared by account component
// addresses on every network.
const AccountAddressPrefix = "account_"

// AccountAddress is the bech32m address of an account component.
type AccountAddress string

// AsAccount reports whether the component address is an account.
func (c ComponentAddress) AsAccount() (AccountAddress, bool) {
	if !strings.HasPrefix(c.Address, AccountAddressPrefix) {
		return "", false
	}
	return AccountAddress(c.Address), true
}

// EntityAccount extracts an account address from a polymorphic entity address
// value.
func EntityAccount(v Value) (AccountAddress, bool) {
	switch a := v.(type) {
	case ComponentAddress:
		return a.AsAccount()
	case AnyValue:
		return EntityAccount(a.Value)
	}
	return "", false
}

// EntityAddress identifies an addressable entity in address conversion
// requests.
type EntityAddress struct {
	Kind    ValueKind `json:"type"`
	Address string    `json:"address"`
}
