package model

import "strconv"

// NetworkID identifies a ledger network. On the wire it is a decimal string.
type NetworkID uint8

const (
	NetworkMainnet    NetworkID = 0x01
	NetworkStokenet   NetworkID = 0x02
	NetworkAdapanet   NetworkID = 0x0a
	NetworkNebunet    NetworkID = 0x0b
	NetworkGilganet   NetworkID = 0x20
	NetworkEnkinet    NetworkID = 0x21
	NetworkHammunet   NetworkID = 0x22
	NetworkNergalnet  NetworkID = 0x23
	NetworkMardunet   NetworkID = 0x24
	NetworkLocalnet   NetworkID = 0xf0
	NetworkInttestnet NetworkID = 0xf1
	NetworkSimulator  NetworkID = 0xf2
)

var networkNames = map[NetworkID]string{
	NetworkMainnet:    "mainnet",
	NetworkStokenet:   "stokenet",
	NetworkAdapanet:   "adapanet",
	NetworkNebunet:    "nebunet",
	NetworkGilganet:   "gilganet",
	NetworkEnkinet:    "enkinet",
	NetworkHammunet:   "hammunet",
	NetworkNergalnet:  "nergalnet",
	NetworkMardunet:   "mardunet",
	NetworkLocalnet:   "localnet",
	NetworkInttestnet: "inttestnet",
	NetworkSimulator:  "simulator",
}

// Name returns the well-known network name, or the decimal id for unknown
// networks.
func (n NetworkID) Name() string {
	if name, ok := networkNames[n]; ok {
		return name
	}
	return strconv.FormatUint(uint64(n), 10)
}

// ParseNetwork accepts a well-known network name or a decimal id.
func ParseNetwork(s string) (NetworkID, bool) {
	for id, name := range networkNames {
		if name == s {
			return id, true
		}
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return NetworkID(v), true
}

func (n NetworkID) MarshalJSON() ([]byte, error) { return marshalDecimal(uint64(n)) }

func (n *NetworkID) UnmarshalJSON(data []byte) error {
	v, err := unmarshalDecimal(data, 8, "network id")
	if err != nil {
		return err
	}
	*n = NetworkID(v)
	return nil
}

// Epoch is a ledger epoch number.
type Epoch uint64

func (e Epoch) MarshalJSON() ([]byte, error) { return marshalDecimal(uint64(e)) }

func (e *Epoch) UnmarshalJSON(data []byte) error {
	v, err := unmarshalDecimal(data, 64, "epoch")
	if err != nil {
		return err
	}
	*e = Epoch(v)
	return nil
}

// Nonce distinguishes otherwise identical intents.
type Nonce uint64

func (n Nonce) MarshalJSON() ([]byte, error) { return marshalDecimal(uint64(n)) }

func (n *Nonce) UnmarshalJSON(data []byte) error {
	v, err := unmarshalDecimal(data, 64, "nonce")
	if err != nil {
		return err
	}
	*n = Nonce(v)
	return nil
}

// Uint32 is a uint32 carried as a decimal string.
type Uint32 uint32

func (u Uint32) MarshalJSON() ([]byte, error) { return marshalDecimal(uint64(u)) }

func (u *Uint32) UnmarshalJSON(data []byte) error {
	v, err := unmarshalDecimal(data, 32, "u32")
	if err != nil {
		return err
	}
	*u = Uint32(v)
	return nil
}

// Uint8 is a uint8 carried as a decimal string.
type Uint8 uint8

func (u Uint8) MarshalJSON() ([]byte, error) { return marshalDecimal(uint64(u)) }

func (u *Uint8) UnmarshalJSON(data []byte) error {
	v, err := unmarshalDecimal(data, 8, "u8")
	if err != nil {
		return err
	}
	*u = Uint8(v)
	return nil
}
