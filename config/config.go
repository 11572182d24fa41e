// Package config loads txkit.json: the target network, transaction header
// defaults and the CAS backends used to archive envelopes.
//
// Example:
//
//	{
//	  "network_id": "simulator",
//	  "debug": false,
//	  "header": {"epoch_window": 10, "cost_unit_limit": 100000000, "tip_percentage": 0},
//	  "cas": {
//	    "write_policy": "all",
//	    "backends": [
//	      {"name": "local", "type": "localfs", "dir": "/var/lib/txkit/cas"},
//	      {"name": "shared", "type": "grpc", "target": "cas.internal:7777", "timeout_ms": 2000},
//	      {"name": "kubo", "type": "ipfs", "ipfs_path": "/var/lib/ipfs"}
//	    ]
//	  }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"xdao.co/txkit/model"
)

const (
	DefaultEpochWindow   = 10
	DefaultCostUnitLimit = 100_000_000
)

// Config is the decoded txkit.json.
type Config struct {
	NetworkID string         `json:"network_id"`
	Debug     bool           `json:"debug,omitempty"`
	Header    HeaderDefaults `json:"header"`
	CAS       *CASConfig     `json:"cas,omitempty"`
}

// HeaderDefaults fill the header fields a caller does not pass explicitly.
type HeaderDefaults struct {
	EpochWindow   uint64 `json:"epoch_window,omitempty"`
	CostUnitLimit uint32 `json:"cost_unit_limit,omitempty"`
	TipPercentage uint32 `json:"tip_percentage,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		NetworkID: model.NetworkSimulator.Name(),
		Header: HeaderDefaults{
			EpochWindow:   DefaultEpochWindow,
			CostUnitLimit: DefaultCostUnitLimit,
		},
	}
}

// LoadFile reads and validates the config at path. Fields absent from the
// file keep their Default values.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, ok := model.ParseNetwork(c.NetworkID); !ok {
		return fmt.Errorf("config: unknown network_id %q", c.NetworkID)
	}
	if c.Header.EpochWindow == 0 {
		return errors.New("config: header.epoch_window must be positive")
	}
	if c.CAS != nil {
		if err := c.CAS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Network returns the configured network. Validate must have succeeded.
func (c Config) Network() model.NetworkID {
	id, _ := model.ParseNetwork(c.NetworkID)
	return id
}

// NewHeader builds a transaction header for the configured network whose epoch
// range starts at startEpoch and spans the configured window.
func (c Config) NewHeader(startEpoch model.Epoch, nonce model.Nonce, notary model.PublicKey) model.TransactionHeader {
	return model.TransactionHeader{
		Version:             model.TransactionVersion,
		NetworkID:           c.Network(),
		StartEpochInclusive: startEpoch,
		EndEpochExclusive:   startEpoch + model.Epoch(c.Header.EpochWindow),
		Nonce:               nonce,
		NotaryPublicKey:     notary,
		CostUnitLimit:       model.Uint32(c.Header.CostUnitLimit),
		TipPercentage:       model.Uint32(c.Header.TipPercentage),
	}
}
