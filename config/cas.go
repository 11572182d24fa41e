package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"

	"xdao.co/txkit/storage"
	"xdao.co/txkit/storage/grpccas"
	"xdao.co/txkit/storage/ipfs"
	"xdao.co/txkit/storage/localfs"
)

// Backend types accepted in cas.backends[].type.
const (
	BackendMemory  = "memory"
	BackendLocalFS = "localfs"
	BackendGRPC    = "grpc"
	BackendIPFS    = "ipfs"
)

// CASConfig selects the envelope archive backends.
//
// WritePolicy values:
//   - "first" (default): write only to the first backend; reads fall back in order
//   - "all": write to all backends and require CID equality
type CASConfig struct {
	WritePolicy string          `json:"write_policy,omitempty"`
	Backends    []BackendConfig `json:"backends"`
}

type BackendConfig struct {
	// Name identifies the backend in logs and per-backend CID maps.
	Name string `json:"name"`
	Type string `json:"type"`

	// localfs
	Dir string `json:"dir,omitempty"`

	// ipfs
	Bin      string `json:"bin,omitempty"`
	IPFSPath string `json:"ipfs_path,omitempty"`

	// grpc
	Target      string `json:"target,omitempty"`
	TimeoutMS   int    `json:"timeout_ms,omitempty"`
	MaxMsgBytes int    `json:"max_msg_bytes,omitempty"`
}

func (c CASConfig) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("config: cas: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("config: cas: backend name is required")
		}
		if _, ok := seen[b.Name]; ok {
			return fmt.Errorf("config: cas: duplicate backend name %q", b.Name)
		}
		seen[b.Name] = struct{}{}

		switch b.Type {
		case BackendMemory:
		case BackendLocalFS:
			if b.Dir == "" {
				return fmt.Errorf("config: cas: backend %q: dir is required", b.Name)
			}
		case BackendGRPC:
			if b.Target == "" {
				return fmt.Errorf("config: cas: backend %q: target is required", b.Name)
			}
			if b.TimeoutMS < 0 || b.MaxMsgBytes < 0 {
				return fmt.Errorf("config: cas: backend %q: negative limit", b.Name)
			}
		case BackendIPFS:
		default:
			return fmt.Errorf("config: cas: backend %q: unknown type %q", b.Name, b.Type)
		}
	}
	switch storage.WritePolicy(c.WritePolicy) {
	case "", storage.WriteFirst, storage.WriteAll:
		return nil
	default:
		return fmt.Errorf("config: cas: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens every backend in order. A single backend is returned as is;
// several are combined into a storage.MultiCAS. The returned closer releases
// all backends and reports every close error.
func (c CASConfig) Open(ctx context.Context) (storage.CAS, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	named := make([]storage.NamedCAS, 0, len(c.Backends))
	closers := make([]func() error, 0, len(c.Backends))
	closeAll := func() error {
		var result *multierror.Error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				result = multierror.Append(result, err)
			}
		}
		return result.ErrorOrNil()
	}

	for _, b := range c.Backends {
		if err := ctx.Err(); err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		cas, closeFn, err := openBackend(b)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("config: cas: backend %q: %w", b.Name, err)
		}
		named = append(named, storage.NamedCAS{Name: b.Name, CAS: cas})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	if len(named) == 1 {
		return named[0].CAS, closeAll, nil
	}
	return storage.MultiCAS{Backends: named, Policy: storage.WritePolicy(c.WritePolicy)}, closeAll, nil
}

func openBackend(b BackendConfig) (storage.CAS, func() error, error) {
	switch b.Type {
	case BackendMemory:
		return storage.NewMemory(), nil, nil
	case BackendLocalFS:
		cas, err := localfs.New(b.Dir)
		if err != nil {
			return nil, nil, err
		}
		return cas, nil, nil
	case BackendIPFS:
		opts := ipfs.Options{Bin: b.Bin}
		if b.IPFSPath != "" {
			opts.Env = append(os.Environ(), "IPFS_PATH="+b.IPFSPath)
		}
		return ipfs.New(opts), nil, nil
	case BackendGRPC:
		client, err := grpccas.Dial(b.Target, grpccas.DialOptions{MaxMsgBytes: b.MaxMsgBytes})
		if err != nil {
			return nil, nil, err
		}
		client.Timeout = time.Duration(b.TimeoutMS) * time.Millisecond
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown type %q", b.Type)
	}
}

// OpenCAS opens the configured archive. It fails when the file configures none.
func (c Config) OpenCAS(ctx context.Context) (storage.CAS, func() error, error) {
	if c.CAS == nil {
		return nil, nil, errors.New("config: no cas section configured")
	}
	return c.CAS.Open(ctx)
}
