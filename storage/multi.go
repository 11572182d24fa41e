package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
)

// WritePolicy selects which backends of a MultiCAS receive writes.
type WritePolicy string

const (
	// WriteFirst writes to the first backend only.
	WriteFirst WritePolicy = "first"
	// WriteAll writes to every backend and requires them to agree on the CID.
	WriteAll WritePolicy = "all"
)

// NamedCAS associates a CAS with a stable backend name.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// MultiCAS combines backends with deterministic, ordered read fallback.
// Callers MUST supply a fixed backend order.
type MultiCAS struct {
	Backends []NamedCAS
	Policy   WritePolicy
}

var _ CAS = MultiCAS{}

// PutAll writes data per the write policy and returns the CID each backend
// reported. Any backend disagreeing with the locally computed CID fails the
// write with ErrCIDMismatch.
func (m MultiCAS) PutAll(ctx context.Context, data []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(m.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}
	want, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, nil, err
	}

	targets := m.Backends
	switch m.Policy {
	case "", WriteFirst:
		targets = targets[:1]
	case WriteAll:
	default:
		return cid.Undef, nil, fmt.Errorf("storage: invalid write policy %q", m.Policy)
	}

	out := make(map[string]cid.Cid, len(targets))
	for _, b := range targets {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(ctx, data)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (m MultiCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, _, err := m.PutAll(ctx, data)
	return id, err
}

// Get returns the object from the first backend that has it. Errors other
// than ErrNotFound stop the search.
func (m MultiCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	for _, b := range m.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(ctx, id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, fmt.Errorf("storage: backend %q: %w", b.Name, err)
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	for _, b := range m.Backends {
		if b.CAS == nil {
			continue
		}
		ok, err := b.CAS.Has(ctx, id)
		if err != nil {
			return false, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
