package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/txkit/cidutil"
)

// Memory is an in-process CAS. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

var _ CAS = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{objects: map[cid.Cid][]byte{}} }

func (m *Memory) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[id]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	m.objects[id] = append([]byte(nil), data...)
	return id, nil
}

func (m *Memory) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	b, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !id.Defined() {
		return false, nil
	}
	m.mu.RLock()
	_, ok := m.objects[id]
	m.mu.RUnlock()
	return ok, nil
}
