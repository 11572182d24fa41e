package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"xdao.co/txkit/config"
	"xdao.co/txkit/engine/enginetest"
	"xdao.co/txkit/model"
	"xdao.co/txkit/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "txkit.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFile_DefaultsAndOverrides(t *testing.T) {
	cfg, err := config.LoadFile(writeConfig(t, `{"network_id":"stokenet","header":{"tip_percentage":5}}`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := config.Config{
		NetworkID: "stokenet",
		Header: config.HeaderDefaults{
			EpochWindow:   config.DefaultEpochWindow,
			CostUnitLimit: config.DefaultCostUnitLimit,
			TipPercentage: 5,
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Network() != model.NetworkStokenet {
		t.Fatalf("unexpected network %d", cfg.Network())
	}
}

func TestConfig_Header(t *testing.T) {
	cfg := config.Default()
	notary := enginetest.NotaryKey(1)
	h := cfg.NewHeader(100, 42, notary)
	if h.NetworkID != model.NetworkSimulator || h.StartEpochInclusive != 100 || h.EndEpochExclusive != 110 {
		t.Fatalf("unexpected header %+v", h)
	}
	if h.Version != model.TransactionVersion || h.Nonce != 42 || h.CostUnitLimit != config.DefaultCostUnitLimit {
		t.Fatalf("unexpected header %+v", h)
	}
	if err := h.Validate(); err != nil {
		t.Fatalf("header should validate: %v", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown network":  `{"network_id":"moonnet"}`,
		"unknown field":    `{"network_id":"simulator","colour":"blue"}`,
		"zero window":      `{"header":{"epoch_window":0}}`,
		"no backends":      `{"cas":{"backends":[]}}`,
		"missing name":     `{"cas":{"backends":[{"type":"memory"}]}}`,
		"duplicate name":   `{"cas":{"backends":[{"name":"a","type":"memory"},{"name":"a","type":"memory"}]}}`,
		"localfs no dir":   `{"cas":{"backends":[{"name":"a","type":"localfs"}]}}`,
		"grpc no target":   `{"cas":{"backends":[{"name":"a","type":"grpc"}]}}`,
		"unknown type":     `{"cas":{"backends":[{"name":"a","type":"s3"}]}}`,
		"bad write policy": `{"cas":{"write_policy":"some","backends":[{"name":"a","type":"memory"}]}}`,
		"negative timeout": `{"cas":{"backends":[{"name":"a","type":"grpc","target":"x:1","timeout_ms":-1}]}}`,
		"numeric network":  `{"network_id":1}`,
	}
	for name, body := range cases {
		if _, err := config.Parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestOpenCAS_SingleAndMulti(t *testing.T) {
	ctx := context.Background()

	if _, _, err := config.Default().OpenCAS(ctx); err == nil {
		t.Fatalf("expected an error without a cas section")
	}

	single := config.Default()
	single.CAS = &config.CASConfig{Backends: []config.BackendConfig{{Name: "m", Type: config.BackendMemory}}}
	cas, closeFn, err := single.OpenCAS(ctx)
	if err != nil {
		t.Fatalf("OpenCAS: %v", err)
	}
	if _, ok := cas.(*storage.Memory); !ok {
		t.Fatalf("expected a bare memory backend, got %T", cas)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	dir := t.TempDir()
	multi := config.Default()
	multi.CAS = &config.CASConfig{
		WritePolicy: "all",
		Backends: []config.BackendConfig{
			{Name: "fs", Type: config.BackendLocalFS, Dir: dir},
			{Name: "remote", Type: config.BackendGRPC, Target: "passthrough:///unused:1", TimeoutMS: 50},
			{Name: "kubo", Type: config.BackendIPFS, IPFSPath: filepath.Join(dir, "ipfs")},
		},
	}
	cas, closeFn, err = multi.OpenCAS(ctx)
	if err != nil {
		t.Fatalf("OpenCAS: %v", err)
	}
	m, ok := cas.(storage.MultiCAS)
	if !ok || len(m.Backends) != 3 || m.Policy != storage.WriteAll {
		t.Fatalf("unexpected multi CAS %#v", cas)
	}
	if m.Backends[0].Name != "fs" || m.Backends[1].Name != "remote" || m.Backends[2].Name != "kubo" {
		t.Fatalf("backend order not preserved: %v", m.Backends)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
