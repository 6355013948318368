package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pipeline"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"FLIC_TOKEN", "API_BASE_URL", "RESONANCE_ALGORITHM", "PAGE_SIZE",
		"OPENAI_API_KEY", "DATABASE_DSN", "REDIS_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, core.DefaultEngineConfig(), cfg.Engine)
	assert.Equal(t, 5, cfg.Enrich.Workers)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
engine:
  neighbor_count: 5
  default_k: 20
upstream:
  base_url: http://yaml
  page_size: 50
`), 0o600))

	t.Setenv("API_BASE_URL", "http://env/")
	t.Setenv("FLIC_TOKEN", "secret")
	t.Setenv("DATABASE_DSN", "file::memory:")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Engine.NeighborCount)
	assert.Equal(t, 20, cfg.Engine.DefaultK)
	assert.Equal(t, 0.6, cfg.Engine.CollaborativeWeight)
	assert.Equal(t, "http://env", cfg.Upstream.BaseURL)
	assert.Equal(t, 50, cfg.Upstream.PageSize)
	assert.Equal(t, "secret", cfg.Upstream.FlicToken)
	assert.Equal(t, BackendSQL, cfg.Store.Backend)
}

func TestLoadInvalidPageSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAGE_SIZE", "many")
	_, err := Load("")
	assert.Error(t, err)
}

func TestRequireUpstream(t *testing.T) {
	cfg := Default()
	err := cfg.RequireUpstream()
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "FLIC_TOKEN, API_BASE_URL, RESONANCE_ALGORITHM")

	cfg.Upstream.FlicToken = "t"
	cfg.Upstream.BaseURL = "http://x"
	cfg.Upstream.ResonanceAlgorithm = "algo"
	assert.NoError(t, cfg.RequireUpstream())
}

func TestRegistry(t *testing.T) {
	Register("test.noop", func(map[string]any) (pipeline.Node, error) { return nil, nil })
	Register("", nil)
	assert.Contains(t, SupportedTypes(), "test.noop")

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "test.noop"}}
	assert.NoError(t, ValidatePipelineConfig(cfg))

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "rank.unknown"})
	err := ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank.unknown")
}
