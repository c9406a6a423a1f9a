package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Empty Path Returns Defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Listen)
		assert.Equal(t, "./flows", cfg.FlowsDir)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.Redis.Addr)
	})

	t.Run("Full File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
flows_dir: /srv/flows
max_steps: 25
log_level: debug
redis:
  addr: localhost:6379
  db: 2
  session_ttl: 45m
templates:
  retry: "Tente novamente."
departments:
  - id: vendas
    name: Vendas
    strategy: sequential
    operators:
      - id: op-1
        name: Alice
`), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Listen)
		assert.Equal(t, "/srv/flows", cfg.FlowsDir)
		assert.Equal(t, 25, cfg.MaxSteps)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.Equal(t, "Tente novamente.", cfg.Templates.Retry)

		require.Len(t, cfg.Departments, 1)
		assert.Equal(t, "sequential", cfg.Departments[0].Strategy)
		require.Len(t, cfg.Departments[0].Operators, 1)
		assert.Equal(t, "Alice", cfg.Departments[0].Operators[0].Name)

		ttl, err := cfg.Redis.ParseSessionTTL()
		require.NoError(t, err)
		assert.Equal(t, 45*time.Minute, ttl)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("Invalid Session TTL", func(t *testing.T) {
		cfg := RedisConfig{SessionTTL: "sempre"}
		_, err := cfg.ParseSessionTTL()
		assert.Error(t, err)
	})

	t.Run("Unset Session TTL Means No Expiry", func(t *testing.T) {
		ttl, err := RedisConfig{}.ParseSessionTTL()
		require.NoError(t, err)
		assert.Zero(t, ttl)
	})
}

func TestValidateCommand(t *testing.T) {
	writeFlow := func(t *testing.T, dir, name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	const good = `
id: support
name: Atendimento
isActive: true
nodes:
  - id: start
    type: trigger
  - id: bye
    type: end
edges:
  - id: e1
    source: start
    target: bye
`
	const bad = `
id: broken
name: Quebrado
nodes:
  - id: lonely
    type: message
    data:
      label: Olá
`

	t.Run("All Valid", func(t *testing.T) {
		dir := t.TempDir()
		writeFlow(t, dir, "support.yaml", good)
		assert.NoError(t, Validate(dir))
	})

	t.Run("Reports Malformed Flows", func(t *testing.T) {
		dir := t.TempDir()
		writeFlow(t, dir, "support.yaml", good)
		writeFlow(t, dir, "broken.yaml", bad)
		assert.ErrorContains(t, Validate(dir), "1 of 2 flows are malformed")
	})

	t.Run("Missing Directory", func(t *testing.T) {
		assert.Error(t, Validate(filepath.Join(t.TempDir(), "nope")))
	})
}
