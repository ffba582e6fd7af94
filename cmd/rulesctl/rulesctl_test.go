package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlepin/internal/rules"
	rulesstore "candlepin/internal/rules/store/memory"
	dErrors "candlepin/pkg/domain-errors"
)

const sampleRules = `-- version: 6.1
function consumer_capacity(ctx)
  return { sockets = ctx.derived.sockets + 1 }
end
`

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func executeCommand(args ...string) (string, error) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("reports version and functions", func(t *testing.T) {
		out, err := executeCommand("validate", writeRules(t, sampleRules))
		require.NoError(t, err)
		assert.Contains(t, out, "6.1")
		assert.Contains(t, out, "consumer_capacity")
	})

	t.Run("rejects a file without a version header", func(t *testing.T) {
		_, err := executeCommand("validate", writeRules(t, "function f() end\n"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects rules that do not compile", func(t *testing.T) {
		_, err := executeCommand("validate", writeRules(t, "-- version: 1.0\nfunction f(\n"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeRuleParse))
	})
}

func TestInvokeCommand(t *testing.T) {
	path := writeRules(t, sampleRules)

	t.Run("prints the function result", func(t *testing.T) {
		out, err := executeCommand("invoke", path, "consumer_capacity", "--context", `{"derived":{"sockets":2}}`)
		require.NoError(t, err)
		assert.JSONEq(t, `{"sockets":3}`, out)
	})

	t.Run("undefined functions print null", func(t *testing.T) {
		out, err := executeCommand("invoke", path, "missing")
		require.NoError(t, err)
		assert.Equal(t, "null\n", out)
	})

	t.Run("invalid context", func(t *testing.T) {
		_, err := executeCommand("invoke", path, "consumer_capacity", "--context", "{")
		assert.ErrorContains(t, err, "not valid JSON")
	})
}

func TestPublishCommand(t *testing.T) {
	store := rulesstore.NewInMemory()
	original := openStore
	openStore = func(context.Context, string) (rules.Store, func(), error) {
		return store, func() {}, nil
	}
	t.Cleanup(func() { openStore = original })

	t.Setenv("REDIS_URL", "")
	path := writeRules(t, sampleRules)

	t.Run("requires a database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := executeCommand("publish", path)
		assert.ErrorContains(t, err, "--database-url")
	})

	t.Run("stores the rules", func(t *testing.T) {
		out, err := executeCommand("publish", path, "--database-url", "postgres://test", "--version", "6.1")
		require.NoError(t, err)
		assert.Contains(t, out, "published rules 6.1")

		stored, err := store.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "6.1", stored.Version)
	})

	t.Run("version flag must match the header", func(t *testing.T) {
		_, err := executeCommand("publish", path, "--database-url", "postgres://test", "--version", "7.0")
		assert.ErrorContains(t, err, "expected 7.0")
	})

	t.Run("older versions are rejected", func(t *testing.T) {
		older := writeRules(t, "-- version: 6.0\nfunction f() return 1 end\n")
		_, err := executeCommand("publish", older, "--database-url", "postgres://test")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestPublishCommandInvalidatesRulesCache(t *testing.T) {
	store := rulesstore.NewInMemory()
	hook := &commandRecorder{}
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })

	originalStore, originalCache := openStore, openCache
	openStore = func(context.Context, string) (rules.Store, func(), error) {
		return store, func() {}, nil
	}
	var cacheURL string
	openCache = func(_ context.Context, url string) (*goredis.Client, func(), error) {
		cacheURL = url
		return client, func() {}, nil
	}
	t.Cleanup(func() { openStore, openCache = originalStore, originalCache })

	_, err := executeCommand("publish", writeRules(t, sampleRules),
		"--database-url", "postgres://test", "--redis-url", "redis://cache:6379/0")
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6379/0", cacheURL)
	assert.Equal(t, []string{"del"}, hook.commands())
	stored, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "6.1", stored.Version)
}

// commandRecorder answers every Redis command locally and remembers its name.
type commandRecorder struct {
	mu   sync.Mutex
	cmds []string
}

func (h *commandRecorder) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (h *commandRecorder) ProcessHook(goredis.ProcessHook) goredis.ProcessHook {
	return func(_ context.Context, cmd goredis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.cmds = append(h.cmds, cmd.Name())
		return nil
	}
}

func (h *commandRecorder) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

func (h *commandRecorder) commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.cmds...)
}
