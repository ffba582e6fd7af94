package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = `
local function double(n) return n * 2 end

function consumer_capacity(ctx)
  local derived = ctx.derived
  return { sockets = double(derived.sockets), arch = string.upper(derived.arch) }
end

function explode(ctx)
  error("boom")
end

function list(ctx)
  return { "a", "b", 3 }
end

function deep(ctx)
  local t = { leaf = true }
  for i = 1, ctx.depth do t = { t } end
  return t
end

function tangled(ctx)
  local t = { name = "loop" }
  t.self = { parent = t }
  return t
end

function shared(ctx)
  local s = { n = 1 }
  return { a = s, b = s }
end

function echo(ctx)
  return ctx
end

function exposed(ctx)
  return { io = io == nil, os = os == nil, dofile = dofile == nil, load = load == nil }
end
`

func TestLoad(t *testing.T) {
	t.Run("records the functions the script defines", func(t *testing.T) {
		l := NewState()
		fns, err := Load(l, script, "rules")
		require.NoError(t, err)
		assert.Equal(t, []string{"consumer_capacity", "deep", "echo", "explode", "exposed", "list", "shared", "tangled"}, fns)
	})

	t.Run("syntax errors are parse errors", func(t *testing.T) {
		_, err := Load(NewState(), "function broken(", "rules")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("top level runtime errors are parse errors", func(t *testing.T) {
		_, err := Load(NewState(), `error("no")`, "rules")
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestCall(t *testing.T) {
	l := NewState()
	_, err := Load(l, script, "rules")
	require.NoError(t, err)

	t.Run("converts tables both ways", func(t *testing.T) {
		out, err := Call(l, "consumer_capacity", map[string]any{
			"derived": map[string]any{"sockets": float64(2), "arch": "x86_64"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"sockets": 4, "arch": "X86_64"}, out)
	})

	t.Run("sequences become slices", func(t *testing.T) {
		out, err := Call(l, "list", nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", 3}, out)
	})

	t.Run("runtime errors are returned", func(t *testing.T) {
		_, err := Call(l, "explode", map[string]any{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrParse)
	})

	t.Run("missing function is an error", func(t *testing.T) {
		_, err := Call(l, "nope", nil)
		assert.Error(t, err)
	})

	t.Run("dangerous globals are unavailable", func(t *testing.T) {
		out, err := Call(l, "exposed", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"io": true, "os": true, "dofile": true, "load": true}, out)
	})
}

func TestCallNesting(t *testing.T) {
	l := NewState()
	_, err := Load(l, script, "rules")
	require.NoError(t, err)

	t.Run("deeply nested results convert", func(t *testing.T) {
		out, err := Call(l, "deep", map[string]any{"depth": float64(40)})
		require.NoError(t, err)

		depth := 0
		for {
			list, ok := out.([]any)
			if !ok {
				break
			}
			depth++
			out = list[0]
		}
		assert.Equal(t, 40, depth)
		assert.Equal(t, map[string]any{"leaf": true}, out)
	})

	t.Run("results beyond the nesting limit fail cleanly", func(t *testing.T) {
		_, err := Call(l, "deep", map[string]any{"depth": float64(MaxDepth + 5)})
		assert.ErrorIs(t, err, ErrTooDeep)
	})

	t.Run("cyclic results fail cleanly", func(t *testing.T) {
		_, err := Call(l, "tangled", nil)
		assert.ErrorIs(t, err, ErrCyclic)
	})

	t.Run("tables shared between siblings are not cycles", func(t *testing.T) {
		out, err := Call(l, "shared", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": map[string]any{"n": 1}, "b": map[string]any{"n": 1}}, out)
	})

	t.Run("deeply nested input round trips", func(t *testing.T) {
		var input any = "bottom"
		for i := 0; i < 30; i++ {
			input = map[string]any{"next": input}
		}
		out, err := Call(l, "echo", input)
		require.NoError(t, err)
		assert.Equal(t, input, out)
	})

	t.Run("input beyond the nesting limit fails cleanly", func(t *testing.T) {
		var input any = "bottom"
		for i := 0; i < MaxDepth+5; i++ {
			input = []any{input}
		}
		_, err := Call(l, "echo", input)
		assert.ErrorIs(t, err, ErrTooDeep)
	})

	t.Run("failed calls leave the stack balanced", func(t *testing.T) {
		top := l.Top()
		_, _ = Call(l, "tangled", nil)
		_, _ = Call(l, "nope", nil)
		assert.Equal(t, top, l.Top())
	})
}
