package sandbox

import (
	"errors"
	"math"
	"sort"

	lua "github.com/Shopify/go-lua"
)

// MaxDepth bounds how deeply tables may nest when crossing between Go and Lua.
const MaxDepth = 64

var (
	// ErrTooDeep is returned when a value nests more than MaxDepth tables.
	ErrTooDeep = errors.New("value nested too deep")
	// ErrCyclic is returned when a rule result references itself.
	ErrCyclic = errors.New("cyclic table in rule result")
	// ErrStack is returned when the Lua stack cannot grow any further.
	ErrStack = errors.New("lua stack exhausted")
)

// Push converts a decoded JSON value (nil, bool, float64, string, []any,
// map[string]any) into a Lua value on top of the stack. Map keys are pushed
// in sorted order so scripts iterating with pairs see a stable insertion
// history. On error the stack may hold a partially built value.
func Push(l *lua.State, v any) error {
	return push(l, v, 0)
}

func push(l *lua.State, v any, depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	if !l.CheckStack(2) {
		return ErrStack
	}
	switch t := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(t)
	case float64:
		l.PushNumber(t)
	case int:
		l.PushInteger(t)
	case string:
		l.PushString(t)
	case []any:
		l.CreateTable(len(t), 0)
		for i, item := range t {
			if err := push(l, item, depth+1); err != nil {
				return err
			}
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		l.CreateTable(0, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := push(l, t[k], depth+1); err != nil {
				return err
			}
			l.SetField(-2, k)
		}
	default:
		l.PushNil()
	}
	return nil
}

// ToGo converts the Lua value at index into Go values. Tables with keys
// 1..n become slices, other tables become maps keyed by their string keys.
func ToGo(l *lua.State, index int) (any, error) {
	c := converter{l: l, open: map[any]struct{}{}}
	return c.value(index, 0)
}

// converter tracks the tables on the current conversion path. A table seen
// twice on one path is a cycle; the same table reached through siblings is
// converted twice.
type converter struct {
	l    *lua.State
	open map[any]struct{}
}

func (c converter) value(index, depth int) (any, error) {
	l := c.l
	switch l.TypeOf(index) {
	case lua.TypeString:
		value, _ := l.ToString(index)
		return value, nil
	case lua.TypeNumber:
		value, _ := l.ToNumber(index)
		return normalizeNumber(value), nil
	case lua.TypeBoolean:
		return l.ToBoolean(index), nil
	case lua.TypeTable:
		if depth > MaxDepth {
			return nil, ErrTooDeep
		}
		key := l.ToValue(index)
		if _, seen := c.open[key]; seen {
			return nil, ErrCyclic
		}
		c.open[key] = struct{}{}
		defer delete(c.open, key)
		return c.table(index, depth)
	default:
		return nil, nil
	}
}

func (c converter) table(index, depth int) (any, error) {
	l := c.l
	if !l.CheckStack(2) {
		return nil, ErrStack
	}
	index = l.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	l.PushNil()
	for l.Next(index) {
		if isArray {
			if l.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := l.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		l.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			l.RawGetInt(index, i)
			item, err := c.value(-1, depth+1)
			l.Pop(1)
			if err != nil {
				return nil, err
			}
			result = append(result, item)
		}
		return result, nil
	}
	return c.tableToMap(index, depth)
}

func (c converter) tableToMap(index, depth int) (map[string]any, error) {
	l := c.l
	output := map[string]any{}
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			item, err := c.value(-1, depth+1)
			if err != nil {
				l.Pop(2)
				return nil, err
			}
			output[key] = item
		}
		l.Pop(1)
	}
	return output, nil
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && math.Abs(value) < 1<<53 {
		return int(value)
	}
	return value
}
