package agent

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Factory builds an oracle from its parsed parameters. Factories should Pop
// the parameters they use; anything left over is reported as unknown.
type Factory func(params map[string]string) (MoveOracle, error)

// DefaultOracleConfig is used when New is given an empty config string.
var DefaultOracleConfig = "heuristic"

var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register makes an oracle available to New under name.
func Register(name string, f Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = f
}

// Names lists registered oracles, sorted.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds an oracle from a config string of the form
// "name:key=value,flag,...", e.g. "mlp:path=model.json,label=mine".
func New(config string) (MoveOracle, error) {
	if config == "" {
		config = DefaultOracleConfig
	}
	name, rest := config, ""
	if i := strings.Index(config, ":"); i != -1 {
		name, rest = config[:i], config[i+1:]
	}

	registry.mu.RLock()
	f, ok := registry.factories[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown oracle %q (have %s)", name, strings.Join(Names(), ", "))
	}

	params := splitConfigString(rest)
	oracle, err := f(params)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create oracle %q", name)
	}
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, errors.Errorf("oracle %q: unknown parameters %s", name, strings.Join(keys, ", "))
	}
	return oracle, nil
}

func splitConfigString(config string) map[string]string {
	params := make(map[string]string)
	if config == "" {
		return params
	}
	for _, part := range strings.Split(config, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 1 {
			params[kv[0]] = ""
		} else {
			params[kv[0]] = kv[1]
		}
	}
	return params
}

// PopParamOr parses and removes params[key], or returns def when the key is
// absent. A bare key counts as true for bool parameters.
func PopParamOr[T bool | int | int64 | float64 | string](params map[string]string, key string, def T) (T, error) {
	value, exists := params[key]
	if !exists {
		return def, nil
	}
	delete(params, key)

	var out T
	switch p := any(&out).(type) {
	case *string:
		*p = value
	case *int:
		v, err := strconv.Atoi(value)
		if err != nil {
			return def, errors.Wrapf(err, "failed to parse %s=%q to int", key, value)
		}
		*p = v
	case *int64:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return def, errors.Wrapf(err, "failed to parse %s=%q to int64", key, value)
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return def, errors.Wrapf(err, "failed to parse %s=%q to float", key, value)
		}
		*p = v
	case *bool:
		switch strings.ToLower(value) {
		case "", "true", "1":
			*p = true
		case "false", "0":
			*p = false
		default:
			return def, errors.Errorf("failed to parse %s=%q to bool", key, value)
		}
	}
	return out, nil
}

func init() {
	Register("heuristic", func(params map[string]string) (MoveOracle, error) {
		return Heuristic{}, nil
	})
	Register("random", func(params map[string]string) (MoveOracle, error) {
		seed, err := PopParamOr(params, "seed", int64(0))
		if err != nil {
			return nil, err
		}
		return NewRandom(seed), nil
	})
	Register("linear", func(params map[string]string) (MoveOracle, error) {
		path, err := PopParamOr(params, "path", "")
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, errors.New("path is required")
		}
		return LoadLinear(path)
	})
	Register("mlp", func(params map[string]string) (MoveOracle, error) {
		path, err := PopParamOr(params, "path", "")
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, errors.New("path is required")
		}
		label, err := PopParamOr(params, "label", "")
		if err != nil {
			return nil, err
		}
		m, err := LoadMLP(path)
		if err != nil {
			return nil, err
		}
		if label != "" {
			if err := m.SetLabel(label); err != nil {
				return nil, err
			}
		}
		return m, nil
	})
}
