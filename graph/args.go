package graph

import (
	"encoding/json"
	"fmt"
	"math"
)

// Аргументы приходят из литералов запроса (int64) и из JSON-переменных
// (json.Number или float64), поэтому приведение типов нестрогое.

func argString(args map[string]any, name string) (string, error) {
	s, err := argOptionalString(args, name)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("argument %s: must not be null", name)
	}
	return *s, nil
}

func argOptionalString(args map[string]any, name string) (*string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("argument %s: expected String, got %T", name, v)
	}
	return &s, nil
}

func argInt(args map[string]any, name string) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("argument %s: must not be null", name)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("argument %s: %w", name, err)
	}
	return n, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, fmt.Errorf("%d overflows Int", n)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return toInt(int64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", n)
		}
		return toInt(i)
	default:
		return 0, fmt.Errorf("expected Int, got %T", v)
	}
}

// argStrings принимает список строк или одну строку (приведение ввода списка GraphQL).
// Отсутствующий аргумент - nil, пустой список - непустой срез нулевой длины.
func argStrings(args map[string]any, name string) ([]string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case string:
		return []string{list}, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %s[%d]: expected String, got %T", name, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %s: expected [String!], got %T", name, v)
	}
}
