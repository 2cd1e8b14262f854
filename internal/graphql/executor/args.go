package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// String returns the named argument, or "" when it is absent or null.
func String(args map[string]any, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// Float returns the named argument, or nil when it is absent or null.
func Float(args map[string]any, name string) (*float64, error) {
	var f float64
	switch v := args[name].(type) {
	case nil:
		return nil, nil
	case float64:
		f = v
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, invalidArgument(name, v)
		}
		f = parsed
	default:
		return nil, invalidArgument(name, v)
	}
	return &f, nil
}

// Int returns the named argument, or fallback when it is absent or null.
func Int(args map[string]any, name string, fallback int) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, invalidArgument(name, v)
		}
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, invalidArgument(name, v)
		}
		return n, nil
	default:
		return 0, invalidArgument(name, v)
	}
}

// As returns obj as a T, accepting both T and *T parents.
func As[T any](obj any) (T, error) {
	switch v := obj.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, apperrors.NewInternalError(fmt.Sprintf("unexpected parent %T", obj), nil)
}

func invalidArgument(name string, v any) error {
	return apperrors.NewValidationError(fmt.Sprintf("invalid %s argument: %v", name, v))
}
