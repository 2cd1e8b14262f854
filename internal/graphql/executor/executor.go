// Package executor runs GraphQL queries for gqlgen's handler without generated
// code. Fields with a registered FieldFunc are resolved by it; every other
// field is read from the parent value through its json tag.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/lingatchoss/marketplace/internal/graphql/scalars"
	"github.com/lingatchoss/marketplace/internal/infrastructure/observability"
	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

// FieldFunc resolves one field. obj is the parent value, nil for Query fields.
type FieldFunc func(ctx context.Context, obj any, args map[string]any) (any, error)

// Schema implements graphql.ExecutableSchema
type Schema struct {
	schema    *ast.Schema
	resolvers map[string]FieldFunc
}

var _ graphql.ExecutableSchema = (*Schema)(nil)

// New creates an executable schema. resolvers is keyed by "Type.field".
func New(schema *ast.Schema, resolvers map[string]FieldFunc) *Schema {
	return &Schema{schema: schema, resolvers: resolvers}
}

// Schema returns the parsed schema
func (s *Schema) Schema() *ast.Schema {
	return s.schema
}

// Complexity is not tracked
func (s *Schema) Complexity(ctx context.Context, typeName, fieldName string, childComplexity int, args map[string]any) (int, bool) {
	return 0, false
}

// Exec runs the operation in ctx. Only queries are supported.
func (s *Schema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	first := true

	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false

		if opCtx.Operation.Operation != ast.Query {
			return graphql.ErrorResponse(ctx, "unsupported operation: %s", opCtx.Operation.Operation)
		}

		e := &execution{schema: s, opCtx: opCtx}
		data := e.object(ctx, s.schema.Query.Name, nil, opCtx.Operation.SelectionSet, nil)
		if data == nil {
			data = []byte("null")
		}
		return &graphql.Response{Data: data, Errors: e.recorded()}
	}
}

type execution struct {
	schema *Schema
	opCtx  *graphql.OperationContext

	mu   sync.Mutex
	errs gqlerror.List
}

// object returns the serialized object, or nil when a non-null field inside
// it resolved to null and the null must move up to the parent.
func (e *execution) object(ctx context.Context, typeName string, obj any, sel ast.SelectionSet, path ast.Path) []byte {
	fields := graphql.CollectFields(e.opCtx, sel, []string{typeName})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		v := e.field(ctx, typeName, obj, f, appendPath(path, ast.PathName(f.Alias)))
		if v == nil {
			return nil
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(f.Alias))
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func (e *execution) field(ctx context.Context, typeName string, obj any, f graphql.CollectedField, path ast.Path) []byte {
	if f.Name == "__typename" {
		return []byte(strconv.Quote(typeName))
	}
	if strings.HasPrefix(f.Name, "__") {
		e.fail(path, "introspection is not served")
		return []byte("null")
	}

	value, err := e.resolve(ctx, typeName, obj, f.Name, f.ArgumentMap(e.opCtx.Variables))
	if err != nil {
		e.addError(ctx, path, err)
		return e.null(f.Definition.Type)
	}
	return e.value(ctx, f.Definition.Type, value, f.Selections, path)
}

func (e *execution) resolve(ctx context.Context, typeName string, obj any, name string, args map[string]any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error().Interface("panic", r).Str("field", typeName+"."+name).Msg("resolver panicked")
			err = apperrors.NewInternalError("resolver panicked", fmt.Errorf("%v", r))
		}
	}()

	if fn, ok := e.schema.resolvers[typeName+"."+name]; ok {
		return fn(ctx, obj, args)
	}
	return fieldByTag(obj, name)
}

func (e *execution) value(ctx context.Context, t *ast.Type, v any, sel ast.SelectionSet, path ast.Path) []byte {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && !rv.IsNil() {
		rv = rv.Elem()
	}

	if t.Elem != nil && rv.IsValid() && rv.Kind() == reflect.Slice && rv.IsNil() {
		return []byte("[]")
	}
	if !rv.IsValid() || isNil(rv) {
		if t.NonNull {
			e.fail(path, "must not be null")
		}
		return e.null(t)
	}

	if t.Elem != nil {
		return e.list(ctx, t, rv, sel, path)
	}

	def := e.schema.schema.Types[t.NamedType]
	if def == nil {
		e.fail(path, "unknown type "+t.NamedType)
		return e.null(t)
	}

	switch def.Kind {
	case ast.Object:
		if out := e.object(ctx, def.Name, v, sel, path); out != nil {
			return out
		}
		return e.null(t)
	case ast.Scalar, ast.Enum:
		out, err := marshalScalar(def, rv)
		if err != nil {
			e.fail(path, err.Error())
			return e.null(t)
		}
		return out
	default:
		e.fail(path, fmt.Sprintf("%s types are not supported", def.Kind))
		return e.null(t)
	}
}

// list resolves object elements concurrently so their dataloader calls
// land in the same batch.
func (e *execution) list(ctx context.Context, t *ast.Type, rv reflect.Value, sel ast.SelectionSet, path ast.Path) []byte {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		e.fail(path, "expected a list, got "+rv.Type().String())
		return e.null(t)
	}

	n := rv.Len()
	items := make([][]byte, n)
	elem := e.schema.schema.Types[t.Elem.Name()]

	if n > 1 && elem != nil && elem.Kind == ast.Object {
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				items[i] = e.value(ctx, t.Elem, rv.Index(i).Interface(), sel, appendPath(path, ast.PathIndex(i)))
			}(i)
		}
		wg.Wait()
	} else {
		for i := 0; i < n; i++ {
			items[i] = e.value(ctx, t.Elem, rv.Index(i).Interface(), sel, appendPath(path, ast.PathIndex(i)))
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if item == nil {
			return e.null(t)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(item)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// null is the value a failed field of type t takes: JSON null, or nil to
// propagate to the parent when t is non-null.
func (e *execution) null(t *ast.Type) []byte {
	if t.NonNull {
		return nil
	}
	return []byte("null")
}

// addError records a resolver error. Internal details stay in the log.
func (e *execution) addError(ctx context.Context, path ast.Path, err error) {
	if apperrors.TypeOf(err) == apperrors.ErrorTypeInternal {
		observability.LoggerFromContext(ctx).Error().Err(err).Str("path", path.String()).Msg("graphql field failed")
	}
	e.record(&gqlerror.Error{
		Message:    apperrors.PublicMessage(err),
		Path:       path,
		Extensions: map[string]any{"type": string(apperrors.TypeOf(err))},
	})
}

func (e *execution) fail(path ast.Path, message string) {
	e.record(&gqlerror.Error{Message: message, Path: path})
}

func (e *execution) record(err *gqlerror.Error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *execution) recorded() gqlerror.List {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs
}

func marshalScalar(def *ast.Definition, rv reflect.Value) ([]byte, error) {
	switch def.Name {
	case "DateTime":
		t, ok := rv.Interface().(time.Time)
		if !ok {
			return nil, fmt.Errorf("DateTime needs a time.Time, got %s", rv.Type())
		}
		var buf bytes.Buffer
		scalars.MarshalDateTime(t).MarshalGQL(&buf)
		return buf.Bytes(), nil
	case "Int":
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return json.Marshal(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return json.Marshal(rv.Uint())
		}
	case "Float":
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, errors.New("non-finite value in a Float field")
			}
			return json.Marshal(f)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return json.Marshal(float64(rv.Int()))
		}
	case "Boolean":
		if rv.Kind() == reflect.Bool {
			return json.Marshal(rv.Bool())
		}
	default:
		if rv.Kind() == reflect.String {
			return json.Marshal(rv.String())
		}
	}
	return nil, fmt.Errorf("%s cannot represent a %s", def.Name, rv.Type())
}

func fieldByTag(obj any, name string) (any, error) {
	rv := reflect.ValueOf(obj)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, apperrors.NewInternalError("no resolver for field "+name, nil)
	}
	if v, ok := lookup(rv, name); ok {
		return v.Interface(), nil
	}
	return nil, apperrors.NewInternalError(fmt.Sprintf("no field %s on %s", name, rv.Type()), nil)
}

func lookup(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if sf.Anonymous && tag == "" {
			inner := rv.Field(i)
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() || !sf.IsExported() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				if v, ok := lookup(inner, name); ok {
					return v, true
				}
			}
			continue
		}
		if sf.IsExported() && tag == name {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func isNil(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
