package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	apperrors "github.com/lingatchoss/marketplace/pkg/errors"
)

const shopSchema = `
scalar DateTime

type Query {
  shop(id: ID!): Shop
  shops(count: Int = 2): [Shop!]!
  strict: Shop!
  failing(internal: Boolean = false): String
}

type Shop {
  id: ID!
  name: String!
  opened: DateTime
  tags: [String!]!
  rating: Float
  owner: Owner
}

type Owner {
  name: String!
}
`

type rated struct {
	Rating float64 `json:"rating"`
}

type shop struct {
	rated
	ID     string    `json:"id"`
	Name   *string   `json:"name"`
	Opened time.Time `json:"opened"`
	Tags   []string  `json:"tags"`
	secret string
}

type owner struct {
	Name string `json:"name"`
}

func named(id, name string) *shop {
	return &shop{ID: id, Name: &name, rated: rated{Rating: 4.5}}
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func run(t *testing.T, resolvers map[string]FieldFunc, query string, vars map[string]any) gqlResponse {
	t.Helper()
	es := New(gqlparser.MustLoadSchema(&ast.Source{Name: "shop.graphqls", Input: shopSchema}), resolvers)
	srv := handler.New(es)
	srv.AddTransport(transport.POST{})

	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	var resp gqlResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestExec_DefaultResolverReadsJSONTags(t *testing.T) {
	opened := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	resolvers := map[string]FieldFunc{
		"Query.shop": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			s := named(String(args, "id"), "Farmácia Central")
			s.Opened = opened
			return s, nil
		},
		"Shop.owner": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			s, err := As[shop](obj)
			if err != nil {
				return nil, err
			}
			return owner{Name: "owner of " + s.ID}, nil
		},
	}

	resp := run(t, resolvers, `
		query Shop($id: ID!) {
			first: shop(id: $id) { __typename id name ...Details owner { name } }
		}
		fragment Details on Shop { opened tags rating }`,
		map[string]any{"id": "7"})

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"first":{
		"__typename":"Shop","id":"7","name":"Farmácia Central",
		"opened":"2025-06-01T08:00:00Z","tags":[],"rating":4.5,
		"owner":{"name":"owner of 7"}}}`, string(resp.Data))
}

func TestExec_FieldOrderFollowsSelection(t *testing.T) {
	resolvers := map[string]FieldFunc{
		"Query.shop": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			return named("1", "A"), nil
		},
	}

	resp := run(t, resolvers, `{ shop(id: "1") { name id } }`, nil)

	assert.Equal(t, `{"shop":{"name":"A","id":"1"}}`, string(resp.Data))
}

func TestExec_NullPropagation(t *testing.T) {
	resolvers := map[string]FieldFunc{
		"Query.shop": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			return &shop{ID: "1"}, nil
		},
		"Query.strict": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			return &shop{ID: "2"}, nil
		},
	}

	t.Run("stops at nullable parent", func(t *testing.T) {
		resp := run(t, resolvers, `{ shop(id: "1") { id name } }`, nil)

		assert.JSONEq(t, `{"shop":null}`, string(resp.Data))
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "must not be null", resp.Errors[0].Message)
		assert.Equal(t, []any{"shop", "name"}, resp.Errors[0].Path)
	})

	t.Run("reaches data", func(t *testing.T) {
		resp := run(t, resolvers, `{ strict { id name } }`, nil)

		assert.Equal(t, "null", string(resp.Data))
		require.Len(t, resp.Errors, 1)
	})
}

func TestExec_ResolverErrors(t *testing.T) {
	resolvers := map[string]FieldFunc{
		"Query.failing": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			if args["internal"] == true {
				return nil, errors.New("pq: connection refused")
			}
			return nil, apperrors.NewValidationError("limit must be positive")
		},
	}

	resp := run(t, resolvers, `{ failing }`, nil)
	assert.JSONEq(t, `{"failing":null}`, string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "limit must be positive", resp.Errors[0].Message)
	assert.Equal(t, "VALIDATION", resp.Errors[0].Extensions["type"])

	resp = run(t, resolvers, `{ failing(internal: true) }`, nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "internal server error", resp.Errors[0].Message)
	assert.NotContains(t, string(resp.Data), "pq:")
}

func TestExec_PanicBecomesFieldError(t *testing.T) {
	resolvers := map[string]FieldFunc{
		"Query.failing": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			panic("boom")
		},
	}

	resp := run(t, resolvers, `{ failing }`, nil)

	assert.JSONEq(t, `{"failing":null}`, string(resp.Data))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "internal server error", resp.Errors[0].Message)
}

func TestExec_ListElementsResolveConcurrently(t *testing.T) {
	var started sync.WaitGroup
	started.Add(3)

	resolvers := map[string]FieldFunc{
		"Query.shops": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			count, err := Int(args, "count", 0)
			if err != nil {
				return nil, err
			}
			shops := make([]*shop, count)
			for i := range shops {
				shops[i] = named(string(rune('a'+i)), "shop")
			}
			return shops, nil
		},
		// every owner lookup waits for the other two, so a sequential walk would time out
		"Shop.owner": func(ctx context.Context, obj any, args map[string]any) (any, error) {
			started.Done()
			done := make(chan struct{})
			go func() {
				started.Wait()
				close(done)
			}()
			select {
			case <-done:
				return owner{Name: "ok"}, nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("siblings never started")
			}
		},
	}

	resp := run(t, resolvers, `{ shops(count: 3) { id owner { name } } }`, nil)

	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"shops":[
		{"id":"a","owner":{"name":"ok"}},
		{"id":"b","owner":{"name":"ok"}},
		{"id":"c","owner":{"name":"ok"}}]}`, string(resp.Data))
}

func TestExec_IntrospectionIsNotServed(t *testing.T) {
	resp := run(t, map[string]FieldFunc{}, `{ __schema { queryType { name } } }`, nil)

	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "introspection is not served", resp.Errors[0].Message)
}

func TestExec_UnexportedFieldsAreNotRead(t *testing.T) {
	_, ok := lookup(reflect.ValueOf(shop{secret: "x"}), "secret")
	assert.False(t, ok)
}
