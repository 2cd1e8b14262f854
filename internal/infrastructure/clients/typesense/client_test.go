package typesense

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingatchoss/marketplace/pkg/config"
)

func TestServicesSchema(t *testing.T) {
	schema := ServicesSchema()
	assert.Equal(t, ServicesCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "created_at", *schema.DefaultSortingField)

	names := make(map[string]string)
	for _, f := range schema.Fields {
		names[f.Name] = f.Type
	}
	assert.Equal(t, "string", names["language"])
	assert.Equal(t, "float", names["price"])
	assert.Equal(t, "int64", names["created_at"])
}

func TestClient_Integration(t *testing.T) {
	url := os.Getenv("TYPESENSE_URL")
	if url == "" {
		t.Skip("TYPESENSE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(ctx, &config.TypesenseConfig{URL: url, APIKey: os.Getenv("TYPESENSE_API_KEY")})
	require.NoError(t, err)

	require.NoError(t, client.InitSchema(ctx))
	// second call is a no-op
	assert.NoError(t, client.InitSchema(ctx))
}
