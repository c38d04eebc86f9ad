package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocumentIsRegistered(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "2.0", parsed.Swagger)
	for _, path := range []string{"/health", "/metrics", "/api/v1/runs", "/api/v1/runs/current", "/api/v1/runs/best"} {
		assert.Contains(t, parsed.Paths, path)
		assert.Contains(t, parsed.Paths[path], "get", path)
	}
}
