package site_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/waconnect/backend/internal/site"
)

func TestTemplatesRegistry(t *testing.T) {
	all := site.Templates()
	require.Len(t, all, 15)

	seen := map[string]bool{}
	for _, tpl := range all {
		require.NotEmpty(t, tpl.ID)
		require.NotEmpty(t, tpl.Name)
		require.NotEmpty(t, tpl.Features)
		require.False(t, seen[tpl.ID], "duplicate template id %s", tpl.ID)
		seen[tpl.ID] = true
	}
	require.True(t, site.ValidTemplate("restaurant"))
	require.True(t, site.ValidTemplate("water_ro"))
	require.False(t, site.ValidTemplate("spaceport"))
	require.False(t, site.ValidTemplate(""))
}

func TestTemplatesRegistryIsCopied(t *testing.T) {
	first := site.Templates()
	first[0].ID = "mutated"
	require.Equal(t, "restaurant", site.Templates()[0].ID)
}

func TestTemplatesEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	site.Handler{}.Templates(rec, httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Templates []site.Template `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Templates, 15)
	require.Equal(t, "restaurant", body.Templates[0].ID)
}
