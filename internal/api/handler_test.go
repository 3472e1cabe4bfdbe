package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/mro/internal/api"
	"github.com/gyaneshwarpardhi/mro/internal/config"
	"github.com/gyaneshwarpardhi/mro/internal/engine"
)

const hierarchyYAML = `
version: v1
root: object
classes:
  - name: A
    methods: [{name: greet}]
  - name: B
    bases: [A]
    methods: [{name: greet}]
  - name: C
    bases: [A]
    methods: [{name: greet, super: true}]
  - name: D
    bases: [B, C]
    methods: [{name: greet, super: true}]
  - name: X
    bases: [A, B]
`

func newServer(t *testing.T, doc string) (http.Handler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hierarchy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	loader, err := config.NewLoader(path)
	require.NoError(t, err)
	s, err := engine.NewSnapshot(loader.Config())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, s, loader.Config().Engine)
	t.Cleanup(func() {
		cancel()
		eng.Shutdown()
	})
	return api.New(eng, loader), path
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestLinearize(t *testing.T) {
	h, _ := newServer(t, hierarchyYAML)

	rec, body := do(t, h, http.MethodPost, "/v1/linearize", `{"class":"D"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"D", "B", "C", "A", "object"}, body["mro"])
	assert.NotEmpty(t, body["request_id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec, body = do(t, h, http.MethodGet, "/v1/classes/C/mro", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"C", "A", "object"}, body["mro"])
}

func TestLinearize_Errors(t *testing.T) {
	h, _ := newServer(t, hierarchyYAML)

	rec, body := do(t, h, http.MethodPost, "/v1/linearize", `{"class":"X"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "inconsistent", body["kind"])
	assert.Equal(t, "X", body["class"])
	assert.NotEmpty(t, body["conflicts"])

	rec, _ = do(t, h, http.MethodPost, "/v1/linearize", `{"class":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/linearize", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/linearize", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinearizeBatch(t *testing.T) {
	h, _ := newServer(t, hierarchyYAML)

	rec, body := do(t, h, http.MethodPost, "/v1/linearize/batch", `{"classes":["D","X","B"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 1, body["failed"])

	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "D", first["class"])
	second := results[1].(map[string]interface{})
	assert.Equal(t, "X", second["class"])
	assert.NotNil(t, second["error"])

	rec, _ = do(t, h, http.MethodPost, "/v1/linearize/batch", `{"classes":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatch(t *testing.T) {
	h, _ := newServer(t, hierarchyYAML)

	// B does not forward, so C and A never run.
	rec, body := do(t, h, http.MethodPost, "/v1/dispatch", `{"class":"D","method":"greet"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "D", body["provider"])
	assert.Equal(t, []interface{}{"D", "B"}, body["trace"])

	rec, body = do(t, h, http.MethodPost, "/v1/dispatch", `{"class":"C","method":"greet"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"C", "A"}, body["trace"])

	rec, body = do(t, h, http.MethodPost, "/v1/dispatch", `{"class":"D","method":"fly"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "method_not_found", body["kind"])
}

func TestListClasses(t *testing.T) {
	h, _ := newServer(t, hierarchyYAML)

	rec, body := do(t, h, http.MethodGet, "/v1/classes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", body["version"])
	assert.Equal(t, "object", body["root"])
	classes := body["classes"].([]interface{})
	assert.Len(t, classes, 6) // five declared plus the implicit root
}

func TestReload(t *testing.T) {
	h, path := newServer(t, hierarchyYAML)

	require.NoError(t, os.WriteFile(path, []byte("version: v2\nclasses:\n  - name: A\n  - name: B\n    bases: [A]\n"), 0o644))
	rec, body := do(t, h, http.MethodPost, "/v1/hierarchy/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v2", body["version"])

	rec, body = do(t, h, http.MethodPost, "/v1/linearize", `{"class":"B"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"B", "A"}, body["mro"])

	// A cyclic file is rejected and the previous hierarchy keeps serving.
	require.NoError(t, os.WriteFile(path, []byte("version: v3\nclasses:\n  - name: A\n    bases: [B]\n  - name: B\n    bases: [A]\n"), 0o644))
	rec, body = do(t, h, http.MethodPost, "/v1/hierarchy/reload", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid", body["kind"])

	rec, _ = do(t, h, http.MethodPost, "/v1/linearize", `{"class":"B"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProbes(t *testing.T) {
	h, _ := newServer(t, hierarchyYAML)

	rec, _ := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])

	rec, _ = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mro_hierarchy_classes")
}
