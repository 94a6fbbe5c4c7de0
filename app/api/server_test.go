package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
)

const testKey = "s3cret"

func setupRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	feeds := database.NewFeedRepository(db)
	items := database.NewItemRepository(db)

	feedID, err := feeds.UpsertFeed("golang", "https://go.dev/blog/feed.atom", 60)
	require.NoError(t, err)
	_, err = feeds.UpsertFeed("seeded", "https://example.com/rss", 15)
	require.NoError(t, err)
	for _, u := range []string{"https://go.dev/blog/a", "https://go.dev/blog/b", "https://go.dev/blog/c"} {
		_, err := items.InsertItemIfNew(feedID, "post "+u[len(u)-1:], u, "01.01.2024 10:00")
		require.NoError(t, err)
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golang.yml"), []byte(`url: https://go.dev/blog/feed.atom
settings:
  enabled: true
filters:
  - field: title
    excludes: [draft]
`), 0644))
	configs := feed.NewConfigCache(dir)
	require.NoError(t, configs.Run())

	return NewRouter(NewHandler(configs, feeds, items, "test"), apiKey)
}

func doRequest(t *testing.T, router http.Handler, path string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestHealthAndStats(t *testing.T) {
	router := setupRouter(t, "")

	w, body := doRequest(t, router, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["feeds"])
	assert.EqualValues(t, 1, body["loaded_configurations"])

	w, body = doRequest(t, router, "/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["feeds"])
	assert.EqualValues(t, 3, body["items"])
	assert.Equal(t, "test", body["version"])
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	router := setupRouter(t, "")

	w, _ := doRequest(t, router, "/api/feeds", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIAuth(t *testing.T) {
	router := setupRouter(t, testKey)

	w, body := doRequest(t, router, "/api/feeds", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "API key required", body["error"])

	w, body = doRequest(t, router, "/api/feeds", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", body["error"])

	w, _ = doRequest(t, router, "/api/feeds", map[string]string{"Authorization": "Bearer " + testKey})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIListFeeds(t *testing.T) {
	router := setupRouter(t, testKey)

	w, body := doRequest(t, router, "/api/feeds", map[string]string{"X-API-Key": testKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])

	feeds := body["feeds"].([]interface{})
	first := feeds[0].(map[string]interface{})
	assert.Equal(t, "golang", first["name"])
	assert.Equal(t, true, first["configured"])
	assert.EqualValues(t, 1, first["filters"])
	assert.EqualValues(t, 60, first["interval_minutes"])

	second := feeds[1].(map[string]interface{})
	assert.Equal(t, false, second["configured"])
}

func TestAPIItems(t *testing.T) {
	router := setupRouter(t, testKey)
	headers := map[string]string{"X-API-Key": testKey}

	w, body := doRequest(t, router, "/api/items?limit=2", headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["count"])
	items := body["items"].([]interface{})
	assert.Equal(t, "https://go.dev/blog/c", items[0].(map[string]interface{})["url"])

	w, _ = doRequest(t, router, "/api/items?limit=zero", headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = doRequest(t, router, "/api/feeds/1/items", headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "golang", body["feed"])
	assert.EqualValues(t, 3, body["count"])

	w, _ = doRequest(t, router, "/api/feeds/99/items", headers)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, router, "/api/feeds/abc/items", headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
