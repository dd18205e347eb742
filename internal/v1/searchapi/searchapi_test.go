package searchapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(apiKey, endpoint string) *Handler {
	h := NewHandler(apiKey)
	h.endpoint = endpoint
	return h
}

func TestSearch_MissingAPIKey(t *testing.T) {
	h := NewHandler("")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/videos/search?q=lofi", nil)

	h.Search(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "search not configured")
}

func TestSearch_MissingQuery(t *testing.T) {
	h := NewHandler("key")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/videos/search", nil)

	h.Search(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"abc123"},"snippet":{"title":"Lofi beats","channelTitle":"Chill","thumbnails":{"default":{"url":"https://example.test/thumb.jpg"}}}}]}`))
	}))
	defer srv.Close()

	h := newTestHandler("key", srv.URL)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/videos/search?q=lofi", nil)

	h.Search(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "abc123")
	assert.Contains(t, w.Body.String(), "Lofi beats")
}

func TestSearch_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	h := newTestHandler("key", srv.URL)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/videos/search?q=lofi", nil)

	h.Search(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
