// Package searchapi implements the GET /api/videos/search passthrough
// described in SPEC_FULL.md §4.11: a thin proxy to a third-party video
// search API, modeled after the original implementation's YouTube Data API
// call in main.py. It sits outside the Room core entirely — a search result
// only becomes a queued Video once a client submits add_video.
package searchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tossemideia/synctube/internal/v1/logging"
)

const requestDeadline = 5 * time.Second

const defaultSearchEndpoint = "https://www.googleapis.com/youtube/v3/search"

// searchItem is the subset of the YouTube Data API's search response this
// passthrough re-shapes for clients.
type searchItem struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	ChannelTitle string `json:"channel_title"`
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Handler serves the search passthrough.
type Handler struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewHandler builds a search Handler. An empty apiKey is valid: every
// request then fails with the documented 500 instead of panicking.
func NewHandler(apiKey string) *Handler {
	return &Handler{
		apiKey:   apiKey,
		endpoint: defaultSearchEndpoint,
		client:   &http.Client{Timeout: requestDeadline},
	}
}

// Search handles GET /api/videos/search?q=...
func (h *Handler) Search(c *gin.Context) {
	if h.apiKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search not configured"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestDeadline)
	defer cancel()

	items, err := h.fetch(ctx, query)
	if err != nil {
		logging.Warn(ctx, "video search upstream failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "search provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *Handler) fetch(ctx context.Context, query string) ([]searchItem, error) {
	reqURL := h.endpoint + "?" + url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {"10"},
		"q":          {query},
		"key":        {h.apiKey},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errUpstream(resp.StatusCode)
	}

	var parsed ytSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]searchItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		out = append(out, searchItem{
			VideoID:      it.ID.VideoID,
			Title:        it.Snippet.Title,
			ThumbnailURL: it.Snippet.Thumbnails.Default.URL,
			ChannelTitle: it.Snippet.ChannelTitle,
		})
	}
	return out, nil
}

type upstreamError int

func errUpstream(status int) error {
	return upstreamError(status)
}

func (e upstreamError) Error() string {
	return http.StatusText(int(e))
}
