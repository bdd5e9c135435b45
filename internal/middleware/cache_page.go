package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/service"
)

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// CachePage serves successful GET responses from the query cache. Entities
// only change when the ingest cursor advances, so a short TTL keeps responses
// fresh without per-entity invalidation.
func CachePage(cache *service.CacheService, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cache == nil || !cache.Enabled() || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		// Authenticated responses may contain caller-specific fields; the
		// cache key is the URI alone, so never share them.
		if c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		key := "http:" + c.Request.URL.RequestURI()
		var page cachedPage
		if hit, _ := cache.Get(c.Request.Context(), key, &page); hit {
			SetCacheHit(c, true)
			c.Data(page.Status, page.ContentType, page.Body)
			c.Abort()
			return
		}
		SetCacheHit(c, false)

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		if capture.Status() == http.StatusOK {
			cache.Set(c.Request.Context(), key, cachedPage{
				Status:      capture.Status(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.buf.Bytes(),
			}, ttl)
		}
	}
}
