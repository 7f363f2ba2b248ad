package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Responses shorter than this are sent uncompressed; the brotli framing
// overhead is not worth it for small JSON envelopes.
const brotliMinLength = 1024

type brotliWriter struct {
	gin.ResponseWriter
	bw         *brotli.Writer
	pending    []byte
	headerOnce sync.Once
	compressed bool
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	w.pending = append(w.pending, data...)
	if len(w.pending) < brotliMinLength {
		return len(data), nil
	}
	w.headerOnce.Do(func() {
		w.compressed = true
		w.ResponseWriter.Header().Set("Content-Encoding", "br")
		w.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := w.bw.Write(w.pending)
	w.pending = w.pending[:0]
	return n, err
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// finish writes any buffered bytes that never crossed the compression
// threshold straight through as plain text.
func (w *brotliWriter) finish() error {
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = w.pending[:0]
	return err
}

// Brotli compresses response bodies for clients that advertise br support.
// WebSocket upgrades pass through untouched since the handshake fails when
// the response writer is wrapped.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}
		if !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brotliWriter{
			ResponseWriter: c.Writer,
			bw:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
			if w.compressed {
				w.bw.Close()
			}
		}()

		c.Writer = w
		c.Next()
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
