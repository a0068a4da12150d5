// Package middleware holds the Gin middleware shared by the gateway routes.
package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestDecompression transparently decompresses gzipped request bodies.
// net/http does not decode request bodies, so JSON handlers would otherwise
// see compressed bytes from SDKs that send Content-Encoding: gzip.
func RequestDecompression() gin.HandlerFunc {
	return func(c *gin.Context) {
		enc := strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Encoding")))
		if enc == "" || !strings.Contains(enc, "gzip") {
			c.Next()
			return
		}

		const maxDecompressedBytes = 128 << 20

		gzr, err := gzip.NewReader(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"message": "invalid gzip request body",
					"type":    "invalid_request_error",
				},
			})
			return
		}
		defer gzr.Close()

		decoded, err := io.ReadAll(io.LimitReader(gzr, maxDecompressedBytes+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"message": "failed to decompress gzip request body",
					"type":    "invalid_request_error",
				},
			})
			return
		}
		if int64(len(decoded)) > maxDecompressedBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": gin.H{
					"message": "decompressed request body too large",
					"type":    "invalid_request_error",
				},
			})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(decoded))
		c.Request.ContentLength = int64(len(decoded))
		c.Request.Header.Del("Content-Encoding")
		c.Next()
	}
}
