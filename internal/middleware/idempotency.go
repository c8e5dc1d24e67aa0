package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/idempotency"
	"go.uber.org/zap"
)

// captureWriter keeps a copy of the response body, up to a limit, so
// it can be stored for replay.
type captureWriter struct {
	gin.ResponseWriter
	body     bytes.Buffer
	overflow bool
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.capture(data)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *captureWriter) capture(data []byte) {
	if w.overflow {
		return
	}
	if w.body.Len()+len(data) > idempotency.MaxBodyBytes {
		w.overflow = true
		w.body.Reset()
		return
	}
	w.body.Write(data)
}

// Idempotency makes POST, PUT, PATCH and DELETE requests carrying an
// Idempotency-Key header safe to resend. Requests without the header
// pass straight through. It must run after AuthMiddleware: keys are
// scoped to the caller.
func Idempotency(store *idempotency.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		clientKey := strings.TrimSpace(c.GetHeader(idempotency.Header))
		if clientKey == "" {
			c.Next()
			return
		}
		if len(clientKey) > idempotency.MaxKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key is too long"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := idempotency.Key(GetUserID(c).String(), clientKey)
		hash := idempotency.Fingerprint(c.Request.Method, c.Request.URL.RequestURI(), body)

		replay, err := store.Begin(c.Request.Context(), key, hash)
		switch {
		case errors.Is(err, idempotency.ErrInFlight):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": idempotency.ErrInFlight.Message})
			return
		case errors.Is(err, idempotency.ErrKeyReuse):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": idempotency.ErrKeyReuse.Message})
			return
		case err != nil:
			logger.Error("idempotency begin failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "request could not be deduplicated, try again"})
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.Status, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		// The request context may already be cancelled; the record must
		// still be written.
		ctx := context.WithoutCancel(c.Request.Context())
		status := c.Writer.Status()
		if status >= 200 && status < 300 && !writer.overflow {
			err = store.Succeed(ctx, key, hash, status, c.Writer.Header().Get("Content-Type"), writer.body.Bytes())
		} else {
			err = store.Fail(ctx, key, hash)
		}
		if err != nil {
			logger.Warn("idempotency record not saved", zap.Error(err), zap.Int("status", status))
		}
	}
}
