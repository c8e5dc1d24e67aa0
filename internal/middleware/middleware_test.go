package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/auth"
	"github.com/lalith-99/timelinealchemy/internal/cache"
	"github.com/lalith-99/timelinealchemy/internal/idempotency"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, role models.Role) (string, uuid.UUID) {
	t.Helper()
	user := &models.User{ID: uuid.New(), OrganizationID: uuid.New(), Email: "u@example.com", Role: role}
	token, err := auth.GenerateToken(user, secret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token, user.ID
}

func TestAuthAndRole(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/admin", AuthMiddleware(secret), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)

	client, _ := bearer(t, models.RoleClient)
	assert.Equal(t, http.StatusForbidden, do(client).Code)

	admin, adminID := bearer(t, models.RoleAdmin)
	w := do(admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), adminID.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	store := idempotency.NewStore(cache.NewMemory(), time.Hour)
	var calls atomic.Int32

	r := gin.New()
	r.POST("/things", AuthMiddleware(secret), Idempotency(store, zap.NewNop()), func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	token, _ := bearer(t, models.RoleAdmin)
	send := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(body))
		req.Header.Set("Authorization", token)
		if key != "" {
			req.Header.Set(idempotency.Header, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send("k1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := send("k1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.EqualValues(t, 1, calls.Load(), "handler ran once")

	assert.Equal(t, http.StatusUnprocessableEntity, send("k1", `{"a":2}`).Code)

	send("", `{"a":1}`)
	assert.EqualValues(t, 2, calls.Load(), "no key, no deduplication")
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	store := idempotency.NewStore(cache.NewMemory(), time.Hour)
	var fail atomic.Bool
	fail.Store(true)

	r := gin.New()
	r.POST("/things", AuthMiddleware(secret), Idempotency(store, zap.NewNop()), func(c *gin.Context) {
		if fail.Load() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nope"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	token, _ := bearer(t, models.RoleClient)
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{}`))
		req.Header.Set("Authorization", token)
		req.Header.Set(idempotency.Header, "retry-me")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send())
	fail.Store(false)
	assert.Equal(t, http.StatusOK, send())
}
