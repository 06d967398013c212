package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduperWindow(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	d := newDeduper(time.Second)
	d.now = func() time.Time { return now }

	assert.False(t, d.seen("k"))
	assert.True(t, d.seen("k"))

	now = now.Add(1500 * time.Millisecond)
	assert.False(t, d.seen("k"))
	assert.False(t, d.seen("other"))
}

func dedupRouter() *gin.Engine {
	r := gin.New()
	r.Use(Deduplication(time.Minute))
	echo := func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	}
	r.PUT("/items/:id", echo)
	r.GET("/items/:id", echo)
	return r
}

func TestDeduplicationRejectsRepeatedWrites(t *testing.T) {
	r := dedupRouter()
	send := func(method, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/items/1", strings.NewReader(body)))
		return w
	}

	w := send(http.MethodPut, `{"quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"quantity":2}`, w.Body.String())

	w = send(http.MethodPut, `{"quantity":2}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, http.StatusTooManyRequests, decodeEnvelope(t, w).Code)

	assert.Equal(t, http.StatusOK, send(http.MethodPut, `{"quantity":3}`).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "").Code)
}
