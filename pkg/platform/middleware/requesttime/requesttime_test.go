package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var first, second time.Time
	h := Middleware(func() time.Time { return fixed })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = Now(r.Context())
		second = Now(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fixed, first)
	assert.Equal(t, first, second)
}

func TestMiddlewareDefaultsToWallClock(t *testing.T) {
	var got time.Time
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Now(r.Context())
	}))

	before := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, got.Before(before))
}

func TestNowOutsideRequest(t *testing.T) {
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)

	fixed := time.Unix(0, 0)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
}
