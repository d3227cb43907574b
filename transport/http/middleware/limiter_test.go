package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"slotbook/config"
	otelMocks "slotbook/infras/otel/mocks"
	"slotbook/shared/cache"
	cacheMocks "slotbook/shared/cache/mocks"
	"slotbook/shared/constant"
	"slotbook/transport/http/middleware"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func limiterConfig(enable bool, maxRequests int) *config.Config {
	cfg := &config.Config{}
	cfg.App.RateLimiter.Enable = enable
	cfg.App.RateLimiter.MaxRequests = maxRequests
	cfg.App.RateLimiter.WindowSeconds = 60

	return cfg
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	cacheMock := cacheMocks.NewMockRedisCache(ctrl)

	m := middleware.NewAppMiddleware(otelMocks.NewOtel(), limiterConfig(false, 1), cacheMock)

	called := false
	recorder := httptest.NewRecorder()

	m.RateLimit()(okHandler(&called)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRateLimitFirstRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	cacheMock := cacheMocks.NewMockRedisCache(ctrl)

	cacheMock.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
	cacheMock.EXPECT().Save(gomock.Any(), gomock.Any(), 1, 60).Return(nil)

	m := middleware.NewAppMiddleware(otelMocks.NewOtel(), limiterConfig(true, 2), cacheMock)

	called := false
	recorder := httptest.NewRecorder()

	m.RateLimit()(okHandler(&called)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	assert.True(t, called)
	assert.Equal(t, "2", recorder.Header().Get(constant.RequestHeaderRateLimit))
	assert.Equal(t, "1", recorder.Header().Get(constant.RequestHeaderRateLimitRemaining))
}

func TestRateLimitExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	cacheMock := cacheMocks.NewMockRedisCache(ctrl)

	cacheMock.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value any) error {
			*(value.(*int)) = 2

			return nil
		})

	m := middleware.NewAppMiddleware(otelMocks.NewOtel(), limiterConfig(true, 2), cacheMock)

	called := false
	recorder := httptest.NewRecorder()

	m.RateLimit()(okHandler(&called)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	cacheMock := cacheMocks.NewMockRedisCache(ctrl)

	cacheMock.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(assert.AnError)

	m := middleware.NewAppMiddleware(otelMocks.NewOtel(), limiterConfig(true, 2), cacheMock)

	called := false
	recorder := httptest.NewRecorder()

	m.RateLimit()(okHandler(&called)).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
