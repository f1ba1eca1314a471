package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"stayhub/internal/config"

	"golang.org/x/time/rate"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// callerID возвращает идентичность вызывающего, положенную middleware
// аутентификации в контекст запроса.
func callerID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDContextKey).(string); ok {
		return v
	}
	return ""
}

// HTTPAuth аутентифицирует запрос по API-ключу и ограничивает частоту
// запросов на ключ. Ключ и есть личность вызывающего: его user_id
// кладется в контекст запроса.
type HTTPAuth struct {
	cfg      config.APIConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{cfg: cfg}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled || !a.cfg.HTTP.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			client, err := a.checkAuth(r)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), userIDContextKey, client.UserID))
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

var errPermissionDenied = fmt.Errorf("permission denied")

func (a *HTTPAuth) checkAuth(r *http.Request) (config.APIClientKey, error) {
	apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader()))
	if apiKey == "" {
		return config.APIClientKey{}, fmt.Errorf("missing api key header")
	}

	// Сравнение по всем ключам, чтобы не зависеть от данных во времени
	var matched *config.APIClientKey
	for i := range a.cfg.Auth.APIKeys {
		k := &a.cfg.Auth.APIKeys[i]
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(apiKey)) == 1 {
			matched = k
		}
	}
	if matched == nil {
		return config.APIClientKey{}, fmt.Errorf("invalid api key")
	}
	if matched.UserID == "" {
		return config.APIClientKey{}, fmt.Errorf("api key has no user binding")
	}

	if err := checkPermissions(*matched, r); err != nil {
		return config.APIClientKey{}, err
	}
	return *matched, nil
}

func checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" {
		return nil
	}
	// Пустой список разрешений означает полный доступ
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/payment"):
		return "payments"
	case strings.HasPrefix(path, "/api/v1/cart"):
		return "cart"
	case strings.HasPrefix(path, "/api/v1/bookings"):
		return "bookings"
	case strings.HasPrefix(path, "/api/v1/hotels"):
		return "read:hotels"
	case strings.HasPrefix(path, "/api/v1/stats"):
		return "read:stats"
	}
	return ""
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	lim := a.getLimiter(key)
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) apiKeyHeader() string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}
	return header
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.apiKeyHeader())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
