package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
)

// cachedResponse is the Redis payload: enough to replay the response
// byte-for-byte for JSON endpoints.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyCapture duplicates the response body while forwarding it to the
// client, up to a configured limit.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	if w.limit <= 0 || w.buf.Len()+len(b) <= w.limit {
		w.buf.Write(b)
	} else {
		w.buf.Write(b[:w.limit-w.buf.Len()])
	}
	return w.ResponseWriter.Write(b)
}

// NewRedisCache caches successful responses of the configured methods in
// Redis.  Used on the seat-config read path: repeated queries with no
// intervening booking replay identical occupancy data, and a completed
// booking flushes the entry (see FlushRoute) so the view catches up
// immediately rather than after the TTL.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg, c.Request().Method, c.Path(), c.Request().URL.RawQuery)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cached cachedResponse
				if json.Unmarshal(raw, &cached) == nil {
					c.Response().Header().Set(echo.HeaderContentType, cached.ContentType)
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(cached.Status)
					_, _ = c.Response().Write(cached.Body)
					return nil
				}
			}

			rec := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK {
				payload, err := json.Marshal(cachedResponse{
					Status:      rec.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        rec.buf.Bytes(),
				})
				if err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}

// FlushRoute drops the cached entry for one route (no query string).
// Called after a successful booking so the seat map does not serve stale
// occupancy for the rest of the TTL.
func FlushRoute(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client, method, route string) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, cacheKey(cfg, method, route, "")).Err()
}

// cacheKey hashes method/route/query under the configured prefix so the
// key stays short and free of unsafe characters.
func cacheKey(cfg config.CacheConfig, method, route, query string) string {
	sum := sha1.Sum([]byte(method + ":" + route + ":" + query))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}
