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

    "github.com/valleturismo/reservation-engine/internal/config"
)

// cachedResponse is the envelope stored in Redis for a cacheable hit.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// bodyRecorder tees the response body up to a byte limit while the
// original writer streams it to the client.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    overflow bool
    limit    int
}

func (br *bodyRecorder) WriteHeader(code int) {
    br.status = code
    br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
    if !br.overflow {
        if br.limit > 0 && br.buf.Len()+len(b) > br.limit {
            br.overflow = true
        } else {
            br.buf.Write(b)
        }
    }
    return br.ResponseWriter.Write(b)
}

// cacheKey hashes the key-strategy parts so availability queries with long
// query strings still produce bounded Redis keys.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var tail string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        tail = c.Path()
    case "method_route":
        tail = r.Method + ":" + c.Path()
    case "method_route_query":
        tail = r.Method + ":" + c.Path() + "?" + r.URL.RawQuery
    default: // "route_query"
        tail = c.Path() + "?" + r.URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

// NewRedisCache returns a middleware that serves successful responses of
// the configured methods from Redis for the configured TTL.  Only 200
// responses that fit within MaxBodyBytes are stored.  With caching
// disabled or no Redis client available, the middleware is pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 10 * time.Second
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            if rec.status == http.StatusOK && !rec.overflow {
                payload, err := json.Marshal(cachedResponse{
                    Status:      rec.status,
                    ContentType: c.Response().Header().Get(echo.HeaderContentType),
                    Body:        rec.buf.Bytes(),
                })
                if err == nil {
                    // request context may already be done once the body is out
                    _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
                }
            }
            return nil
        }
    }
}
