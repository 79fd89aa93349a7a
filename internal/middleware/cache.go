package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/theater-box-office/internal/config"
)

// SeatMapCache caches rendered seat-map responses in Redis, keyed by
// show.  Because the seat map changes on every ticket mutation, cache
// entries are tied to a per-show version counter: mutating handlers
// call Invalidate, which bumps the counter and makes all entries for
// that show unreachable.  Stale entries expire via the TTL.
type SeatMapCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
}

// NewSeatMapCache builds a SeatMapCache.  A nil Redis client or a
// disabled config yields a cache whose middleware is a no-op.
func NewSeatMapCache(cfg config.CacheConfig, rdb *redis.Client) *SeatMapCache {
    return &SeatMapCache{cfg: cfg, rdb: rdb}
}

func (s *SeatMapCache) enabled() bool {
    return s != nil && s.rdb != nil && s.cfg.Enabled
}

func (s *SeatMapCache) versionKey(showID string) string {
    return s.cfg.Prefix + ":ver:" + showID
}

// key derives the cache key for one request: the show's current version
// plus a digest of the query string, so selection parameters get their
// own entries.
func (s *SeatMapCache) key(ctx context.Context, showID, rawQuery string) (string, error) {
    ver, err := s.rdb.Get(ctx, s.versionKey(showID)).Result()
    if err == redis.Nil {
        ver = "0"
    } else if err != nil {
        return "", err
    }
    sum := sha1.Sum([]byte(rawQuery))
    return fmt.Sprintf("%s:%s:v%s:%x", s.cfg.Prefix, showID, ver, sum[:]), nil
}

// Invalidate bumps the show's version counter so every cached seat map
// of the show becomes unreachable.  Errors are swallowed: a failed
// invalidation only means a stale map may be served until the TTL.
func (s *SeatMapCache) Invalidate(ctx context.Context, showID uint64) {
    if !s.enabled() {
        return
    }
    s.rdb.Incr(ctx, s.versionKey(fmt.Sprintf("%d", showID)))
}

// captureWriter captures the response body while forwarding it to the
// client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// Middleware caches successful GET responses of the wrapped route.  The
// route must carry the show ID in the :id path parameter.
func (s *SeatMapCache) Middleware() echo.MiddlewareFunc {
    if !s.enabled() {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    ttl := s.cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(s.cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !strings.EqualFold(c.Request().Method, http.MethodGet) {
                return next(c)
            }
            showID := c.Param("id")
            if showID == "" {
                return next(c)
            }

            ctx := c.Request().Context()
            key, err := s.key(ctx, showID, c.Request().URL.RawQuery)
            if err == nil {
                if body, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.JSONBlob(http.StatusOK, body)
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            // Only store fully captured bodies; an oversized response
            // is served uncached.
            if cw.status == http.StatusOK && key != "" && (maxBody <= 0 || cw.size <= maxBody) {
                s.rdb.SetEx(context.Background(), key, cw.buf.Bytes(), ttl)
            }
            return nil
        }
    }
}
