package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openclaw/bountyboard/internal/config"
)

// captureWriter tees the response body while forwarding to the client,
// so a successful render can be stored for the next request.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// CacheGET returns a short-TTL Redis response cache for GET endpoints.
// It is applied to the bounty listing and filter reads, which are the
// hot paths and tolerate a few seconds of staleness. The key includes
// the route, the query string and the requesting user, because listing
// results are visibility-scoped per requester. Only 200 responses are
// stored. Without Redis the middleware is a pass-through.
func CacheGET(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			r := c.Request()
			// the concrete URL path, not the route pattern: listing
			// routes carry the requester id as a path parameter
			key := strings.Join([]string{
				cfg.Prefix, r.URL.Path, r.URL.RawQuery, currentUserID(c),
			}, ":")

			ctx := r.Context()
			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && cw.buf.Len() > 0 {
				// best effort; a failed SET only costs the next request a render
				_ = rdb.Set(ctx, key, cw.buf.Bytes(), cfg.TTL).Err()
			}
			return nil
		}
	}
}
