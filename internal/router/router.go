// Package router wires the HTTP surface: the open auth endpoints, the
// token-guarded routes, the bounty API and the SSE update stream.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/openclaw/bountyboard/internal/config"
	"github.com/openclaw/bountyboard/internal/handler"
	"github.com/openclaw/bountyboard/internal/middleware"
)

// Deps is everything route registration needs.
type Deps struct {
	Cfg    config.Config
	Redis  *redis.Client // may be nil; limiter and cache turn into pass-throughs
	Auth   *handler.AuthHandler
	Bounty *handler.BountyHandler
	Stream *handler.StreamHandler
	Upload *handler.UploadHandler
}

// Register mounts all routes on the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	guard := middleware.JWTAuth(d.Cfg.JWTSecret)
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), d.Redis)
	cache := middleware.CacheGET(config.LoadCacheConfig(), d.Redis)

	// Open auth endpoints. The limiter shields the credential and OTP
	// flows from brute force.
	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register, limit)
	auth.POST("/login", d.Auth.Login, limit)
	auth.GET("/google/login", d.Auth.GoogleLogin)
	auth.GET("/google/redirect", d.Auth.GoogleRedirect)
	auth.POST("/forgot-password", d.Auth.ForgotPassword, limit)
	auth.POST("/verify-otp", d.Auth.VerifyOTP, limit)
	auth.POST("/reset-password", d.Auth.ResetPassword, limit)
	auth.GET("/image", d.Upload.ProxyImage)
	auth.GET("/fetch-url/fetch", d.Upload.FetchUploadURL)
	auth.POST("/:userId/update-data", d.Auth.UpdateData)

	// Token-guarded auth endpoints. The static paths are registered
	// before the /:id parameter route.
	auth.GET("/protected", d.Auth.Protected, guard)
	auth.GET("/:id", d.Auth.GetUser, guard)

	// Bounty API. Listing reads go through the short-TTL response cache.
	b := e.Group("/bounties")
	b.GET("/updates", d.Stream.Updates)
	b.GET("/:userId/all/fetch", d.Bounty.List, cache)
	b.GET("/user/:userId/seperateBounties", d.Bounty.Separate)
	b.GET("/filters/filter/apply", d.Bounty.Filter, cache)
	b.GET("/:bountyId/:id", d.Bounty.Detail, guard)
	b.POST("/:id", d.Bounty.Create, guard)
	b.PUT("/:id/accept", d.Bounty.Accept)
	b.PUT("/:id/apply", d.Bounty.Apply)
}
