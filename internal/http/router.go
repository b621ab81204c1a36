package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/directory-service/internal/auth"
	"github.com/wenwu/saas-platform/directory-service/internal/config"
	"github.com/wenwu/saas-platform/directory-service/internal/service"
)

// RateLimiter 简单的内存速率限制器
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int           // 最大请求数
	window   time.Duration // 时间窗口
	now      func() time.Time

	lastSweep time.Time
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)
	rl.sweep(now, windowStart)

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no request inside the window, at most once per window.
// Caller holds mu.
func (rl *RateLimiter) sweep(now, windowStart time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(rl.requests, key)
		}
	}
}

// RateLimitMiddleware keys on the authenticated subject, falling back to client IP
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(ContextKeyUserID)
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(key) {
			abortWithError(c, http.StatusTooManyRequests, ErrCodeTooManyRequests,
				"rate limit exceeded, please try again later")
			return
		}

		c.Next()
	}
}

// Services bundles what the HTTP layer calls into
type Services struct {
	Providers *service.ProviderService
	Featured  *service.FeaturedService
	Reviews   *service.ReviewService
	Listing   *service.ListingService
	Auth      *service.AuthService
}

type Server struct {
	router  *gin.Engine
	handler *Handler
	admin   *AdminHandler
	tokens  *auth.TokenIssuer
	cfg     *config.Config
	db      *pgxpool.Pool
	log     *zap.Logger

	userLimiter     *RateLimiter
	authLimiter     *RateLimiter
	registerLimiter *RateLimiter
	reviewLimiter   *RateLimiter
}

// NewServer wires routes. db may be nil, in which case the DB browser is not mounted.
func NewServer(cfg *config.Config, db *pgxpool.Pool, svc Services, tokens *auth.TokenIssuer, log *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	s := &Server{
		router:  router,
		handler: NewHandler(svc.Providers, svc.Reviews, svc.Listing, svc.Auth, log),
		admin:   NewAdminHandler(svc.Providers, svc.Featured, svc.Reviews, log),
		tokens:  tokens,
		cfg:     cfg,
		db:      db,
		log:     log,

		// 每用户每分钟最多 60 次请求
		userLimiter: NewRateLimiter(60, time.Minute),
		// 登录: 每 IP 每分钟 10 次
		authLimiter: NewRateLimiter(10, time.Minute),
		// 注册: 每 IP 每小时 5 次
		registerLimiter: NewRateLimiter(5, time.Hour),
		// 评论: 每 IP 每小时 10 次
		reviewLimiter: NewRateLimiter(10, time.Hour),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "directory-service",
		})
	})

	// Public API - no authentication required
	public := s.router.Group("/api/v1/public")
	{
		public.GET("/providers", s.handler.ListPublicProviders)
		public.GET("/providers/:id", s.handler.GetPublicProvider)
		public.GET("/featured", s.handler.ListPublicFeatured)
		public.POST("/providers/:id/reviews", RateLimitMiddleware(s.reviewLimiter), s.handler.SubmitReview)
	}

	authGroup := s.router.Group("/api/v1/auth")
	{
		authGroup.POST("/register", RateLimitMiddleware(s.registerLimiter), s.handler.Register)
		authGroup.POST("/login", RateLimitMiddleware(s.authLimiter), s.handler.Login)
		authGroup.POST("/admin/login", RateLimitMiddleware(s.authLimiter), s.handler.AdminLogin)
	}

	// Provider self-service - requires a provider token
	my := s.router.Group("/api/v1/my")
	my.Use(JWTAuthMiddleware(s.tokens), RequireRole(auth.RoleProvider))
	my.Use(RateLimitMiddleware(s.userLimiter))
	{
		my.GET("/provider", s.handler.GetMyProvider)
		my.PUT("/provider/tier", s.handler.SetMyTier)
		my.POST("/provider/services", s.handler.AddMyService)
		my.DELETE("/provider/services/:index", s.handler.RemoveMyService)
	}

	// Admin moderation - requires an admin token
	admin := s.router.Group("/api/v1/admin")
	admin.Use(JWTAuthMiddleware(s.tokens), RequireRole(auth.RoleAdmin))
	{
		admin.GET("/providers", s.admin.ListProviders)
		admin.GET("/providers/:id", s.admin.GetProvider)
		admin.POST("/providers/:id/approve", s.admin.ApproveProvider)
		admin.POST("/providers/:id/reject", s.admin.RejectProvider)
		admin.PUT("/providers/:id/badge", s.admin.SetBadge)
		admin.GET("/providers/:id/logs", s.admin.GetProviderLogs)

		admin.GET("/featured", s.admin.ListFeaturedSlots)
		admin.PUT("/featured/:slot", s.admin.AssignFeaturedSlot)
		admin.DELETE("/featured/:slot", s.admin.RemoveFeaturedSlot)
		admin.POST("/featured/:slot/rotate", s.admin.RotateFeaturedSlot)

		admin.GET("/reviews", s.admin.ListReviews)
		admin.PUT("/reviews/:id", s.admin.ModerateReview)

		admin.GET("/stats", s.admin.GetStats)
	}

	// Internal Admin API (需要 Internal Secret)
	if s.db != nil {
		internalAdmin := s.router.Group("/api/internal/admin")
		internalAdmin.Use(InternalAuthMiddleware(s.cfg.InternalSecret))
		{
			dbAdminHandler := NewDBAdminHandler(s.db, s.cfg.Database.Schema, s.log)
			dbAdmin := internalAdmin.Group("/db")
			{
				dbAdmin.GET("/tables", dbAdminHandler.ListTables)
				dbAdmin.GET("/tables/:table/schema", dbAdminHandler.GetTableSchema)
				dbAdmin.GET("/tables/:table/rows", dbAdminHandler.QueryRows)
			}
		}
	}
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
