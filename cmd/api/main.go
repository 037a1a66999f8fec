package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tapgate/internal/auditlog"
	"tapgate/internal/auth"
	"tapgate/internal/config"
	"tapgate/internal/httpmiddleware"
	"tapgate/internal/metrics"
	"tapgate/internal/notify"
	"tapgate/internal/person"
	"tapgate/internal/queue"
	"tapgate/internal/ratelimit"
	"tapgate/internal/scan"
	"tapgate/internal/store"
	"tapgate/internal/tap"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	var limiter ratelimit.Limiter
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		limiter = ratelimit.NewMemory(cfg.ScanLimitPerMin, time.Minute)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "tapgate:notifications")
		limiter = ratelimit.NewRedis(redisClient.Client, cfg.ScanLimitPerMin, time.Minute)
	}

	persons := person.NewStore(db.Client, cfg.DBTimeout)
	taps := tap.NewStore(db.Client, cfg.DBTimeout)
	audit := auditlog.NewStore(db.Client, cfg.DBTimeout)
	outbox := notify.NewOutbox(db.Client, cfg.DBTimeout)

	resolver := person.NewResolver(persons, cfg.PhotoBaseURL)
	builder := notify.Builder{School: cfg.SchoolName, UsePrimary: cfg.ContactUsePrimary}
	m := metrics.New()

	svc := scan.NewService(resolver, taps, audit, outbox, q, limiter, builder, m, cfg.DebounceWindow)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil && db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// The scan endpoint accepts both transports: readers wired as HTTP
	// GET clients pass rfid in the query, kiosks POST a JSON body.
	r.GET("/api/scan-rfid", func(c *gin.Context) {
		rfid := c.Query("rfid")
		if rfid == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "RFID_REQUIRED",
				"message": "RFID parameter is required",
			})
			return
		}
		handleScan(c, svc, rfid, c.Query("location"))
	})

	r.POST("/api/scan-rfid", func(c *gin.Context) {
		var req struct {
			RFID     string `json:"rfid" binding:"required,max=50"`
			Location string `json:"location"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "VALIDATION",
				"message": err.Error(),
			})
			return
		}
		handleScan(c, svc, req.RFID, req.Location)
	})

	r.POST("/api/auth/token", func(c *gin.Context) {
		var req struct {
			ClientID string `json:"client_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tok, err := auth.Issue(req.ClientID, "dashboard", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token": tok.Value,
			"expires_at":   tok.ExpiresAt.Unix(),
		})
	})

	authGroup := r.Group("/api", auth.DashboardAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.GET("/scans/recent", func(c *gin.Context) {
		limit := queryInt(c, "limit", 20)
		events, err := taps.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "INTERNAL"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
	})

	authGroup.GET("/scan-logs", func(c *gin.Context) {
		limit := queryInt(c, "limit", 50)
		entries, err := audit.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "INTERNAL"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// handleScan runs the pipeline and maps the error taxonomy onto HTTP.
func handleScan(c *gin.Context, svc *scan.Service, rfid, location string) {
	res, err := svc.Scan(c.Request.Context(), scan.Request{
		RFID:     rfid,
		Location: location,
		IP:       c.ClientIP(),
		Method:   c.Request.Method,
	})
	switch {
	case errors.Is(err, person.ErrInvalidRFID):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "RFID_REQUIRED",
			"message": "RFID parameter is required",
		})
	case errors.Is(err, person.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "RFID_NOT_FOUND",
			"message": "RFID card not registered in the system",
		})
	case errors.Is(err, scan.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error":   "RATE_LIMITED",
			"message": "too many scans for this card, slow down",
		})
	case err != nil:
		log.Printf("scan failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "INTERNAL",
			"message": "scan could not be processed",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"data":        res.Person,
			"person_type": res.Person.Type,
			"state":       res.State,
			"suppressed":  res.Suppressed,
			"scan_time":   res.ScanTime.Format("2006-01-02 15:04:05"),
		})
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
