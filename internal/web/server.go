// Package web gin server
package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/controller"
	"github.com/Laisky/laisky-blog-search/library/log"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// DefaultAllowedDomains used when no cors domain is configured
var DefaultAllowedDomains = []string{"laisky.com"}

// NewServer build gin engine serving the blog api under /api
func NewServer(blog *controller.Blog, allowedDomains []string) *gin.Engine {
	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(log.Logger.Named("gin")),
		),
		newCORS(allowedDomains),
	)

	health := newStatusHandler()
	server.GET("/health", health)
	server.HEAD("/health", health)
	blog.RegisterRoutes(server.Group("/api"))
	return server
}

// RunServer serve until ctx is done, then shut down gracefully
func RunServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info("listening on http", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server exit")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown http server")
	}

	log.Logger.Info("http server stopped")
	return nil
}

func newStatusHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Allow", "GET, HEAD")
		if ctx.Request.Method == http.MethodHead {
			ctx.Status(http.StatusOK)
			return
		}

		ctx.String(http.StatusOK, "ok")
	}
}

// isAllowedHost host is one of domains or a subdomain of one
func isAllowedHost(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}

// newCORS allow browsers on domains and their subdomains
func newCORS(allowedDomains []string) gin.HandlerFunc {
	domains := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}

	return func(ctx *gin.Context) {
		origin := strings.TrimSpace(ctx.Request.Header.Get("Origin"))
		allowedOrigin := ""

		if origin != "" {
			parsedOriginURL, err := url.Parse(origin)
			if err == nil {
				host := strings.ToLower(parsedOriginURL.Hostname())
				if host != "" && isAllowedHost(host, domains) {
					allowedOrigin = origin
				}
			}
		}

		if allowedOrigin != "" {
			ctx.Header("Access-Control-Allow-Origin", allowedOrigin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin")
			ctx.Header("Access-Control-Max-Age", "86400")
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			// preflight from a disallowed origin
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}
