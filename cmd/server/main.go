// Command server exposes the provider registry over HTTP: a small demo
// form at / and JSON endpoints under /api.
package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"stockfetch/internal/config"
	"stockfetch/internal/httpx"
	"stockfetch/internal/registry"
	"stockfetch/internal/source"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>stockfetch</title></head>
<body>
<h1>stockfetch</h1>
<form action="/api/historical" method="get">
  <label>Provider
    <select name="api">
      {{range .Providers}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
  </label>
  <label>Symbol <input name="symbol" value="AAPL"></label>
  <label>Start <input name="start" value="{{.Start}}"></label>
  <label>End <input name="end" value="{{.End}}"></label>
  <label>Granularity <input name="granularity" value="1d"></label>
  <button type="submit">Fetch</button>
</form>
</body>
</html>
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	opts := []registry.Option{
		registry.WithHTTPClient(httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)),
	}
	for name, u := range cfg.BaseURLs() {
		opts = append(opts, registry.WithBaseURL(name, u))
	}
	reg := registry.New(opts...)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newRouter(reg *registry.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("index").Parse(indexHTML)))

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index", gin.H{
			"Providers": reg.Names(),
			"Start":     time.Now().AddDate(0, -1, 0).Format(source.DateLayout),
			"End":       time.Now().Format(source.DateLayout),
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/api/providers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"providers": reg.Names()})
	})
	r.GET("/api/historical", handleHistorical(reg))
	r.GET("/api/realtime", handleRealtime(reg))
	return r
}

func handleHistorical(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Query("symbol")
		if symbol == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing symbol query param"})
			return
		}
		src, err := reg.Get(c.DefaultQuery("api", "yahoo_finance"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		bars, err := src.GetHistoricalData(c.Request.Context(), symbol,
			c.Query("start"), c.Query("end"), c.DefaultQuery("granularity", "1d"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"provider": src.Name(), "symbol": symbol, "bars": bars})
	}
}

func handleRealtime(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Query("symbol")
		if symbol == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing symbol query param"})
			return
		}
		src, err := reg.Get(c.DefaultQuery("api", "yahoo_finance"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		quote, err := src.GetRealtimeData(c.Request.Context(), symbol)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"provider": src.Name(), "quote": quote})
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrDateRange),
		errors.Is(err, source.ErrInvalidInterval),
		errors.Is(err, source.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrInvalidSymbol):
		return http.StatusNotFound
	case errors.Is(err, source.ErrMissingCredential):
		return http.StatusInternalServerError
	case errors.Is(err, source.ErrAPIFailure), errors.Is(err, source.ErrDataSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
