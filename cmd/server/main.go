package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/component-visualizer/backend/internal/api"
	"github.com/component-visualizer/backend/internal/catalog"
	"github.com/component-visualizer/backend/internal/config"
	"github.com/component-visualizer/backend/internal/storage"
	"github.com/component-visualizer/backend/internal/svg"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	defaultConfig := filepath.Join(exeDir, "ComponentVisualizer.config")
	configPath := pflag.String("config", defaultConfig, "Path to the XML configuration file")
	pflag.Parse()

	// Load XML configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Advanced.LogLevel)

	// Pin-matching rules: defaults unless a rules file is present
	rules := svg.DefaultRules()
	if _, err := os.Stat(cfg.Catalog.RulesFile); err == nil {
		if parsed, err := svg.ParseRules(cfg.Catalog.RulesFile); err != nil {
			logger.Warn().Err(err).Str("file", cfg.Catalog.RulesFile).Msg("failed to parse pin rules, using defaults")
		} else {
			rules = parsed
			logger.Info().Str("file", cfg.Catalog.RulesFile).Msg("pin rules loaded")
		}
	}

	// Initialize upload staging storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Initialize the component catalog
	catalogMgr := catalog.NewManager(cfg.GetDataDir(), svg.NewResolver(rules), cfg.Catalog.MaxConcurrentResolves, logger)

	if cfg.Storage.EnablePersistence {
		store, err := catalog.NewDuckStore(cfg.Storage.IndexFile)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to open catalog index, persistence disabled")
		} else {
			defer store.Close()
			catalogMgr.SetStore(store)
		}
	}

	if err := catalogMgr.Load(); err != nil {
		logger.Error().Err(err).Msg("initial catalog load failed; listing will report the failure")
	}

	// Initialize API handler
	h := api.NewHandler(catalogMgr, fileStore, Version)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				strings.HasSuffix(path, "/stats")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/upload") ||
				strings.Contains(path, "/reload")
		},
		ErrorMessage: "Request timeout - resolution took too long",
	}))

	// Compression middleware
	if cfg.Catalog.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Catalog.CompressionLevel,
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// API Routes
	apiGroup := e.Group("/api")

	apiGroup.GET("/", h.HandleRoot)
	apiGroup.GET("/health", h.HandleHealth)

	// Component catalog
	apiGroup.GET("/components", h.HandleListComponents)
	apiGroup.GET("/components/msgpack", h.HandleListComponentsMsgpack)
	apiGroup.GET("/components/:id", h.HandleGetComponent)
	apiGroup.GET("/components/:id/svg/:view", h.HandleGetComponentSvg)
	apiGroup.POST("/components/upload", h.HandleUploadComponent)

	// Catalog management
	apiGroup.POST("/catalog/reload", h.HandleReloadCatalog)
	apiGroup.GET("/catalog/stats", h.HandleCatalogStats)

	// Upload staging
	apiGroup.GET("/files/recent", h.HandleRecentUploads)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	stats := catalogMgr.Stats()

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Component Visualizer Server                     ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:     %-45s║\n", *configPath)
	fmt.Printf("║  Listen:     http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:   %-45s║\n", cfg.GetDataDir())
	fmt.Printf("║  Components: %-45d║\n", stats.ComponentsLoaded)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}

// newLogger builds the process-wide structured logger.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
