package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"photo-library/internal/logging"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Defaults for values that fall back when unset or invalid.
const (
	DefaultIndexInterval     = 30 * time.Minute
	DefaultChunkItems        = 200
	DefaultChunkSeconds      = 2
	databaseFileName         = "photos.db"
	defaultMediaDir          = "/photos"
	defaultDatabaseDir       = "/database"
	defaultPort              = "8080"
	defaultMetricsPort       = "9090"
	defaultIndexIntervalText = "30m"
)

// ErrInvalidTokenHash means ACCESS_TOKEN_HASH is set but is not a bcrypt hash.
var ErrInvalidTokenHash = errors.New("ACCESS_TOKEN_HASH is not a bcrypt hash")

// Config holds all application configuration
type Config struct {
	MediaDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	IndexInterval   time.Duration
	WatchEnabled    bool
	VipsEnabled     bool
	LogRenders      bool
	LogHealthChecks bool

	// AccessTokenHash enables bearer-token auth when non-empty.
	AccessTokenHash string

	// Enumeration defaults for requests that do not set their own policy.
	DefaultChunkItems   int
	DefaultChunkSeconds int

	// Derived paths
	DatabasePath string
}

// DefaultChunkDuration returns DefaultChunkSeconds as a duration.
func (c *Config) DefaultChunkDuration() time.Duration {
	return time.Duration(c.DefaultChunkSeconds) * time.Second
}

// AuthEnabled reports whether requests must carry the access token.
func (c *Config) AuthEnabled() bool {
	return c.AccessTokenHash != ""
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := readConfig()
	if err != nil {
		return nil, err
	}

	logging.Info("  MEDIA_DIR:             %s", config.MediaDir)
	logging.Info("  DATABASE_DIR:          %s", config.DatabaseDir)
	logging.Info("  PORT:                  %s", config.Port)
	logging.Info("  METRICS_PORT:          %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:       %v", config.MetricsEnabled)
	logging.Info("  INDEX_INTERVAL:        %v", config.IndexInterval)
	logging.Info("  WATCH_ENABLED:         %v", config.WatchEnabled)
	logging.Info("  VIPS_ENABLED:          %v", config.VipsEnabled)
	logging.Info("  RENDER_WORKERS:        %s", getEnv("RENDER_WORKERS", "auto"))
	logging.Info("  ACCESS_TOKEN_HASH:     %s", redacted(config.AccessTokenHash))
	logging.Info("  DEFAULT_CHUNK_ITEMS:   %d", config.DefaultChunkItems)
	logging.Info("  DEFAULT_CHUNK_SECONDS: %d", config.DefaultChunkSeconds)
	logging.Info("  LOG_RENDERS:           %v", config.LogRenders)
	logging.Info("  LOG_HEALTH_CHECKS:     %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Media directory (absolute): %s", config.MediaDir)
	logging.Info("  Database directory (absolute): %s", config.DatabaseDir)

	// Check/create media directory (warning only)
	if err := ensureDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	// Ensure base database directory exists (required for database)
	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Watcher:     %s", enabledString(config.WatchEnabled))
	logging.Info("    libvips:     %s", enabledString(config.VipsEnabled))
	logging.Info("    Auth:        %s", enabledString(config.AuthEnabled()))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// readConfig reads the environment without touching the filesystem beyond
// resolving absolute paths.
func readConfig() (*Config, error) {
	mediaDir, err := filepath.Abs(getEnv("MEDIA_DIR", defaultMediaDir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}

	databaseDir, err := filepath.Abs(getEnv("DATABASE_DIR", defaultDatabaseDir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	indexInterval, err := time.ParseDuration(getEnv("INDEX_INTERVAL", defaultIndexIntervalText))
	if err != nil || indexInterval < 0 {
		logging.Warn("  Invalid INDEX_INTERVAL, using default: %v", DefaultIndexInterval)
		indexInterval = DefaultIndexInterval
	}

	tokenHash := strings.TrimSpace(os.Getenv("ACCESS_TOKEN_HASH"))
	if tokenHash != "" {
		if _, err := bcrypt.Cost([]byte(tokenHash)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTokenHash, err)
		}
	}

	return &Config{
		MediaDir:            mediaDir,
		DatabaseDir:         databaseDir,
		Port:                getEnv("PORT", defaultPort),
		MetricsPort:         getEnv("METRICS_PORT", defaultMetricsPort),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		IndexInterval:       indexInterval,
		WatchEnabled:        getEnvBool("WATCH_ENABLED", true),
		VipsEnabled:         getEnvBool("VIPS_ENABLED", true),
		LogRenders:          getEnvBool("LOG_RENDERS", false),
		LogHealthChecks:     getEnvBool("LOG_HEALTH_CHECKS", true),
		AccessTokenHash:     tokenHash,
		DefaultChunkItems:   getEnvInt("DEFAULT_CHUNK_ITEMS", DefaultChunkItems, 0),
		DefaultChunkSeconds: getEnvInt("DEFAULT_CHUNK_SECONDS", DefaultChunkSeconds, 0),
		DatabasePath:        filepath.Join(databaseDir, databaseFileName),
	}, nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func redacted(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "(set)"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogRenderInit logs the image decoder and render pool size.
func LogRenderInit(decoder string, workers int, vipsErr error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("RENDERER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if vipsErr != nil {
		logging.Warn("  libvips unavailable: %v", vipsErr)
		logging.Warn("  Falling back to the pure Go decoder")
	}
	logging.Info("  Decoder:        %s", decoder)
	logging.Info("  Render workers: %d", workers)
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration, watch bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if interval > 0 {
		logging.Info("  Index interval: %v", interval)
	} else {
		logging.Info("  Index interval: DISABLED")
	}
	if watch {
		logging.Info("  Change detection: filesystem events")
	} else {
		logging.Info("  Change detection: polling")
	}
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// MemoryConfig summarizes how the Go memory limit was configured.
type MemoryConfig struct {
	Configured     bool
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// LogMemoryConfig logs the memory limit configuration
func LogMemoryConfig(mc MemoryConfig) {
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !mc.Configured {
		logging.Info("  GOMEMLIMIT: not configured (render backpressure disabled)")
		logging.Info("")
		return
	}

	switch mc.Source {
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", formatBytes(mc.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%%)", formatBytes(mc.GoMemLimit), mc.Ratio*100)
	default:
		logging.Info("  GOMEMLIMIT:      %s (from %s)", formatBytes(mc.GoMemLimit), mc.Source)
	}
	logging.Info("")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logRenders, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logRenders {
		logging.Info("    Render request logging: ON")
	} else {
		logging.Info("    Render request logging: OFF (set LOG_RENDERS=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           __    _ __
   / __ \/ /_  ____  / /_____     / /   (_) /_  _________ ________  __
  / /_/ / __ \/ __ \/ __/ __ \   / /   / / __ \/ ___/ __ '/ ___/ / / /
 / ____/ / / / /_/ / /_/ /_/ /  / /___/ / /_/ / /  / /_/ / /  / /_/ /
/_/   /_/ /_/\____/\__/\____/  /_____/_/_.___/_/   \__,_/_/   \__, /
                                                             /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "media" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d albums (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvInt parses key as an integer no smaller than minValue.
func getEnvInt(key string, defaultValue, minValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < minValue {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
