package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/prompt"
)

// Config is the server configuration read from the environment
type Config struct {
	Port     string
	DataDir  string
	LogLevel string
	GinMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IPLimit     int
	StreamLimit int
	CacheTTL    time.Duration

	TwistThreshold float64
	VocabularyFile string

	CanvasWidth  int
	CanvasHeight int
	CellSize     int
	FrameRate    int
	MaxGridCells int

	RequestTimeout       time.Duration
	AllowedOrigins       []string
	EnableHSTS           bool
	CSPReportURI         string
	AdminToken           string
	MemorySampleInterval time.Duration
}

// Load reads an optional .env file (the first of files that exists, or
// ".env" when none are given) and then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, apperrors.NewConfigurationError(fmt.Sprintf("failed to load %s", f), err)
		}
		break
	}

	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		DataDir:  getEnv("DATA_DIR", "./data"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		GinMode:  getEnv("GIN_MODE", "release"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		IPLimit:     getEnvInt("IP_LIMIT_PER_MIN", 60),
		StreamLimit: getEnvInt("STREAM_LIMIT_PER_MIN", 6),
		CacheTTL:    getEnvDuration("CACHE_TTL", 15*time.Minute),

		TwistThreshold: getEnvFloat("TWIST_THRESHOLD", prompt.DefaultThreshold),
		VocabularyFile: getEnv("VOCABULARY_FILE", ""),

		CanvasWidth:  getEnvInt("CANVAS_WIDTH", 800),
		CanvasHeight: getEnvInt("CANVAS_HEIGHT", 300),
		CellSize:     getEnvInt("CELL_SIZE", 20),
		FrameRate:    getEnvInt("FRAME_RATE", 30),
		MaxGridCells: getEnvInt("MAX_GRID_CELLS", 10000),

		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		EnableHSTS:           getEnvBool("ENABLE_HSTS", false),
		CSPReportURI:         getEnv("CSP_REPORT_URI", ""),
		AdminToken:           getEnv("ADMIN_TOKEN", ""),
		MemorySampleInterval: getEnvDuration("MEMORY_SAMPLE_INTERVAL", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail later at startup
func (c Config) Validate() error {
	var problems []error

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Errorf("PORT must be a TCP port, got %q", c.Port))
	}
	if c.IPLimit < 1 {
		problems = append(problems, fmt.Errorf("IP_LIMIT_PER_MIN must be positive, got %d", c.IPLimit))
	}
	if c.StreamLimit < 1 {
		problems = append(problems, fmt.Errorf("STREAM_LIMIT_PER_MIN must be positive, got %d", c.StreamLimit))
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL))
	}
	if c.CellSize < 1 {
		problems = append(problems, fmt.Errorf("CELL_SIZE must be positive, got %d", c.CellSize))
	}
	if c.CanvasWidth < c.CellSize || c.CanvasHeight < c.CellSize {
		problems = append(problems, fmt.Errorf("canvas %dx%d is smaller than one cell", c.CanvasWidth, c.CanvasHeight))
	}
	if c.FrameRate < 1 || c.FrameRate > 120 {
		problems = append(problems, fmt.Errorf("FRAME_RATE must be within [1, 120], got %d", c.FrameRate))
	}
	if c.MaxGridCells < 1 {
		problems = append(problems, fmt.Errorf("MAX_GRID_CELLS must be positive, got %d", c.MaxGridCells))
	}
	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			problems = append(problems, fmt.Errorf("ALLOWED_ORIGINS entry %q must be * or an http(s) origin", origin))
		}
	}

	if len(problems) > 0 {
		return apperrors.NewConfigurationError("invalid configuration", errors.Join(problems...))
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
