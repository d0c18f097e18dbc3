package inja

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the subset of Environment state that is meaningfully
// externally configurable (spec.md §3.6/§6), modeled on the teacher's
// Config/ConfigFromEnvironment/Validate pattern with an INJA_* env
// prefix in place of its STENCIL_* one.
type Config struct {
	Delims Delims

	LstripBlocks bool
	TrimBlocks   bool
	Graceful     bool

	MaxIncludeDepth int
	LogLevel        string
}

// DefaultConfig returns the engine's stock settings.
func DefaultConfig() Config {
	return Config{
		Delims:          DefaultDelims(),
		MaxIncludeDepth: 100,
		LogLevel:        "info",
	}
}

// ConfigFromEnvironment overlays process environment variables onto
// DefaultConfig, mirroring the teacher's ConfigFromEnvironment: each
// INJA_* variable is optional and only overrides its field when set.
func ConfigFromEnvironment() Config {
	cfg := DefaultConfig()
	if v, ok := os.LookupEnv("INJA_GRACEFUL"); ok {
		cfg.Graceful = parseBoolDefault(v, cfg.Graceful)
	}
	if v, ok := os.LookupEnv("INJA_TRIM_BLOCKS"); ok {
		cfg.TrimBlocks = parseBoolDefault(v, cfg.TrimBlocks)
	}
	if v, ok := os.LookupEnv("INJA_LSTRIP_BLOCKS"); ok {
		cfg.LstripBlocks = parseBoolDefault(v, cfg.LstripBlocks)
	}
	if v, ok := os.LookupEnv("INJA_MAX_INCLUDE_DEPTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIncludeDepth = n
		}
	}
	if v, ok := os.LookupEnv("INJA_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("INJA_LINE_STATEMENT_PREFIX"); ok {
		cfg.Delims.LineStatementPrefix = v
	}
	return cfg
}

func parseBoolDefault(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

// Validate checks cfg for internal consistency, matching the teacher's
// Config.Validate shape.
func (cfg Config) Validate() error {
	if cfg.Delims.ExprOpen == "" || cfg.Delims.ExprClose == "" {
		return fmt.Errorf("inja: expression delimiters must not be empty")
	}
	if cfg.Delims.StmtOpen == "" || cfg.Delims.StmtClose == "" {
		return fmt.Errorf("inja: statement delimiters must not be empty")
	}
	if cfg.Delims.CommentOpen == "" || cfg.Delims.CommentClose == "" {
		return fmt.Errorf("inja: comment delimiters must not be empty")
	}
	if cfg.MaxIncludeDepth <= 0 {
		return fmt.Errorf("inja: MaxIncludeDepth must be positive, got %d", cfg.MaxIncludeDepth)
	}
	return nil
}
