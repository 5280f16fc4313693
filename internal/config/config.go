// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all recognized settings for the application.
// Values come from environment variables (a .env file is loaded by main);
// every field has a working default so a bare environment still boots.
type Config struct {
	// Gateway
	GatewayURL     string        // Base URL of the local chat-completion server
	ModelName      string        // Model identifier passed to the gateway
	RequestTimeout time.Duration // Per-request timeout for gateway calls
	MaxAttempts    int           // Total attempts per gateway call (1 = no retry)
	MaxTokens      int           // Default completion token limit

	// Per-use-case temperatures
	AnalysisTemperature   float64
	LetterTemperature     float64
	ResearchTemperature   float64
	ExtractionTemperature float64

	// Letter shaping
	LetterMinWords  int
	LetterMaxWords  int
	MaxAdjustPasses int // Bound on word-count adjustment rounds

	// Section analysis
	AnalysisConcurrency int // Cap on concurrent per-section gateway calls

	// File handling
	MaxUploadMB  int
	Extensions   []string // Accepted upload extensions, lowercase with dot
	OutputDir    string
	CacheDir     string
	CacheMaxAge  time.Duration // Company research retention window
	CacheEnabled bool
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		GatewayURL:     strings.TrimRight(getEnvString("LM_STUDIO_URL", "http://localhost:1234"), "/"),
		ModelName:      getEnvString("MODEL_NAME", "gpt-oss-20b"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 300*time.Second),
		MaxAttempts:    getEnvInt("GATEWAY_MAX_ATTEMPTS", 2),
		MaxTokens:      getEnvInt("DEFAULT_MAX_TOKENS", 2000),

		AnalysisTemperature:   getEnvFloat("CV_ANALYSIS_TEMPERATURE", 0.4),
		LetterTemperature:     getEnvFloat("MOTIVATION_GENERATION_TEMPERATURE", 0.6),
		ResearchTemperature:   getEnvFloat("COMPANY_RESEARCH_TEMPERATURE", 0.3),
		ExtractionTemperature: getEnvFloat("EXTRACTION_TEMPERATURE", 0.1),

		LetterMinWords:  getEnvInt("MOTIVATION_LETTER_MIN_WORDS", 410),
		LetterMaxWords:  getEnvInt("MOTIVATION_LETTER_MAX_WORDS", 430),
		MaxAdjustPasses: getEnvInt("LETTER_MAX_ADJUST_PASSES", 2),

		AnalysisConcurrency: getEnvInt("ANALYSIS_CONCURRENCY", 3),

		MaxUploadMB:  getEnvInt("MAX_FILE_SIZE_MB", 10),
		Extensions:   getEnvList("SUPPORTED_FILE_TYPES", ".pdf,.docx,.txt"),
		OutputDir:    getEnvString("OUTPUT_DIR", "data/output"),
		CacheDir:     getEnvString("CACHE_DIR", "data/cache"),
		CacheMaxAge:  getEnvDuration("CACHE_DURATION", 7*24*time.Hour),
		CacheEnabled: getEnvBool("CACHE_COMPANY_RESEARCH", true),
	}
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("config error: gateway URL is empty")
	}
	if c.LetterMinWords <= 0 || c.LetterMaxWords < c.LetterMinWords {
		return fmt.Errorf("config error: letter word band %d-%d is invalid", c.LetterMinWords, c.LetterMaxWords)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config error: 'GATEWAY_MAX_ATTEMPTS' must be at least 1")
	}
	if c.AnalysisConcurrency < 1 {
		return fmt.Errorf("config error: 'ANALYSIS_CONCURRENCY' must be at least 1")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("config error: 'MAX_FILE_SIZE_MB' must be positive")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("config error: no supported file types configured")
	}
	return nil
}

// ExtensionAllowed reports whether a lowercase file extension (with dot) is accepted.
func (c *Config) ExtensionAllowed(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as a float with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
// Plain integers are read as seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable as a trimmed,
// lowercased slice.
func getEnvList(key string, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
