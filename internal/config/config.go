package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 10 * 1024 * 1024 // synchronous analysis limit
	DefaultRegion      = "us-east-1"
	DefaultTimeout     = 2 * time.Minute

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the notice extractor
type Config struct {
	// Server configuration
	Mode   string // "server" or "stdio"
	Host   string
	Port   int
	APIKey string

	// Document configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// Analysis configuration
	Region         string
	Endpoint       string
	VocabularyFile string
	Timeout        time.Duration

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio,
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		MaxFileSize:  DefaultMaxFileSize,
		Region:       DefaultRegion,
		Timeout:      DefaultTimeout,
		Version:      "1.0.0",
		ServerName:   "mcp-notice-extractor",
		LogLevel:     DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("NOTICE")
	viper.AutomaticEnv()

	// The AWS variables are honored so the region follows the standard SDK setup
	_ = viper.BindEnv("region", "NOTICE_REGION", "AWS_REGION", "AWS_DEFAULT_REGION")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("region", cfg.Region)
	viper.SetDefault("endpoint", cfg.Endpoint)
	viper.SetDefault("vocabulary", cfg.VocabularyFile)
	viper.SetDefault("apikey", cfg.APIKey)
	viper.SetDefault("timeout", cfg.Timeout)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP API")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing notice PDFs")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("region", cfg.Region, "AWS region of the Textract endpoint")
	pflag.String("endpoint", cfg.Endpoint, "Custom Textract endpoint URL")
	pflag.String("vocabulary", cfg.VocabularyFile, "JSON vocabulary file (default: built-in notice fields)")
	pflag.String("apikey", cfg.APIKey, "Bearer token required by the HTTP API (server mode only)")
	pflag.Duration("timeout", cfg.Timeout, "Deadline for a single analysis call, 0 disables")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "dir", "loglevel", "maxfilesize",
		"region", "endpoint", "vocabulary", "apikey", "timeout",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Notice Extractor - extracts meeting notice fields from scanned forms\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/notices --region=eu-west-1 "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --apikey=secret            # HTTP API\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_DIR          PDF directory\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_REGION       AWS region (also AWS_REGION, AWS_DEFAULT_REGION)\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_ENDPOINT     Textract endpoint\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_VOCABULARY   Vocabulary file\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_APIKEY       HTTP API bearer token\n")
		fmt.Fprintf(os.Stderr, "  NOTICE_TIMEOUT      Analysis deadline\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Region = viper.GetString("region")
	cfg.Endpoint = viper.GetString("endpoint")
	cfg.VocabularyFile = viper.GetString("vocabulary")
	cfg.APIKey = viper.GetString("apikey")
	cfg.Timeout = viper.GetDuration("timeout")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Create the PDF directory if it doesn't exist
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Region == "" {
		return errors.New("region cannot be empty")
	}

	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}

	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); err != nil {
			return fmt.Errorf("cannot access vocabulary file %s: %w", c.VocabularyFile, err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The API key is masked.
func (c *Config) String() string {
	apiKey := ""
	if c.APIKey != "" {
		apiKey = "***"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, Region: %s, Endpoint: %s, Vocabulary: %s, Timeout: %s, APIKey: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel,
		c.MaxFileSize, c.Region, c.Endpoint, c.VocabularyFile, c.Timeout, apiKey)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
