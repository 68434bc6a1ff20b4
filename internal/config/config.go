package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP Server
	Port string

	// Record files
	DataDir        string
	CertificateDir string
	AtomicSave     bool
	PathsFile      string
	// Files holds per-kind file overrides read from PathsFile.
	Files map[string]string

	LogLevel string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mirror
	MirrorBackend            string
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	LedgerDBPath string
	SyncInterval time.Duration
}

// pathsFile is the YAML layout of LOGBOOK_PATHS_FILE.
type pathsFile struct {
	DataDir        string            `yaml:"data_dir"`
	CertificateDir string            `yaml:"certificate_dir"`
	Files          map[string]string `yaml:"files"`
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataDir:        getEnv("DATA_DIR", "./data/processed/Database"),
		CertificateDir: getEnv("CERTIFICATE_DIR", "./certificates"),
		AtomicSave:     getEnvBool("ATOMIC_SAVE", false),
		PathsFile:      getEnv("LOGBOOK_PATHS_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "logbook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_tables"),

		MirrorBackend:            getEnv("MIRROR_BACKEND", "none"),
		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LedgerDBPath: getEnv("LEDGER_DB_PATH", "./data/ledger.db"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
	}

	return cfg
}

// LoadPaths applies the YAML overrides named by PathsFile. A missing
// PathsFile setting is not an error; a named file that cannot be read or
// parsed is.
func (c *Config) LoadPaths() error {
	if c.PathsFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.PathsFile)
	if err != nil {
		return fmt.Errorf("read paths file: %w", err)
	}
	var pf pathsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parse paths file %s: %w", c.PathsFile, err)
	}
	if pf.DataDir != "" {
		c.DataDir = pf.DataDir
	}
	if pf.CertificateDir != "" {
		c.CertificateDir = pf.CertificateDir
	}
	if len(pf.Files) > 0 {
		c.Files = make(map[string]string, len(pf.Files))
		for k, v := range pf.Files {
			c.Files[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return nil
}

// FilePath resolves the backing file of a record kind. Relative overrides
// and defaults live under DataDir.
func (c *Config) FilePath(kind, defaultName string) string {
	name := defaultName
	if override, ok := c.Files[kind]; ok && override != "" {
		name = override
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty")
	}
	if c.CertificateDir == "" {
		errors = append(errors, "certificate directory cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate mirror backend
	validBackends := []string{"none", "memory", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.MirrorBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of %v", c.MirrorBackend, validBackends))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if the mirror targets sheets
	if c.MirrorBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets mirror")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets mirror")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker adds the checks that only apply to the mirror worker.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the worker")
	}
	if c.MirrorBackend == "none" {
		errors = append(errors, "mirror backend must be 'memory' or 'sheets' for the worker")
	}
	if c.LedgerDBPath == "" {
		errors = append(errors, "ledger database path cannot be empty")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
