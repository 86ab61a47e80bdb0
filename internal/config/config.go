// =============================================================================
// Sell Out Trends - Configuration Module
// =============================================================================
//
// This module loads and manages the application configuration. A single YAML
// file (config.yaml) describes where the source files live, how they are
// recognized, how CSV exports are decoded, and the default report view.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults (applyDefaults)
//   2. config.yaml
//   3. Environment / .env (SELLOUT_ACCESS_KEY, SELLOUT_DATA_DIR)
//   4. Command-line flags (applied by the cmd package)
//
// A missing config file is not an error: the defaults describe the layout of
// the original Sell Out folder.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// ENVIRONMENT VARIABLES
// =============================================================================

const (
	// EnvAccessKey supplies the access key when --access-key is not given.
	// It is checked against access_keys, never added to them.
	EnvAccessKey = "SELLOUT_ACCESS_KEY"

	// EnvDataDir overrides data_dir.
	EnvDataDir = "SELLOUT_DATA_DIR"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the global application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// DataDir is the folder scanned for the Sell Out export and the two
	// reference workbooks.
	// Default: "."
	DataDir string `yaml:"data_dir"`

	// OutputDir is where rendered reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat is the default report format: xlsx, csv, xml or json.
	// Default: "xlsx"
	OutputFormat string `yaml:"output_format"`

	// OutputNameFormat defines the report file name.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {hierarchy} - client or product
	// Default: "sellout_trends_{hierarchy}_{timestamp}"
	OutputNameFormat string `yaml:"output_name_format"`

	// =========================================================================
	// SOURCE SETTINGS
	// =========================================================================

	Sources SourceSettings `yaml:"sources"`

	// CacheSize bounds the number of loaded tables kept in memory.
	// Default: 16
	CacheSize int `yaml:"cache_size"`

	// =========================================================================
	// ACCESS
	// =========================================================================

	// AccessKeys lists the accepted shared secrets. When empty the gate is
	// open.
	AccessKeys []string `yaml:"access_keys"`

	// =========================================================================
	// REPORT DEFAULTS
	// =========================================================================

	Defaults ReportDefaults `yaml:"defaults"`
}

// SourceSettings describes how the three source files are found and read.
type SourceSettings struct {
	// SalesNameTokens: a sales export must contain one of these in its name.
	// Default: ["Sell Out", "SO"]
	SalesNameTokens []string `yaml:"sales_name_tokens"`

	// SalesExcludeTokens: files containing any of these are never treated as
	// the sales export (they are the reference workbooks).
	// Default: ["Zonas", "historico", "CAI"]
	SalesExcludeTokens []string `yaml:"sales_exclude_tokens"`

	// SalesExtensions lists the accepted sales file extensions.
	// Default: [".xlsx", ".xls", ".csv"]
	SalesExtensions []string `yaml:"sales_extensions"`

	// ZoneFiles are candidate file names for the zone reference; first hit wins.
	// Default: ["Sell Out Zonas.xlsx", "Sell Out Zonas.xls"]
	ZoneFiles []string `yaml:"zone_files"`

	// ProductFile is the product catalog file name.
	// Default: "CAI historico 2.xlsx"
	ProductFile string `yaml:"product_file"`

	// SheetName is preferred when a workbook has several sheets.
	// Default: "Sell Out"
	SheetName string `yaml:"sheet_name"`

	// HeaderLookahead is the number of leading rows scanned for the header.
	// Default: 15
	HeaderLookahead int `yaml:"header_lookahead"`

	// CSV contains settings for delimited-text sales exports.
	CSV CSVSettings `yaml:"csv"`
}

// CSVSettings contains settings for parsing CSV exports.
type CSVSettings struct {
	// Delimiter is the field separator. "auto" sniffs the first line.
	// Common values: "," (comma), ";" (semicolon), "|" (pipe), "\t" (tab)
	// Default: "auto"
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the file.
	// Valid values: "auto", "utf-8", "iso-8859-1", "windows-1252"
	// Default: "auto"
	Encoding string `yaml:"encoding"`
}

// ReportDefaults is the view used when no flag overrides it.
type ReportDefaults struct {
	// Hierarchy is "client" (client -> product) or "product".
	// Default: "client"
	Hierarchy string `yaml:"hierarchy"`

	// ReferenceYear selects the extra total column. 0 picks the latest year
	// present in the data, -1 disables the column.
	ReferenceYear int `yaml:"reference_year"`

	// Filters maps a dimension name to the accepted values.
	// Example:
	//   filters:
	//     brand: ["MICHELIN"]
	//     account_manager: ["J. PEREZ"]
	Filters map[string][]string `yaml:"filters"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration file, applies environment overrides and
// defaults, and validates the result.
//
// PARAMETERS:
//   - configPath: The path to config.yaml. A missing file yields defaults.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file exists but cannot be parsed or is invalid.
func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is the common case.
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration made only of defaults.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyEnv copies environment overrides into the configuration.
func applyEnv(cfg *Config) {
	if dir := strings.TrimSpace(os.Getenv(EnvDataDir)); dir != "" {
		cfg.DataDir = dir
	}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "xlsx"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "sellout_trends_{hierarchy}_{timestamp}"
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 16
	}

	src := &cfg.Sources
	if len(src.SalesNameTokens) == 0 {
		src.SalesNameTokens = []string{"Sell Out", "SO"}
	}
	if src.SalesExcludeTokens == nil {
		src.SalesExcludeTokens = []string{"Zonas", "historico", "CAI"}
	}
	if len(src.SalesExtensions) == 0 {
		src.SalesExtensions = []string{".xlsx", ".xls", ".csv"}
	}
	if len(src.ZoneFiles) == 0 {
		src.ZoneFiles = []string{"Sell Out Zonas.xlsx", "Sell Out Zonas.xls"}
	}
	if src.ProductFile == "" {
		src.ProductFile = "CAI historico 2.xlsx"
	}
	if src.SheetName == "" {
		src.SheetName = "Sell Out"
	}
	if src.HeaderLookahead <= 0 {
		src.HeaderLookahead = 15
	}
	if src.CSV.Delimiter == "" {
		src.CSV.Delimiter = "auto"
	}
	if src.CSV.Encoding == "" {
		src.CSV.Encoding = "auto"
	}

	if cfg.Defaults.Hierarchy == "" {
		cfg.Defaults.Hierarchy = "client"
	}
}

// validate checks option values that have a closed set of choices.
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.OutputFormat) {
	case "xlsx", "csv", "xml", "json":
	default:
		return fmt.Errorf("unsupported output_format %q", cfg.OutputFormat)
	}

	switch strings.ToLower(cfg.Defaults.Hierarchy) {
	case "client", "product":
	default:
		return fmt.Errorf("unsupported hierarchy %q (want client or product)", cfg.Defaults.Hierarchy)
	}

	switch strings.ToLower(cfg.Sources.CSV.Encoding) {
	case "auto", "utf-8", "utf8", "iso-8859-1", "latin1", "windows-1252", "cp1252":
	default:
		return fmt.Errorf("unsupported csv encoding %q", cfg.Sources.CSV.Encoding)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", cfg.LogLevel)
	}

	if cfg.Defaults.ReferenceYear < -1 {
		return fmt.Errorf("reference_year must be -1, 0 or a year, got %d", cfg.Defaults.ReferenceYear)
	}

	return nil
}
