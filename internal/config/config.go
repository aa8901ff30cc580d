package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Risk    RiskConfig    `yaml:"risk" mapstructure:"risk"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates pipeline inputs and outputs.
type PathsConfig struct {
	Notices        string `yaml:"notices" mapstructure:"notices"`
	Combined       string `yaml:"combined" mapstructure:"combined"`
	Impacts        string `yaml:"impacts" mapstructure:"impacts"`
	FacilityRollup string `yaml:"facility_rollup" mapstructure:"facility_rollup"`
	AllFacilities  string `yaml:"all_facilities" mapstructure:"all_facilities"`
	TitleRollup    string `yaml:"title_rollup" mapstructure:"title_rollup"`
	NoticeSummary  string `yaml:"notice_summary" mapstructure:"notice_summary"`
	TopTitles      string `yaml:"top_titles" mapstructure:"top_titles"`
	TopFacilities  string `yaml:"top_facilities" mapstructure:"top_facilities"`
	GeoJSON        string `yaml:"geojson" mapstructure:"geojson"`
	Workbook       string `yaml:"workbook" mapstructure:"workbook"`
	Geocodes       string `yaml:"geocodes" mapstructure:"geocodes"`
	AddressStaging string `yaml:"address_staging" mapstructure:"address_staging"`
}

// ExportConfig configures rollup exports.
type ExportConfig struct {
	TopTitles        int  `yaml:"top_titles" mapstructure:"top_titles"`
	TopFacilities    int  `yaml:"top_facilities" mapstructure:"top_facilities"`
	GeoJSONTopTitles int  `yaml:"geojson_top_titles" mapstructure:"geojson_top_titles"`
	ExcludeRemote    bool `yaml:"exclude_remote" mapstructure:"exclude_remote"`
}

// GeocodeConfig configures the geocoding clients used by geocode refresh.
type GeocodeConfig struct {
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	DelayMs      int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	NominatimURL string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	GoogleKey    string `yaml:"google_key" mapstructure:"google_key"`
	Census       bool   `yaml:"census" mapstructure:"census"`
	Retries      int    `yaml:"retries" mapstructure:"retries"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// RiskConfig holds risk query defaults.
type RiskConfig struct {
	Top     int `yaml:"top" mapstructure:"top"`
	Nearest int `yaml:"nearest" mapstructure:"nearest"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WARN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("paths.notices", "data/normalized/notices")
	v.SetDefault("paths.combined", "data/normalized/combined.json")
	v.SetDefault("paths.impacts", "data/exports/impacts_by_facility.csv")
	v.SetDefault("paths.facility_rollup", "data/exports/facility_rollup.csv")
	v.SetDefault("paths.all_facilities", "data/exports/facility_rollup_all_facilities.csv")
	v.SetDefault("paths.title_rollup", "data/exports/job_title_rollup.csv")
	v.SetDefault("paths.notice_summary", "data/exports/notice_summary.csv")
	v.SetDefault("paths.top_titles", "data/exports/top_job_titles.csv")
	v.SetDefault("paths.top_facilities", "data/exports/top_facilities.csv")
	v.SetDefault("paths.geojson", "data/exports/facilities.geojson")
	v.SetDefault("paths.workbook", "data/exports/warn_rollups.xlsx")
	v.SetDefault("paths.geocodes", "data/normalized/facility_geocodes.csv")
	v.SetDefault("paths.address_staging", "data/normalized/facility_addresses_staging.csv")
	v.SetDefault("export.top_titles", 25)
	v.SetDefault("export.top_facilities", 15)
	v.SetDefault("export.geojson_top_titles", 5)
	v.SetDefault("export.exclude_remote", true)
	v.SetDefault("geocode.user_agent", "warn-cli/1.0")
	v.SetDefault("geocode.delay_ms", 1500)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.google_key", "")
	v.SetDefault("geocode.census", true)
	v.SetDefault("geocode.retries", 3)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_api_key", "")
	v.SetDefault("ocr.mistral_model", "pixtral-large-latest")
	v.SetDefault("risk.top", 10)
	v.SetDefault("risk.nearest", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "export":
		if c.Export.TopTitles < 0 || c.Export.TopFacilities < 0 || c.Export.GeoJSONTopTitles < 0 {
			errs = append(errs, "export top counts must be >= 0")
		}
	case "geocode":
		if c.Geocode.DelayMs < 0 {
			errs = append(errs, "geocode.delay_ms must be >= 0")
		}
		if c.Geocode.TimeoutSecs <= 0 {
			errs = append(errs, "geocode.timeout_secs must be > 0")
		}
		if c.Geocode.Retries < 1 {
			errs = append(errs, "geocode.retries must be >= 1")
		}
		if c.Geocode.UserAgent == "" {
			errs = append(errs, "geocode.user_agent is required")
		}
	case "risk":
		if c.Risk.Top < 0 || c.Risk.Nearest < 0 {
			errs = append(errs, "risk.top and risk.nearest must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
