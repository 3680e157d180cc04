package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
	"flock-insights/internal/report"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Database churchdb.Config
	Report   ReportDefaults
	DataPath string
	LogDir   string
}

// ReportDefaults are the report knobs an operator can override per
// deployment. Per-run values (the as-of date) come from command flags.
type ReportDefaults struct {
	FiscalStartMonth time.Month
	FiscalStartDay   int
	InReachMax       int
	GoodMax          int
	FlatBandPct      float64
	RollingWeeks     int
	OnlyAttended     bool
	Tag              string
}

// ReportConfig resolves the defaults into a per-run report configuration.
func (c *AppConfig) ReportConfig(asOf time.Time) report.Config {
	mode := churchdb.AllEnrollments
	if c.Report.OnlyAttended {
		mode = churchdb.OnlyWithAttendance
	}
	return report.Config{
		AsOf: asOf,
		Fiscal: calendar.FiscalSpec{
			Month: c.Report.FiscalStartMonth,
			Day:   c.Report.FiscalStartDay,
		},
		Thresholds: report.Thresholds{
			InReachMax: c.Report.InReachMax,
			GoodMax:    c.Report.GoodMax,
		},
		FlatBandPct:    c.Report.FlatBandPct,
		RollingWeeks:   c.Report.RollingWeeks,
		EnrollmentMode: mode,
		Tag:            c.Report.Tag,
	}
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for installed binaries)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	timeoutSecs := getEnvInt("QUERY_TIMEOUT_SECONDS", 30)

	cfg := &AppConfig{
		Database: churchdb.Config{
			URL:          getEnv("DATABASE_URL", ""),
			Schema:       getEnv("DATABASE_SCHEMA", "churchdata"),
			QueryTimeout: time.Duration(timeoutSecs) * time.Second,
		},
		Report: ReportDefaults{
			FiscalStartMonth: time.Month(getEnvInt("FISCAL_START_MONTH", int(time.October))),
			FiscalStartDay:   getEnvInt("FISCAL_START_DAY", 1),
			InReachMax:       getEnvInt("RATIO_INREACH_MAX", 39),
			GoodMax:          getEnvInt("RATIO_GOOD_MAX", 59),
			FlatBandPct:      getEnvFloat("FLAT_BAND_PCT", 5),
			RollingWeeks:     getEnvInt("ROLLING_WEEKS", 4),
			OnlyAttended:     getEnvBool("ENROLLMENT_ONLY_ATTENDED", false),
			Tag:              getEnv("REPORT_TAG", ""),
		},
		DataPath: dataPath,
		LogDir:   logDir,
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}
