package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./postwatch.db" description:"Path to the SQLite database file"`

	// Application configuration
	CredentialsFile  string `long:"credentials-file" env:"CREDENTIALS_FILE" default:"./credentials.yml" description:"YAML file with platform credentials for the access pool"`
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	APIWorkerCount   int    `long:"api-workers" env:"API_WORKER_COUNT" default:"2" description:"Workers for tasks that call the platform API"`
	LocalWorkerCount int    `long:"local-workers" env:"LOCAL_WORKER_COUNT" default:"5" description:"Workers for matching and persistence tasks"`

	// Social platform gateway
	GatewayURL     string `long:"gateway-url" env:"GATEWAY_URL" default:"http://localhost:9000" description:"Base URL of the social platform gateway"`
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Platform request timeout in seconds"`

	// Access pool budget
	CallsPerMinute   int     `long:"calls-per-minute" env:"CALLS_PER_MINUTE" default:"20" description:"Global ceiling on platform calls per minute"`
	MinCallSpacing   float64 `long:"min-call-spacing" env:"MIN_CALL_SPACING" default:"2" description:"Minimum seconds between any two platform calls"`
	CredentialBudget int     `long:"credential-budget" env:"CREDENTIAL_BUDGET" default:"10" description:"Calls allowed per credential per window"`
	CredentialWindow int     `long:"credential-window" env:"CREDENTIAL_WINDOW" default:"60" description:"Per-credential budget window in seconds"`
	AcquireMaxWait   int     `long:"acquire-max-wait" env:"ACQUIRE_MAX_WAIT" default:"120" description:"Maximum seconds to wait for a credential before giving up"`

	// Cycle cadences
	SchedulerTick      int `long:"scheduler-tick" env:"SCHEDULER_TICK" default:"60" description:"Scan cycle tick in seconds"`
	ScanIntervalHigh   int `long:"scan-interval-high" env:"SCAN_INTERVAL_HIGH" default:"1800" description:"Scan interval for high priority accounts in seconds"`
	ScanIntervalMedium int `long:"scan-interval-medium" env:"SCAN_INTERVAL_MEDIUM" default:"3600" description:"Scan interval for medium priority accounts in seconds"`
	ScanIntervalLow    int `long:"scan-interval-low" env:"SCAN_INTERVAL_LOW" default:"10800" description:"Scan interval for low priority accounts in seconds"`
	MetricsInterval    int `long:"metrics-interval" env:"METRICS_INTERVAL" default:"3600" description:"Metrics collection cycle interval in seconds"`
	ExistenceInterval  int `long:"existence-interval" env:"EXISTENCE_INTERVAL" default:"21600" description:"Existence check cycle interval in seconds"`
	ProfileInterval    int `long:"profile-interval" env:"PROFILE_INTERVAL" default:"86400" description:"Account profile refresh cycle interval in seconds"`
	ScanFetchLimit     int `long:"scan-fetch-limit" env:"SCAN_FETCH_LIMIT" default:"5" description:"Number of recent posts fetched per account scan"`

	// Notifications
	WebhookURL string `long:"webhook-url" env:"WEBHOOK_URL" description:"Webhook endpoint for match/deletion events (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PostWatch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Seoul)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		CredentialsFile:    raw.CredentialsFile,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		APIWorkerCount:     raw.APIWorkerCount,
		LocalWorkerCount:   raw.LocalWorkerCount,
		GatewayURL:         raw.GatewayURL,
		RequestTimeout:     raw.RequestTimeout,
		CallsPerMinute:     raw.CallsPerMinute,
		MinCallSpacing:     raw.MinCallSpacing,
		CredentialBudget:   raw.CredentialBudget,
		CredentialWindow:   raw.CredentialWindow,
		AcquireMaxWait:     raw.AcquireMaxWait,
		SchedulerTick:      raw.SchedulerTick,
		ScanIntervalHigh:   raw.ScanIntervalHigh,
		ScanIntervalMedium: raw.ScanIntervalMedium,
		ScanIntervalLow:    raw.ScanIntervalLow,
		MetricsInterval:    raw.MetricsInterval,
		ExistenceInterval:  raw.ExistenceInterval,
		ProfileInterval:    raw.ProfileInterval,
		ScanFetchLimit:     raw.ScanFetchLimit,
		WebhookURL:         raw.WebhookURL,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
