package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	CredentialsFile  string
	Port             string
	APIAccessKey     string
	APIWorkerCount   int
	LocalWorkerCount int

	// Social platform gateway
	GatewayURL     string
	RequestTimeout int // seconds

	// Access pool budget
	CallsPerMinute   int
	MinCallSpacing   float64 // seconds
	CredentialBudget int     // calls per credential per window
	CredentialWindow int     // seconds
	AcquireMaxWait   int     // seconds

	// Cycle cadences (seconds)
	SchedulerTick      int
	ScanIntervalHigh   int
	ScanIntervalMedium int
	ScanIntervalLow    int
	MetricsInterval    int
	ExistenceInterval  int
	ProfileInterval    int
	ScanFetchLimit     int

	// Notifications
	WebhookURL string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
