package configuration

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files from the working directory, falling back
// to the nearest directory containing go.mod. It returns how many were loaded.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"branch_crm"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type LoggingOptions struct {
	LogPath string `env:"LOG_PATH" envDefault:"./logs/crm.log"`
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"branch-crm"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// AuthzOptions configure the capability gate. Empty model/policy paths use
// the embedded defaults.
type AuthzOptions struct {
	ModelPath      string `env:"AUTHZ_MODEL_PATH"`
	PolicyPath     string `env:"AUTHZ_POLICY_PATH"`
	FlagConfigPath string `env:"AUTHZ_FLAG_CONFIG" envDefault:"config/access/authz_flags.yaml"`
	Mode           string `env:"AUTHZ_MODE" envDefault:"enforce"`
}

type AccessOptions struct {
	// Layers at or below this one read sensitive fields masked.
	MaskThreshold string `env:"ACCESS_MASK_THRESHOLD" envDefault:"branch"`
}

type Configuration struct {
	Database      DatabaseOptions
	Logging       LoggingOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	Authz         AuthzOptions
	Access        AccessOptions

	ServerPort       int    `env:"PORT" envDefault:"8000"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	PageSize         int    `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int    `env:"MAX_PAGE_SIZE" envDefault:"100"`
	// Request id header; a uuid is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile io.Closer
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.Logging.Level {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.Logging.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validate() error {
	if err := c.validateAuthz(); err != nil {
		return err
	}
	if err := c.validateAccess(); err != nil {
		return err
	}
	if c.PageSize <= 0 || c.MaxPageSize < c.PageSize {
		return fmt.Errorf("invalid paging: PAGE_SIZE=%d MAX_PAGE_SIZE=%d", c.PageSize, c.MaxPageSize)
	}
	return nil
}

func (c *Configuration) validateAuthz() error {
	mode := strings.ToLower(strings.TrimSpace(c.Authz.Mode))
	if mode == "" {
		mode = "enforce"
	}
	switch mode {
	case "disabled", "shadow", "enforce":
	default:
		return fmt.Errorf("invalid AUTHZ_MODE=%q (expected disabled|shadow|enforce)", c.Authz.Mode)
	}
	c.Authz.Mode = mode

	if (c.Authz.ModelPath == "") != (c.Authz.PolicyPath == "") {
		return fmt.Errorf("AUTHZ_MODEL_PATH and AUTHZ_POLICY_PATH must be set together")
	}
	return nil
}

func (c *Configuration) validateAccess() error {
	threshold := strings.ToLower(strings.TrimSpace(c.Access.MaskThreshold))
	switch threshold {
	case "executive", "regional", "branch", "individual", "none":
	default:
		return fmt.Errorf("invalid ACCESS_MASK_THRESHOLD=%q (expected executive|regional|branch|individual|none)", c.Access.MaskThreshold)
	}
	c.Access.MaskThreshold = threshold
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
