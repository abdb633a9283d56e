package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Embedding collaborator configuration (OpenAI-compatible protocol).
	// The core never computes embeddings itself; this is the external
	// service the hint backfill job talks to.
	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingDim     int

	// Push transport configuration.
	PushChannel     string // "telegram", "webhook" or "none"
	TelegramToken   string
	PushWebhookURL  string
	PushTimeoutSecs int

	// Delivery worker configuration.
	TickInterval    int // seconds between delivery ticks
	DeliveryWorkers int
	DeliveryRate    float64 // max push calls per second

	// Other configurations
	Mode        string
	Addr        string
	Data        string
	Driver      string
	DSN         string
	Version     string
	InstanceURL string
	Port        int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.EmbeddingAPIKey = getEnvOrDefault("KNOT_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("KNOT_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.EmbeddingModel = getEnvOrDefault("KNOT_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDim = getEnvOrDefaultInt("KNOT_EMBEDDING_DIM", 1536)

	p.PushChannel = getEnvOrDefault("KNOT_PUSH_CHANNEL", "none")
	p.TelegramToken = getEnvOrDefault("KNOT_PUSH_TELEGRAM_TOKEN", "")
	p.PushWebhookURL = getEnvOrDefault("KNOT_PUSH_WEBHOOK_URL", "")
	p.PushTimeoutSecs = getEnvOrDefaultInt("KNOT_PUSH_TIMEOUT_SECONDS", 10)

	p.TickInterval = getEnvOrDefaultInt("KNOT_TICK_INTERVAL_SECONDS", 60)
	p.DeliveryWorkers = getEnvOrDefaultInt("KNOT_DELIVERY_WORKERS", 4)
	if v := os.Getenv("KNOT_DELIVERY_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			p.DeliveryRate = f
		}
	}
	if p.DeliveryRate <= 0 {
		p.DeliveryRate = 10
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "knot")
		} else {
			p.Data = "/var/opt/knot"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				return errors.Wrapf(err, "failed to create data directory %s", p.Data)
			}
		}
	}

	if p.Driver != "postgres" && p.Driver != "sqlite" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, "knot_"+p.Mode+".db")
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.TickInterval <= 0 {
		p.TickInterval = 60
	}
	if p.DeliveryWorkers <= 0 {
		p.DeliveryWorkers = 4
	}

	return nil
}
