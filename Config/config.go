package Config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"3001"`
	DBDriver  string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN     string `env:"DB_DSN" envDefault:"database.db"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"secret"`
	Timezone  string `env:"TIMEZONE" envDefault:"UTC"`
	SeedFile  string `env:"SEED_FILE"`

	GraceMinutes int `env:"TASK_GRACE_MINUTES" envDefault:"15"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE" envDefault:"logs/requests.log"`

	OverdueSweepSchedule string `env:"OVERDUE_SWEEP_SCHEDULE" envDefault:"0 */5 * * * *"`
	DigestSchedule       string `env:"DIGEST_SCHEDULE" envDefault:"0 0 6 * * *"`

	WhatsappServiceURL  string `env:"WHATSAPP_SERVICE_URL" envDefault:"http://localhost:3000"`
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"`

	SlackBotToken  string `env:"SLACK_BOT_TOKEN"`
	SlackAppToken  string `env:"SLACK_APP_TOKEN"`
	SlackChannelID string `env:"SLACK_CHANNEL_ID"`

	SMTP SMTPConfig `envPrefix:"SMTP_"`
}

type SMTPConfig struct {
	Server       string   `env:"SERVER"`
	Port         int      `env:"PORT" envDefault:"587"`
	Username     string   `env:"USERNAME"`
	Password     string   `env:"PASSWORD"`
	FromEmail    string   `env:"FROM_EMAIL"`
	FromName     string   `env:"FROM_NAME" envDefault:"Dashspect"`
	TLSEnabled   bool     `env:"TLS_ENABLED" envDefault:"false"`
	SkipTLSCheck bool     `env:"SKIP_TLS_CHECK" envDefault:"false"`
	DigestTo     []string `env:"DIGEST_TO" envSeparator:","`
}

// Load reads an optional .env file and then the process environment
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location is the timezone calendar dates are interpreted in
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) GraceWindow() time.Duration {
	if c.GraceMinutes < 0 {
		return 0
	}
	return time.Duration(c.GraceMinutes) * time.Minute
}

func (c Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

func (c Config) SMTPEnabled() bool {
	return c.SMTP.Server != "" && len(c.SMTP.DigestTo) > 0
}
