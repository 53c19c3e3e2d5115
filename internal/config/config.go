package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"notion2mf/internal/logger"
)

// ErrMissingConfig is returned when variables needed by a command are not set.
var ErrMissingConfig = errors.New("missing configuration")

type Config struct {
	Notion struct {
		APIKey         string `envconfig:"NOTION_API_KEY"`
		DatabaseID     string `envconfig:"NOTION_DATABASE_ID"`
		APIURL         string `envconfig:"NOTION_API_URL" default:"https://api.notion.com/v1"`
		Version        string `envconfig:"NOTION_VERSION" default:"2022-06-28"`
		PropertiesFile string `envconfig:"NOTION_PROPERTIES_FILE"`
	}

	MoneyForward struct {
		ClientID     string `envconfig:"MONEYFORWARD_CLIENT_ID"`
		ClientSecret string `envconfig:"MONEYFORWARD_CLIENT_SECRET"`
		RedirectURI  string `envconfig:"MONEYFORWARD_REDIRECT_URI" default:"http://localhost:8080/callback"`
		APIURL       string `envconfig:"MONEYFORWARD_API_URL" default:"https://invoice.moneyforward.com/api/v3"`
		AuthURL      string `envconfig:"MONEYFORWARD_AUTH_URL" default:"https://invoice.moneyforward.com/oauth/authorize"`
		TokenURL     string `envconfig:"MONEYFORWARD_TOKEN_URL" default:"https://invoice.moneyforward.com/oauth/token"`
		Scope        string `envconfig:"MONEYFORWARD_SCOPE" default:"write"`
		TokenFile    string `envconfig:"MONEYFORWARD_TOKEN_FILE" default:"~/.notion-to-mf/mf_token.json"`
	}

	Invoice struct {
		TaxRate          decimal.Decimal `envconfig:"INVOICE_TAX_RATE" default:"0.10"`
		PaymentTermsDays int             `envconfig:"INVOICE_PAYMENT_TERMS_DAYS" default:"30"`
	}

	Sync struct {
		Workers int `envconfig:"SYNC_WORKERS" default:"4"`
	}

	Sheets struct {
		URL             string `envconfig:"GOOGLE_SHEET_URL"`
		Worksheet       string `envconfig:"GOOGLE_SHEET_WORKSHEET" default:"Invoices"`
		CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
		CredentialsJSON string `envconfig:"GOOGLE_CREDENTIALS"`
	}

	Database struct {
		URL string `envconfig:"DATABASE_URL"`
	}

	Log struct {
		Level      string `envconfig:"LOG_LEVEL" default:"info"`
		Format     string `envconfig:"LOG_FORMAT" default:"console"`
		TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
		Output     string `envconfig:"LOG_OUTPUT" default:"stderr"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	tokenFile, err := expandHome(cfg.MoneyForward.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token file: %w", err)
	}
	cfg.MoneyForward.TokenFile = tokenFile

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.Invoice.TaxRate.IsPositive() || c.Invoice.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("INVOICE_TAX_RATE must be between 0 and 1 (got %s)", c.Invoice.TaxRate)
	}
	if c.Invoice.PaymentTermsDays < 0 {
		return fmt.Errorf("INVOICE_PAYMENT_TERMS_DAYS must not be negative (got %d)", c.Invoice.PaymentTermsDays)
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1 (got %d)", c.Sync.Workers)
	}
	return nil
}

// ValidateNotion reports every Notion variable a fetch needs but is missing.
func (c *Config) ValidateNotion() error {
	var missing []string
	if c.Notion.APIKey == "" {
		missing = append(missing, "NOTION_API_KEY")
	}
	if c.Notion.DatabaseID == "" {
		missing = append(missing, "NOTION_DATABASE_ID")
	}
	return missingError(missing)
}

// ValidateMoneyForward reports every MoneyForward variable auth and submission need.
func (c *Config) ValidateMoneyForward() error {
	var missing []string
	if c.MoneyForward.ClientID == "" {
		missing = append(missing, "MONEYFORWARD_CLIENT_ID")
	}
	if c.MoneyForward.ClientSecret == "" {
		missing = append(missing, "MONEYFORWARD_CLIENT_SECRET")
	}
	return missingError(missing)
}

func missingError(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(keys, ", "))
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     c.Log.Output,
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
