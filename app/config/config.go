package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// FileEnv names an optional TOML file that is read before environment
// overrides are applied.
const FileEnv = "BEANS_CONFIG_FILE"

type Config struct {
	HTTPAddr       string   `toml:"http_addr" validate:"required"`
	DBDriver       string   `toml:"db_driver" validate:"oneof=sqlite postgres"`
	DBDSN          string   `toml:"db_dsn" validate:"required"`
	ImagesDir      string   `toml:"images_dir" validate:"required"`
	AdminTokens    []string `toml:"admin_tokens"`
	PriceMax       string   `toml:"price_max" validate:"required,numeric"`
	PageSize       int      `toml:"page_size" validate:"min=1,max=100"`
	LogLevel       string   `toml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat      string   `toml:"log_format" validate:"oneof=json console"`
	SeedSampleData bool     `toml:"seed_sample_data"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:  ":8080",
		DBDriver:  "sqlite",
		DBDSN:     "beans.db",
		ImagesDir: "./wwwroot/images",
		PriceMax:  "10000.00",
		PageSize:  10,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional TOML file and the environment, in that order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if file := os.Getenv(FileEnv); file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", file, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("HTTP_ADDR", &c.HTTPAddr)
	setString("DB_DRIVER", &c.DBDriver)
	setString("DB_DSN", &c.DBDSN)
	setString("IMAGES_DIR", &c.ImagesDir)
	setString("PRICE_MAX", &c.PriceMax)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)

	if v := os.Getenv("ADMIN_TOKENS"); v != "" {
		c.AdminTokens = nil
		for _, token := range strings.Split(v, ",") {
			if token = strings.TrimSpace(token); token != "" {
				c.AdminTokens = append(c.AdminTokens, token)
			}
		}
	}

	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PAGE_SIZE %q: %w", v, err)
		}
		c.PageSize = n
	}

	if v := os.Getenv("SEED_SAMPLE_DATA"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEED_SAMPLE_DATA %q: %w", v, err)
		}
		c.SeedSampleData = b
	}

	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.PriceMaxDecimal().LessThan(decimal.New(1, -2)) {
		return fmt.Errorf("invalid configuration: price_max %s is below 0.01", c.PriceMax)
	}
	if c.PriceMaxDecimal().GreaterThan(models.MaxStoredPrice) {
		return fmt.Errorf("invalid configuration: price_max %s exceeds %s", c.PriceMax, models.MaxStoredPrice.StringFixed(models.PriceScale))
	}
	return nil
}

// PriceMaxDecimal returns the configured upper price bound. It assumes the
// configuration has been validated.
func (c *Config) PriceMaxDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.PriceMax)
	if err != nil {
		return decimal.Zero
	}
	return d
}
