package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API          *APIConfig          `mapstructure:"api"`
	Gin          *GinConfig          `mapstructure:"gin"`
	Postgres     *PostgresConfig     `mapstructure:"postgres"`
	R2           *R2Config           `mapstructure:"r2"`
	CDN          *CDNConfig          `mapstructure:"cdn"`
	Payment      *PaymentConfig      `mapstructure:"payment"`
	Catalogue    *CatalogueConfig    `mapstructure:"catalogue"`
	Admin        *AdminConfig        `mapstructure:"admin"`
	Redis        *RedisConfig        `mapstructure:"redis"`
	Registration *RegistrationConfig `mapstructure:"registration"`
}

type APIConfig struct {
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	BaseURL            string        `mapstructure:"base_url"`
	Environment        string        `mapstructure:"environment"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	Port               string        `mapstructure:"port"`
	MaxUploadBytes     int64         `mapstructure:"max_upload_bytes"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

// R2Config holds the S3-compatible blob store credentials.
type R2Config struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

func (c R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

type CDNConfig struct {
	Host string `mapstructure:"host"`
}

type PaymentConfig struct {
	PayeeVPA string `mapstructure:"payee_vpa"`
}

type CatalogueConfig struct {
	Path       string `mapstructure:"path"`
	Watch      bool   `mapstructure:"watch"`
	SeedEvents bool   `mapstructure:"seed_events"`
}

type AdminConfig struct {
	PasswordHash string `mapstructure:"password_hash"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type RegistrationConfig struct {
	StrictValidation bool `mapstructure:"strict_validation"`
	Transactional    bool `mapstructure:"transactional"`
}

// envAliases maps config keys to the environment variable names used by the
// deployment, in addition to the automatic SECTION_KEY form.
var envAliases = map[string][]string{
	"postgres.url":                   {"DATABASE_URL"},
	"r2.account_id":                  {"CF_ACCOUNT_ID"},
	"r2.access_key_id":               {"CF_ACCESS_KEY_ID"},
	"r2.secret_access_key":           {"CF_SECRET_ACCESS_KEY"},
	"r2.bucket":                      {"R2_BUCKET_NAME"},
	"cdn.host":                       {"CDN_HOST"},
	"payment.payee_vpa":              {"UPI_PAYEE_VPA"},
	"catalogue.path":                 {"CATALOGUE_PATH"},
	"admin.password_hash":            {"ADMIN_PASSWORD_HASH"},
	"api.jwt_signing_key":            {"API_JWT_SIGNING_KEY", "JWT_SECRET"},
	"registration.strict_validation": {"STRICT_VALIDATION"},
	"registration.transactional":     {"TRANSACTIONAL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.allowed_cors_domains", []string{"*"})
	v.SetDefault("api.token_ttl", 12*time.Hour)
	v.SetDefault("api.max_upload_bytes", 10<<20)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "eloquence")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("r2.key_prefix", "registration-screenshots")
	v.SetDefault("catalogue.watch", true)
	v.SetDefault("catalogue.seed_events", true)
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("registration.strict_validation", false)
	v.SetDefault("registration.transactional", false)
}

// Load reads the yml file at configPath (optional) and overlays the environment.
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)...); err != nil {
			return nil, fmt.Errorf("v.BindEnv(%s) -> %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
		}
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	conf.fillEmptySections()

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration -> %w", err)
	}

	return conf, nil
}

func (c *AppConfig) fillEmptySections() {
	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.Gin == nil {
		c.Gin = &GinConfig{}
	}
	if c.Postgres == nil {
		c.Postgres = &PostgresConfig{}
	}
	if c.R2 == nil {
		c.R2 = &R2Config{}
	}
	if c.CDN == nil {
		c.CDN = &CDNConfig{}
	}
	if c.Payment == nil {
		c.Payment = &PaymentConfig{}
	}
	if c.Catalogue == nil {
		c.Catalogue = &CatalogueConfig{}
	}
	if c.Admin == nil {
		c.Admin = &AdminConfig{}
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Registration == nil {
		c.Registration = &RegistrationConfig{}
	}
}

// Validate reports the first section with a missing required setting.
func (c *AppConfig) Validate() error {
	if err := validation.ValidateStruct(c.API,
		validation.Field(&c.API.Port, validation.Required),
		validation.Field(&c.API.JWTSigningKey, validation.Required),
		validation.Field(&c.API.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
	); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if err := validation.ValidateStruct(c.R2,
		validation.Field(&c.R2.AccountID, validation.Required),
		validation.Field(&c.R2.AccessKeyID, validation.Required),
		validation.Field(&c.R2.SecretAccessKey, validation.Required),
		validation.Field(&c.R2.Bucket, validation.Required),
	); err != nil {
		return fmt.Errorf("r2: %w", err)
	}

	if err := validation.ValidateStruct(c.CDN,
		validation.Field(&c.CDN.Host, validation.Required, is.Host),
	); err != nil {
		return fmt.Errorf("cdn: %w", err)
	}

	if err := validation.ValidateStruct(c.Catalogue,
		validation.Field(&c.Catalogue.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("catalogue: %w", err)
	}

	return nil
}
