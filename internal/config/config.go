package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
)

// EnvPrefix prefixes every environment override, e.g. CI_SERVER_PORT.
const EnvPrefix = "CI"

type Config struct {
	Server struct {
		Port           int           `yaml:"port" validate:"min=1,max=65535"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=json text"`
	} `yaml:"log"`

	Auth struct {
		JWTSecret string        `yaml:"jwtSecret" validate:"required,min=16"`
		TokenTTL  time.Duration `yaml:"tokenTTL"`
	} `yaml:"auth"`

	Generation struct {
		Provider     string        `yaml:"provider" validate:"oneof=ollama openai"`
		OllamaURL    string        `yaml:"ollamaURL" validate:"omitempty,url"`
		DefaultModel string        `yaml:"defaultModel"`
		MaxRetries   int           `yaml:"maxRetries" validate:"min=1,max=5"`
		Timeout      time.Duration `yaml:"timeout"`
		RetryPause   time.Duration `yaml:"retryPause"`
		OpenAI       struct {
			APIKey  string `yaml:"apiKey"`
			BaseURL string `yaml:"baseURL"`
		} `yaml:"openai"`
		// Models overrides sampling parameters per model family.
		Models map[string]ai.SamplingParams `yaml:"models"`
	} `yaml:"generation"`

	Insights struct {
		Workers            int `yaml:"workers" validate:"min=0,max=16"`
		RateLimitPerMinute int `yaml:"rateLimitPerMinute"`
	} `yaml:"insights"`

	Audit struct {
		Driver string `yaml:"driver" validate:"omitempty,oneof=mysql postgres"`
	} `yaml:"audit"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Archive struct {
		Backend string `yaml:"backend" validate:"omitempty,oneof=minio s3"`
	} `yaml:"archive"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	S3 struct {
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"accessKey"`
		SecretKey string `yaml:"secretKey"`
	} `yaml:"s3"`

	Roles   []RoleConfig      `yaml:"roles" validate:"required,min=1,dive"`
	Clients []clients.Profile `yaml:"clients" validate:"required,min=1,dive"`
}

// RoleConfig is a role as written in the config file.
type RoleConfig struct {
	Name        string     `yaml:"name" validate:"required"`
	Permissions []string   `yaml:"permissions"`
	Widgets     []string   `yaml:"widgets"`
	Prompts     PromptList `yaml:"prompts" validate:"required,min=1"`
}

// PromptList decodes a YAML mapping of kind to template, keeping the order
// the kinds are written in.
type PromptList []roles.Prompt

func (p *PromptList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: prompts must be a mapping of kind to template", value.Line)
	}
	out := make(PromptList, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var kind, tmpl string
		if err := value.Content[i].Decode(&kind); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&tmpl); err != nil {
			return err
		}
		out = append(out, roles.Prompt{Kind: kind, Template: tmpl})
	}
	*p = out
	return nil
}

// envOverrides are read with envconfig. Zero values leave the file setting
// untouched.
type envOverrides struct {
	ServerPort         int           `envconfig:"SERVER_PORT"`
	LogLevel           string        `envconfig:"LOG_LEVEL"`
	LogFormat          string        `envconfig:"LOG_FORMAT"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	Provider           string        `envconfig:"GENERATION_PROVIDER"`
	OllamaURL          string        `envconfig:"OLLAMA_URL"`
	DefaultModel       string        `envconfig:"DEFAULT_MODEL"`
	Timeout            time.Duration `envconfig:"GENERATION_TIMEOUT"`
	OpenAIAPIKey       string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL      string        `envconfig:"OPENAI_BASE_URL"`
	Workers            int           `envconfig:"INSIGHT_WORKERS"`
	AuditDriver        string        `envconfig:"AUDIT_DRIVER"`
	DatabasePassword   string        `envconfig:"DATABASE_PASSWORD"`
	ArchiveBackend     string        `envconfig:"ARCHIVE_BACKEND"`
	MinioAccessKey     string        `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey     string        `envconfig:"MINIO_SECRET_KEY"`
	S3AccessKey        string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey        string        `envconfig:"S3_SECRET_KEY"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE"`
}

// Load reads an optional .env file, the YAML config at path and then
// environment overrides, in that order.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document with environment overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.apply(env)
	cfg.setDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) apply(e envOverrides) {
	setInt(&c.Server.Port, e.ServerPort)
	setString(&c.Log.Level, e.LogLevel)
	setString(&c.Log.Format, e.LogFormat)
	setString(&c.Auth.JWTSecret, e.JWTSecret)
	setString(&c.Generation.Provider, e.Provider)
	setString(&c.Generation.OllamaURL, e.OllamaURL)
	setString(&c.Generation.DefaultModel, e.DefaultModel)
	setString(&c.Generation.OpenAI.APIKey, e.OpenAIAPIKey)
	setString(&c.Generation.OpenAI.BaseURL, e.OpenAIBaseURL)
	if e.Timeout > 0 {
		c.Generation.Timeout = e.Timeout
	}
	setInt(&c.Insights.Workers, e.Workers)
	setInt(&c.Insights.RateLimitPerMinute, e.RateLimitPerMinute)
	setString(&c.Audit.Driver, e.AuditDriver)
	setString(&c.Database.Password, e.DatabasePassword)
	setString(&c.Archive.Backend, e.ArchiveBackend)
	setString(&c.Minio.AccessKey, e.MinioAccessKey)
	setString(&c.Minio.SecretKey, e.MinioSecretKey)
	setString(&c.S3.AccessKey, e.S3AccessKey)
	setString(&c.S3.SecretKey, e.S3SecretKey)
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// a full batch runs several generations back to back
		c.Server.WriteTimeout = 15 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "ollama"
	}
	if c.Generation.OllamaURL == "" {
		c.Generation.OllamaURL = "http://localhost:11434"
	}
	if c.Generation.DefaultModel == "" {
		c.Generation.DefaultModel = "gemma:2b"
	}
	if c.Generation.MaxRetries == 0 {
		c.Generation.MaxRetries = 2
	}
	if c.Generation.Timeout == 0 {
		c.Generation.Timeout = 90 * time.Second
	}
	if c.Generation.RetryPause == 0 {
		c.Generation.RetryPause = 2 * time.Second
	}
	if c.Insights.Workers == 0 {
		c.Insights.Workers = 1
	}
	if c.Insights.RateLimitPerMinute == 0 {
		c.Insights.RateLimitPerMinute = 10
	}
}

// RoleTable builds the role/permission table.
func (c *Config) RoleTable() (*roles.Table, error) {
	rs := make([]roles.Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		rs = append(rs, roles.Role{
			Name:        r.Name,
			Permissions: r.Permissions,
			Widgets:     r.Widgets,
			Prompts:     []roles.Prompt(r.Prompts),
		})
	}
	return roles.NewTable(rs)
}

func (c *Config) Catalog() *clients.Catalog {
	return clients.NewCatalog(c.Clients)
}

// Params merges configured sampling parameters over the built-in ones.
func (c *Config) Params() ai.ParamsTable {
	t := ai.DefaultParams()
	for family, p := range c.Generation.Models {
		t[ai.Family(family)] = p
	}
	return t
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		sslMode,
	)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
