package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported store backends
const (
	BackendGitHub = "github"
	BackendSpaces = "spaces"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		Host            string        `yaml:"host"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	} `yaml:"server"`

	CORS struct {
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`

	GitHub struct {
		ClientID       string        `yaml:"client_id"`
		ClientSecret   string        `yaml:"client_secret"`
		RedirectURL    string        `yaml:"redirect_url"`
		Scopes         []string      `yaml:"scopes"`
		AuthURL        string        `yaml:"auth_url"`
		TokenURL       string        `yaml:"token_url"`
		APIBaseURL     string        `yaml:"api_base_url"`
		Token          string        `yaml:"token"`
		Owner          string        `yaml:"owner"`
		Repo           string        `yaml:"repo"`
		Branch         string        `yaml:"branch"`
		IssuesOwner    string        `yaml:"issues_owner"`
		IssuesRepo     string        `yaml:"issues_repo"`
		CommitterName  string        `yaml:"committer_name"`
		CommitterEmail string        `yaml:"committer_email"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"github"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		Issuer    string        `yaml:"issuer"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Store struct {
		Backend      string        `yaml:"backend"`
		Path         string        `yaml:"path"`
		MaxAttempts  int           `yaml:"max_attempts"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
	} `yaml:"store"`

	LLM struct {
		Provider    string        `yaml:"provider"`
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float32       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Enrichment struct {
		Enabled          bool          `yaml:"enabled"`
		Fetcher          string        `yaml:"fetcher"` // "http" or "firecrawl"
		Timeout          time.Duration `yaml:"timeout"`
		RateLimit        int           `yaml:"rate_limit"` // fetches per minute per host
		MaxContentLength int           `yaml:"max_content_length"`
		UserAgent        string        `yaml:"user_agent"`
		RedFlags         []string      `yaml:"red_flags"`
		// AllowPrivateHosts lets fetches reach loopback and private networks
		AllowPrivateHosts bool `yaml:"allow_private_hosts"`
	} `yaml:"enrichment"`

	Firecrawl struct {
		APIKey  string   `yaml:"api_key"`
		APIURL  string   `yaml:"api_url"`
		Formats []string `yaml:"formats"`
	} `yaml:"firecrawl"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	DigitalOcean struct {
		Spaces struct {
			Endpoint        string `yaml:"endpoint"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region"`
			BucketName      string `yaml:"bucket_name"`
			ForcePathStyle  bool   `yaml:"force_path_style"`
		} `yaml:"spaces"`
	} `yaml:"digitalocean"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`

		Adapters []LogAdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`
}

// LogAdapterConfig describes one log sink (stdout or file)
type LogAdapterConfig struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

var (
	bracedVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVarRe   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax.
// Unknown variables are left untouched.
func expandEnvVars(s string) string {
	s = bracedVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	return bareVarRe.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// Default returns a configuration populated with built-in defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.RequestTimeout = 30 * time.Second
	config.Server.ShutdownTimeout = 30 * time.Second
	config.Server.MaxBodyBytes = 1024 * 1024

	config.CORS.AllowOrigins = []string{"*"}

	config.GitHub.Scopes = []string{"read:user", "public_repo"}
	config.GitHub.Branch = "main"
	config.GitHub.CommitterName = "jobboard-gateway"
	config.GitHub.CommitterEmail = "jobboard-gateway@users.noreply.github.com"
	config.GitHub.Timeout = 15 * time.Second

	config.Auth.Issuer = "jobboard-gateway"
	config.Auth.TokenTTL = 24 * time.Hour

	config.Store.Backend = BackendGitHub
	config.Store.Path = "data/jobs.json"
	config.Store.MaxAttempts = 3
	config.Store.RetryBackoff = 100 * time.Millisecond

	config.LLM.Provider = "claude"
	config.LLM.MaxTokens = 1024
	config.LLM.Temperature = 0.2
	config.LLM.Timeout = 30 * time.Second

	config.Enrichment.Enabled = true
	config.Enrichment.Fetcher = "http"
	config.Enrichment.Timeout = 20 * time.Second
	config.Enrichment.RateLimit = 30
	config.Enrichment.MaxContentLength = 12000
	config.Enrichment.UserAgent = "Mozilla/5.0 (compatible; jobboard-gateway/1.0)"
	config.Enrichment.RedFlags = []string{
		"wire transfer", "registration fee", "pay to apply", "whatsapp only", "crypto investment",
	}

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Formats = []string{"markdown"}

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second

	config.DigitalOcean.Spaces.Region = "blr1"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		}
	}

	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.CORS.AllowOrigins = splitList(origins)
	}

	// GitHub
	setString(&c.GitHub.ClientID, "GITHUB_CLIENT_ID")
	setString(&c.GitHub.ClientSecret, "GITHUB_CLIENT_SECRET")
	setString(&c.GitHub.RedirectURL, "GITHUB_REDIRECT_URL")
	setString(&c.GitHub.APIBaseURL, "GITHUB_API_BASE_URL")
	setString(&c.GitHub.Token, "GITHUB_TOKEN")
	setString(&c.GitHub.Owner, "GITHUB_OWNER")
	setString(&c.GitHub.Repo, "GITHUB_REPO")
	setString(&c.GitHub.Branch, "GITHUB_BRANCH")
	setString(&c.GitHub.IssuesOwner, "GITHUB_ISSUES_OWNER")
	setString(&c.GitHub.IssuesRepo, "GITHUB_ISSUES_REPO")

	// Auth
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&c.Auth.TokenTTL, "JWT_TTL")

	// Store
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.Path, "STORE_PATH")
	setInt(&c.Store.MaxAttempts, "STORE_MAX_ATTEMPTS")
	setDuration(&c.Store.RetryBackoff, "STORE_RETRY_BACKOFF")

	// LLM
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setDuration(&c.LLM.Timeout, "LLM_TIMEOUT")

	// Enrichment
	if enabled := os.Getenv("ENRICHMENT_ENABLED"); enabled != "" {
		c.Enrichment.Enabled = enabled == "true" || enabled == "1"
	}
	if allow := os.Getenv("ENRICHMENT_ALLOW_PRIVATE_HOSTS"); allow != "" {
		c.Enrichment.AllowPrivateHosts = allow == "true" || allow == "1"
	}
	setString(&c.Enrichment.Fetcher, "ENRICHMENT_FETCHER")
	setDuration(&c.Enrichment.Timeout, "ENRICHMENT_TIMEOUT")

	setString(&c.Firecrawl.APIKey, "FIRECRAWL_API_KEY")
	setString(&c.Firecrawl.APIURL, "FIRECRAWL_API_URL")

	// Redis
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setDuration(&c.Redis.Timeout, "REDIS_TIMEOUT")

	// DigitalOcean Spaces configuration
	setString(&c.DigitalOcean.Spaces.Endpoint, "BUCKET_ENDPOINT")
	setString(&c.DigitalOcean.Spaces.AccessKeyID, "BUCKET_ACCESS_KEY_ID")
	setString(&c.DigitalOcean.Spaces.AccessKeySecret, "BUCKET_ACCESS_KEY_SECRET")
	setString(&c.DigitalOcean.Spaces.Region, "BUCKET_REGION")
	setString(&c.DigitalOcean.Spaces.BucketName, "BUCKET_NAME")

	// Logging
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
}

// Validate reports settings that are required by the selected features
func (c *Config) Validate() error {
	var missing []string

	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	switch c.Store.Backend {
	case BackendGitHub:
		if c.GitHub.Token == "" {
			missing = append(missing, "GITHUB_TOKEN")
		}
		if c.GitHub.Owner == "" {
			missing = append(missing, "GITHUB_OWNER")
		}
		if c.GitHub.Repo == "" {
			missing = append(missing, "GITHUB_REPO")
		}
	case BackendSpaces:
		if c.DigitalOcean.Spaces.AccessKeyID == "" || c.DigitalOcean.Spaces.AccessKeySecret == "" {
			missing = append(missing, "BUCKET_ACCESS_KEY_ID/BUCKET_ACCESS_KEY_SECRET")
		}
		if c.DigitalOcean.Spaces.BucketName == "" {
			missing = append(missing, "BUCKET_NAME")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			missing = append(missing, "REDIS_URL")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}

	if c.Store.MaxAttempts < 1 {
		return fmt.Errorf("store.max_attempts must be at least 1, got %d", c.Store.MaxAttempts)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IssuesRepository returns the owner/repo pair used by the issues proxy,
// defaulting to the repository that holds the job file.
func (c *Config) IssuesRepository() (string, string) {
	owner, repo := c.GitHub.IssuesOwner, c.GitHub.IssuesRepo
	if owner == "" {
		owner = c.GitHub.Owner
	}
	if repo == "" {
		repo = c.GitHub.Repo
	}
	return owner, repo
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
