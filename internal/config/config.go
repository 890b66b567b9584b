package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lpernett/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "GUIDE_CONFIG"
	dotenvPathEnv      = "GUIDE_DOTENV"
	portEnv            = "PORT"
	logLevelEnv        = "LOG_LEVEL"
	useRemoteEnv       = "USE_TRELENT"
	ingestionURLEnv    = "TRELENT_DATA_INGESTION_API_URL"
	ingestionTokenEnv  = "TRELENT_DATA_INGESTION_API_TOKEN"
	openAIKeyEnv       = "OPENAI_API_KEY"
	openAIModelEnv     = "OPENAI_MODEL"
	openAIEndpointEnv  = "OPENAI_BASE_URL"
	pollIntervalEnv    = "GUIDE_POLL_INTERVAL"
	pollMaxWaitEnv     = "GUIDE_POLL_MAX_WAIT"
	sanitizeEnv        = "GUIDE_SANITIZE_HTML"
	defaultDotenvPath  = ".env"
	defaultOpenAIModel = "gpt-4.1-mini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Mock      MockConfig      `yaml:"mock"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Rewrite   RewriteConfig   `yaml:"rewrite"`
	Poll      PollConfig      `yaml:"poll"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// IngestionConfig wires the document ingestion backend.
type IngestionConfig struct {
	UseRemote           bool          `yaml:"useRemote"`
	BaseURL             string        `yaml:"baseUrl"`
	Token               string        `yaml:"token"`
	UploadExpiryDays    int           `yaml:"uploadExpiryDays"`
	OutputExpiryMinutes int           `yaml:"outputExpiryMinutes"`
	Timeout             time.Duration `yaml:"timeout"`
	SampleURL           string        `yaml:"sampleUrl"`
}

// MockConfig tunes the in-memory ingestion service.
type MockConfig struct {
	QueuedFor    time.Duration `yaml:"queuedFor"`
	RunningUntil time.Duration `yaml:"runningUntil"`
	MarkdownURL  string        `yaml:"markdownUrl"`
}

// OpenAIConfig defines how to contact the text-generation API.
type OpenAIConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RewriteConfig controls post-processing of generated HTML.
type RewriteConfig struct {
	Sanitize bool `yaml:"sanitize"`
}

// PollConfig controls the job status poller.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	// MaxWait of zero polls until a terminal status.
	MaxWait time.Duration `yaml:"maxWait"`
}

// Load reads .env, the YAML configuration (if present) and applies environment overrides.
func Load() Config {
	loadDotenv()

	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func loadDotenv() {
	path := os.Getenv(dotenvPathEnv)
	if path == "" {
		path = defaultDotenvPath
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(portEnv); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.Server.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(useRemoteEnv); v != "" {
		c.Ingestion.UseRemote = v == "true"
	}

	if v := os.Getenv(ingestionURLEnv); v != "" {
		c.Ingestion.BaseURL = v
	}

	if v := os.Getenv(ingestionTokenEnv); v != "" {
		c.Ingestion.Token = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(openAIEndpointEnv); v != "" {
		c.OpenAI.Endpoint = strings.TrimSuffix(v, "/") + "/chat/completions"
	}

	if v := os.Getenv(pollIntervalEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Poll.Interval = d
		}
	}

	if v := os.Getenv(pollMaxWaitEnv); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Poll.MaxWait = d
		}
	}

	if v := os.Getenv(sanitizeEnv); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Rewrite.Sanitize = b
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ReadTimeout > 0 {
		base.Server.ReadTimeout = override.Server.ReadTimeout
	}
	if override.Server.WriteTimeout > 0 {
		base.Server.WriteTimeout = override.Server.WriteTimeout
	}
	if override.Server.MaxUploadBytes > 0 {
		base.Server.MaxUploadBytes = override.Server.MaxUploadBytes
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Ingestion.UseRemote {
		base.Ingestion.UseRemote = true
	}
	if override.Ingestion.BaseURL != "" {
		base.Ingestion.BaseURL = override.Ingestion.BaseURL
	}
	if override.Ingestion.Token != "" {
		base.Ingestion.Token = override.Ingestion.Token
	}
	if override.Ingestion.UploadExpiryDays > 0 {
		base.Ingestion.UploadExpiryDays = override.Ingestion.UploadExpiryDays
	}
	if override.Ingestion.OutputExpiryMinutes > 0 {
		base.Ingestion.OutputExpiryMinutes = override.Ingestion.OutputExpiryMinutes
	}
	if override.Ingestion.Timeout > 0 {
		base.Ingestion.Timeout = override.Ingestion.Timeout
	}
	if override.Ingestion.SampleURL != "" {
		base.Ingestion.SampleURL = override.Ingestion.SampleURL
	}

	if override.Mock.QueuedFor > 0 {
		base.Mock.QueuedFor = override.Mock.QueuedFor
	}
	if override.Mock.RunningUntil > 0 {
		base.Mock.RunningUntil = override.Mock.RunningUntil
	}
	if override.Mock.MarkdownURL != "" {
		base.Mock.MarkdownURL = override.Mock.MarkdownURL
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Temperature > 0 {
		base.OpenAI.Temperature = override.OpenAI.Temperature
	}
	if override.OpenAI.Timeout > 0 {
		base.OpenAI.Timeout = override.OpenAI.Timeout
	}

	if override.Rewrite.Sanitize {
		base.Rewrite.Sanitize = true
	}

	if override.Poll.Interval > 0 {
		base.Poll.Interval = override.Poll.Interval
	}
	if override.Poll.MaxWait > 0 {
		base.Poll.MaxWait = override.Poll.MaxWait
	}

	return base
}

// Validate reports settings that would make the selected backends unusable.
func (c Config) Validate() error {
	var errs []error
	if c.Ingestion.UseRemote {
		if c.Ingestion.BaseURL == "" {
			errs = append(errs, errors.New(ingestionURLEnv+" is required when "+useRemoteEnv+"=true"))
		}
		if c.Ingestion.Token == "" {
			errs = append(errs, errors.New(ingestionTokenEnv+" is required when "+useRemoteEnv+"=true"))
		}
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Mock.RunningUntil < c.Mock.QueuedFor {
		errs = append(errs, errors.New("mock runningUntil must not be shorter than queuedFor"))
	}
	return errors.Join(errs...)
}

// Default returns the built-in settings before file and environment overrides.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":3000",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   90 * time.Second,
			MaxUploadBytes: 50 << 20,
		},
		Logging: LoggingConfig{Level: "info"},
		Ingestion: IngestionConfig{
			UploadExpiryDays:    7,
			OutputExpiryMinutes: 120,
			Timeout:             60 * time.Second,
			SampleURL:           "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
		},
		Mock: MockConfig{
			QueuedFor:    2 * time.Second,
			RunningUntil: 5 * time.Second,
			MarkdownURL:  "https://example.com/fake-guide.md",
		},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    defaultOpenAIModel,
			Timeout:  60 * time.Second,
		},
		Poll: PollConfig{Interval: 2 * time.Second},
	}
}
