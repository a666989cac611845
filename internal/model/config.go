package model

import "time"

// Config is the complete narrtl configuration
type Config struct {
	Parser      ParserConfig      `yaml:"parser" mapstructure:"parser"`
	Lexicon     LexiconConfig     `yaml:"lexicon" mapstructure:"lexicon"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Narrator    NarratorConfig    `yaml:"narrator" mapstructure:"narrator"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
}

// ParserConfig selects the dependency source
type ParserConfig struct {
	URL               string        `yaml:"url" mapstructure:"url"`       // spaCy-style parse service
	ConllU            string        `yaml:"conllu" mapstructure:"conllu"` // pre-parsed CoNLL-U file (overrides url)
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// LexiconConfig locates the semantic class tables
type LexiconConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`     // YAML lexicon
	SQLite string `yaml:"sqlite" mapstructure:"sqlite"` // SQLite lexicon (optional)
}

// LLMConfig configures the optional class-resolution fallback
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig configures parse and class caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig configures outbound HTTP
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`

	// Outbound proxy for narrative fetches and LLM calls; empty values
	// fall back to HTTP_PROXY, HTTPS_PROXY and NO_PROXY
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// NarratorConfig describes the narrator for agreement checks
type NarratorConfig struct {
	Gender string `yaml:"gender" mapstructure:"gender"` // female, male or ""
}

// ConcurrencyConfig bounds parallel narrative processing
type ConcurrencyConfig struct {
	Narratives int `yaml:"narratives" mapstructure:"narratives"`
}

// OutputConfig controls reporting
type OutputConfig struct {
	Verbose  bool `yaml:"verbose" mapstructure:"verbose"`
	Validate bool `yaml:"validate" mapstructure:"validate"` // drop fragments that fail Turtle parsing
}

// ServerConfig configures `narrtl serve`
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			URL:               "http://localhost:8090/parse",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 20,
			Burst:             5,
		},
		Lexicon: LexiconConfig{
			Path: "lexicon.yaml",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 50,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".narrtl-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "narrtl/0.1",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Narratives: 4,
		},
		Output: OutputConfig{
			Validate: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
