package cpbrules

import "time"

// Language model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Default policy the tool extracts when no URL is given.
const (
	DefaultSourceURL = "https://www.aetna.com/cpb/medical/data/300_399/0369.html"
	DefaultTitle     = "Chronic Fatigue Syndrome"
	DefaultPayer     = "Aetna"
)

// DefaultUserAgent identifies requests as a desktop browser; some payer sites
// reject unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Config holds the settings for a pipeline run.
type Config struct {
	// Provider selects the language model backend: "openai" or "gemini".
	Provider string `koanf:"provider"`

	// APIKey authorizes calls to the provider.
	APIKey string `koanf:"api_key"`

	// Model selects the model variant. Empty means the provider default.
	Model string `koanf:"model"`

	SourceURL string          `koanf:"source_url"`
	Title     string          `koanf:"title"`
	Payer     string          `koanf:"payer"`
	Section   SectionSelector `koanf:"section"`
	UserAgent string          `koanf:"user_agent"`

	FetchTimeout      time.Duration `koanf:"fetch_timeout"`
	CompletionTimeout time.Duration `koanf:"completion_timeout"`

	// Attempts bounds completions per policy. Values above one enable
	// corrective re-prompting after malformed or invalid output.
	Attempts int `koanf:"attempts"`

	// MaxPromptTokens rejects prompts larger than this. Zero disables the check.
	MaxPromptTokens int `koanf:"max_prompt_tokens"`

	// Strict enforces operator values and operator/children co-presence.
	Strict bool `koanf:"strict"`

	// Browser renders pages in headless Chrome instead of a plain GET.
	Browser bool `koanf:"browser"`

	// Concurrency is the number of policies a batch processes at once.
	Concurrency int `koanf:"concurrency"`

	// RateLimit is the request rate allowed per payer host, in requests
	// per second. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Provider:          ProviderOpenAI,
		SourceURL:         DefaultSourceURL,
		Title:             DefaultTitle,
		Payer:             DefaultPayer,
		Section:           DefaultSection,
		UserAgent:         DefaultUserAgent,
		FetchTimeout:      30 * time.Second,
		CompletionTimeout: 2 * time.Minute,
		Attempts:          3,
		Concurrency:       4,
		RateLimit:         1,
	}
}

// ResolveModel returns the configured model or the provider's default.
func (c *Config) ResolveModel() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// APIKeyEnv returns the provider's conventional credential variable.
func (c *Config) APIKeyEnv() string {
	if c.Provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// Request returns the policy request described by the configuration.
func (c *Config) Request() *PolicyRequest {
	return &PolicyRequest{URL: c.SourceURL, Title: c.Title, Payer: c.Payer}
}

// Validate returns an error if the configuration cannot drive a run.
// The API key is checked separately since commands that never call the
// model do not need it.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return Errorf(EINVALID, "unknown provider %q (want %q or %q)", c.Provider, ProviderOpenAI, ProviderGemini)
	}
	if err := c.Section.Validate(); err != nil {
		return err
	}
	if c.FetchTimeout < 0 || c.CompletionTimeout < 0 {
		return Errorf(EINVALID, "timeouts must not be negative")
	}
	if c.Attempts < 1 {
		return Errorf(EINVALID, "attempts must be at least 1, got %d", c.Attempts)
	}
	if c.MaxPromptTokens < 0 {
		return Errorf(EINVALID, "max prompt tokens must not be negative")
	}
	if c.Concurrency < 1 {
		return Errorf(EINVALID, "concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RateLimit < 0 {
		return Errorf(EINVALID, "rate limit must not be negative")
	}
	return nil
}
