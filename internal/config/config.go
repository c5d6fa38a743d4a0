package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "AUTOBLOGGER_CONFIG"
	logLevelEnv       = "AUTOBLOGGER_LOG_LEVEL"
	generationKeyEnv  = "GENERATION_API_KEY"
	generationModel   = "GENERATION_MODEL"
	generationBackend = "GENERATION_BACKEND"
	geminiKeyEnv      = "GEMINI_API_KEY"
	pixabayKeyEnv     = "PIXABAY_API_KEY"
	siteRootEnv       = "SITE_ROOT"
	outputDirEnv      = "OUTPUT_DIR"
	ledgerPathEnv     = "LEDGER_PATH"
	indexNowKeyEnv    = "INDEXNOW_API_KEY"
	indexNowHostEnv   = "INDEXNOW_HOST"
	indexNowFeedEnv   = "RSS_URL"
	sectionsEnv       = "ARTICLE_SECTIONS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	Images     ImagesConfig     `yaml:"images"`
	Site       SiteConfig       `yaml:"site"`
	Article    ArticleConfig    `yaml:"article"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	IndexNow   IndexNowConfig   `yaml:"indexnow"`
	Compress   CompressConfig   `yaml:"compress"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GenerationConfig describes the text-generation backend and the retry policy
// shared by every stage.
type GenerationConfig struct {
	// Backend is "openai" (any OpenAI-compatible endpoint) or "gemini".
	Backend      string        `yaml:"backend"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	GeminiAPIKey string        `yaml:"geminiApiKey"`
	Temperature  float64       `yaml:"temperature"`
	TopP         float64       `yaml:"topP"`
	MaxTokens    int           `yaml:"maxTokens"`
	MaxRetries   int           `yaml:"maxRetries"`
	BaseDelay    time.Duration `yaml:"baseDelay"`
	Timeout      time.Duration `yaml:"timeout"`
	// TopicTimeout bounds one whole topic run; zero disables it.
	TopicTimeout time.Duration `yaml:"topicTimeout"`
}

// SearchConfig tunes the competitor search and page fetching.
type SearchConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	UserAgent      string        `yaml:"userAgent"`
	Results        int           `yaml:"results"`
	SectionResults int           `yaml:"sectionResults"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxPageBytes   int64         `yaml:"maxPageBytes"`
	MaxPromptChars int           `yaml:"maxPromptChars"`
}

// ImagesConfig wires the Pixabay image search.
type ImagesConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SiteConfig locates the published site on disk and on the web.
type SiteConfig struct {
	Root        string `yaml:"root"`
	OutputDir   string `yaml:"outputDir"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	TOCLabel    string `yaml:"tocLabel"`
	Related     string `yaml:"relatedLabel"`
}

// ArticleConfig holds the defaults of a generate run.
type ArticleConfig struct {
	Sections int      `yaml:"sections"`
	Language string   `yaml:"language"`
	Category []string `yaml:"category"`
	Review   bool     `yaml:"review"`
}

// LedgerConfig points at the SQLite file of published topics.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// IndexNowConfig defines how to submit URLs to IndexNow.
type IndexNowConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	Host     string `yaml:"host"`
	// FeedURL is a URL or a local path of the feed whose links are submitted.
	FeedURL string `yaml:"feedUrl"`
}

// CompressConfig drives the image compression command.
type CompressConfig struct {
	Quality     int `yaml:"quality"`
	ThresholdKB int `yaml:"thresholdKb"`
}

// Load reads .env and the YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(generationKeyEnv); v != "" {
		c.Generation.APIKey = v
	}
	if v := os.Getenv(generationModel); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv(generationBackend); v != "" {
		c.Generation.Backend = v
	}
	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Generation.GeminiAPIKey = v
	}

	if v := os.Getenv(pixabayKeyEnv); v != "" {
		c.Images.APIKey = v
	}

	if v := os.Getenv(siteRootEnv); v != "" {
		c.Site.Root = v
	}
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Site.OutputDir = v
	}

	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv(indexNowKeyEnv); v != "" {
		c.IndexNow.APIKey = v
	}
	if v := os.Getenv(indexNowHostEnv); v != "" {
		c.IndexNow.Host = v
	}
	if v := os.Getenv(indexNowFeedEnv); v != "" {
		c.IndexNow.FeedURL = v
	}

	if v := os.Getenv(sectionsEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Article.Sections = n
		} else {
			log.Printf("config: ignoring ARTICLE_SECTIONS=%q", v)
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	g := override.Generation
	if g.Backend != "" {
		base.Generation.Backend = g.Backend
	}
	if g.Endpoint != "" {
		base.Generation.Endpoint = g.Endpoint
	}
	if g.Model != "" {
		base.Generation.Model = g.Model
	}
	if g.APIKey != "" {
		base.Generation.APIKey = g.APIKey
	}
	if g.GeminiAPIKey != "" {
		base.Generation.GeminiAPIKey = g.GeminiAPIKey
	}
	if g.Temperature != 0 {
		base.Generation.Temperature = g.Temperature
	}
	if g.TopP != 0 {
		base.Generation.TopP = g.TopP
	}
	if g.MaxTokens != 0 {
		base.Generation.MaxTokens = g.MaxTokens
	}
	if g.MaxRetries != 0 {
		base.Generation.MaxRetries = g.MaxRetries
	}
	if g.BaseDelay != 0 {
		base.Generation.BaseDelay = g.BaseDelay
	}
	if g.Timeout != 0 {
		base.Generation.Timeout = g.Timeout
	}
	if g.TopicTimeout != 0 {
		base.Generation.TopicTimeout = g.TopicTimeout
	}

	s := override.Search
	if s.Endpoint != "" {
		base.Search.Endpoint = s.Endpoint
	}
	if s.UserAgent != "" {
		base.Search.UserAgent = s.UserAgent
	}
	if s.Results != 0 {
		base.Search.Results = s.Results
	}
	if s.SectionResults != 0 {
		base.Search.SectionResults = s.SectionResults
	}
	if s.Timeout != 0 {
		base.Search.Timeout = s.Timeout
	}
	if s.MaxPageBytes != 0 {
		base.Search.MaxPageBytes = s.MaxPageBytes
	}
	if s.MaxPromptChars != 0 {
		base.Search.MaxPromptChars = s.MaxPromptChars
	}

	if override.Images.Endpoint != "" {
		base.Images.Endpoint = override.Images.Endpoint
	}
	if override.Images.APIKey != "" {
		base.Images.APIKey = override.Images.APIKey
	}
	if override.Images.Timeout != 0 {
		base.Images.Timeout = override.Images.Timeout
	}

	site := override.Site
	if site.Root != "" {
		base.Site.Root = site.Root
	}
	if site.OutputDir != "" {
		base.Site.OutputDir = site.OutputDir
	}
	if site.Title != "" {
		base.Site.Title = site.Title
	}
	if site.Description != "" {
		base.Site.Description = site.Description
	}
	if site.TOCLabel != "" {
		base.Site.TOCLabel = site.TOCLabel
	}
	if site.Related != "" {
		base.Site.Related = site.Related
	}

	if override.Article.Sections != 0 {
		base.Article.Sections = override.Article.Sections
	}
	if override.Article.Language != "" {
		base.Article.Language = override.Article.Language
	}
	if len(override.Article.Category) > 0 {
		base.Article.Category = override.Article.Category
	}
	if override.Article.Review {
		base.Article.Review = true
	}

	if override.Ledger.Path != "" {
		base.Ledger.Path = override.Ledger.Path
	}

	if override.IndexNow.Endpoint != "" {
		base.IndexNow.Endpoint = override.IndexNow.Endpoint
	}
	if override.IndexNow.APIKey != "" {
		base.IndexNow.APIKey = override.IndexNow.APIKey
	}
	if override.IndexNow.Host != "" {
		base.IndexNow.Host = override.IndexNow.Host
	}
	if override.IndexNow.FeedURL != "" {
		base.IndexNow.FeedURL = override.IndexNow.FeedURL
	}

	if override.Compress.Quality != 0 {
		base.Compress.Quality = override.Compress.Quality
	}
	if override.Compress.ThresholdKB != 0 {
		base.Compress.ThresholdKB = override.Compress.ThresholdKB
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Generation: GenerationConfig{
			Backend:     "openai",
			Endpoint:    "https://integrate.api.nvidia.com/v1/chat/completions",
			Model:       "meta/llama-3.1-405b-instruct",
			Temperature: 0.2,
			TopP:        0.7,
			MaxTokens:   8000,
			MaxRetries:  3,
			BaseDelay:   2 * time.Second,
			Timeout:     5 * time.Minute,
		},
		Search: SearchConfig{
			Endpoint:       "https://www.google.com/search",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Results:        10,
			SectionResults: 3,
			Timeout:        20 * time.Second,
			MaxPageBytes:   5 << 20,
			MaxPromptChars: 12000,
		},
		Images: ImagesConfig{
			Endpoint: "https://pixabay.com/api/",
			Timeout:  30 * time.Second,
		},
		Site: SiteConfig{
			Root:      "https://avoir.me",
			OutputDir: ".",
			Title:     "avoir.me",
		},
		Article: ArticleConfig{
			Sections: 4,
			Language: "traditional chinese",
		},
		Ledger: LedgerConfig{Path: "autoblogger.db"},
		IndexNow: IndexNowConfig{
			Endpoint: "https://api.indexnow.org/indexnow",
			Host:     "avoir.me",
			FeedURL:  "https://avoir.me/rss.xml",
		},
		Compress: CompressConfig{Quality: 65, ThresholdKB: 200},
	}
}
