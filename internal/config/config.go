package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	logtypes "jobsnap/internal/logging/types"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Crawler struct {
		UserAgents        []string      `yaml:"user_agents"`
		MaxJobs           int           `yaml:"max_jobs" default:"0"` // 0 means no cap
		MaxConcurrentJobs int           `yaml:"max_concurrent_jobs" default:"3"`
		NavigationTimeout time.Duration `yaml:"navigation_timeout" default:"45s"`
		SettleTimeout     time.Duration `yaml:"settle_timeout" default:"10s"`
		HeadlessMode      bool          `yaml:"headless_mode" default:"true"`
		StealthMode       bool          `yaml:"stealth_mode" default:"true"`
		MaxScrolls        int           `yaml:"max_scrolls" default:"10"`
		Captcha           struct {
			Provider        string        `yaml:"provider" default:"2captcha"`
			APIKey          string        `yaml:"api_key"`
			Timeout         time.Duration `yaml:"timeout" default:"120s"`
			EnableAutoSolve bool          `yaml:"enable_auto_solve" default:"false"`
		} `yaml:"captcha"`
	} `yaml:"crawler"`

	Capture struct {
		Format       string        `yaml:"format" default:"image"` // image or pdf
		FullPage     bool          `yaml:"full_page" default:"true"`
		ImageQuality int           `yaml:"image_quality" default:"90"`
		WaitBefore   time.Duration `yaml:"wait_before" default:"2s"`
	} `yaml:"capture"`

	Storage struct {
		Backend string `yaml:"backend" default:"local"` // local or spaces
		BaseDir string `yaml:"base_dir" default:"job_captures"`
		// MaxConcurrentSaves bounds the capture-and-persist fan-out.
		// 0 falls back to the adapter's parse ceiling.
		MaxConcurrentSaves int `yaml:"max_concurrent_saves" default:"0"`
		Spaces  struct {
			BucketURL       string `yaml:"bucket_url"`
			CDNEndpoint     string `yaml:"cdn_endpoint"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region" default:"blr1"`
			BucketName      string `yaml:"bucket_name"`
		} `yaml:"spaces"`
	} `yaml:"storage"`

	Workers struct {
		RateLimit  int           `yaml:"rate_limit" default:"60"` // requests per minute per domain
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
	} `yaml:"workers"`

	BackgroundTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"10"`
		TaskTimeout        time.Duration `yaml:"task_timeout" default:"900s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge         time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	Firecrawl struct {
		APIKey     string        `yaml:"api_key"`
		APIURL     string        `yaml:"api_url" default:"https://api.firecrawl.dev"`
		Timeout    time.Duration `yaml:"timeout" default:"60s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		Enabled    bool          `yaml:"enabled" default:"false"`
	} `yaml:"firecrawl"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
		Enabled  bool          `yaml:"enabled" default:"false"`
		TTL      time.Duration `yaml:"ttl" default:"168h"`
	} `yaml:"redis"`

	Logging struct {
		Level    string                   `yaml:"level" default:"info"`
		Format   string                   `yaml:"format" default:"json"`
		Adapters []logtypes.AdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Crawler.MaxConcurrentJobs = 3
	config.Crawler.NavigationTimeout = 45 * time.Second
	config.Crawler.SettleTimeout = 10 * time.Second
	config.Crawler.HeadlessMode = true
	config.Crawler.StealthMode = true
	config.Crawler.MaxScrolls = 10
	config.Crawler.UserAgents = []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	}

	config.Crawler.Captcha.Provider = "2captcha"
	config.Crawler.Captcha.Timeout = 120 * time.Second

	config.Capture.Format = "image"
	config.Capture.FullPage = true
	config.Capture.ImageQuality = 90
	config.Capture.WaitBefore = 2 * time.Second

	config.Storage.Backend = "local"
	config.Storage.BaseDir = "job_captures"
	config.Storage.Spaces.Region = "blr1"

	config.Workers.RateLimit = 60
	config.Workers.Timeout = 30 * time.Second
	config.Workers.MaxRetries = 3

	config.BackgroundTasks.MaxConcurrentTasks = 10
	config.BackgroundTasks.TaskTimeout = 900 * time.Second
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Timeout = 60 * time.Second
	config.Firecrawl.MaxRetries = 3

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Timeout = 5 * time.Second
	config.Redis.TTL = 168 * time.Hour

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
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

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if headless := os.Getenv("CRAWLER_HEADLESS"); headless != "" {
		c.Crawler.HeadlessMode = headless == "true" || headless == "1"
	}

	if stealth := os.Getenv("CRAWLER_STEALTH"); stealth != "" {
		c.Crawler.StealthMode = stealth == "true" || stealth == "1"
	}

	if maxJobs := os.Getenv("CRAWLER_MAX_JOBS"); maxJobs != "" {
		if n, err := strconv.Atoi(maxJobs); err == nil {
			c.Crawler.MaxJobs = n
		}
	}

	if captchaAPIKey := os.Getenv("CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Crawler.Captcha.APIKey = captchaAPIKey
	}

	// Also support 2CAPTCHA_API_KEY for compatibility
	if captchaAPIKey := os.Getenv("2CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Crawler.Captcha.APIKey = captchaAPIKey
	}

	if captureFormat := os.Getenv("CAPTURE_FORMAT"); captureFormat != "" {
		c.Capture.Format = captureFormat
	}

	if baseDir := os.Getenv("STORAGE_BASE_DIR"); baseDir != "" {
		c.Storage.BaseDir = baseDir
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}

	if bucketURL := os.Getenv("BUCKET_URL"); bucketURL != "" {
		c.Storage.Spaces.BucketURL = bucketURL
	}

	if cdnEndpoint := os.Getenv("BUCKET_CDN_ENDPOINT"); cdnEndpoint != "" {
		c.Storage.Spaces.CDNEndpoint = cdnEndpoint
	}

	if accessKeyID := os.Getenv("BUCKET_ACCESS_KEY_ID"); accessKeyID != "" {
		c.Storage.Spaces.AccessKeyID = accessKeyID
	}

	if accessKeySecret := os.Getenv("BUCKET_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.Storage.Spaces.AccessKeySecret = accessKeySecret
	}

	if region := os.Getenv("BUCKET_REGION"); region != "" {
		c.Storage.Spaces.Region = region
	}

	if bucketName := os.Getenv("BUCKET_NAME"); bucketName != "" {
		c.Storage.Spaces.BucketName = bucketName
	}

	if firecrawlAPIKey := os.Getenv("FIRECRAWL_API_KEY"); firecrawlAPIKey != "" {
		c.Firecrawl.APIKey = firecrawlAPIKey
		c.Firecrawl.Enabled = true
	}

	if firecrawlAPIURL := os.Getenv("FIRECRAWL_API_URL"); firecrawlAPIURL != "" {
		c.Firecrawl.APIURL = firecrawlAPIURL
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
		c.Redis.Enabled = true
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}
}
