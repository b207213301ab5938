package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"devmatch/internal/domain/matching"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "DEVMATCH"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Matching MatchingConfig `mapstructure:"matching"`
	Match    MatchConfig    `mapstructure:"match"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Log      LogConfig      `mapstructure:"log"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"env"`
}

type HTTPConfig struct {
	Port              string        `mapstructure:"port"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxRequestTimeout time.Duration `mapstructure:"max_request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit         int           `mapstructure:"body_limit"`
}

type DatabaseConfig struct {
	DBHost     string `mapstructure:"host"`
	DBPort     string `mapstructure:"port"`
	DBName     string `mapstructure:"name"`
	DBUser     string `mapstructure:"user"`
	DBPassword string `mapstructure:"password"`
	DBSSLMode  string `mapstructure:"sslmode"`

	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	PoolMaxConns          int32         `mapstructure:"pool_max_conns"`
	PoolMinConns          int32         `mapstructure:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `mapstructure:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `mapstructure:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `mapstructure:"pool_health_check_period"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	ScoreTTL time.Duration `mapstructure:"score_ttl"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

type JWTConfig struct {
	AccessSecret     string        `mapstructure:"access_secret"`
	RefreshSecret    string        `mapstructure:"refresh_secret"`
	AccessExpiresIn  time.Duration `mapstructure:"access_expires_in"`
	RefreshExpiresIn time.Duration `mapstructure:"refresh_expires_in"`
}

type AuthConfig struct {
	// SyncSecret guards the identity-sync endpoint. Empty disables it.
	SyncSecret string `mapstructure:"sync_secret"`
}

type MatchingConfig struct {
	Weights                 matching.Weights `mapstructure:"weights"`
	Workers                 int              `mapstructure:"workers"`
	AllowRematchAfterReject bool             `mapstructure:"allow_rematch_after_reject"`
	PoolSize                int              `mapstructure:"pool_size"`
}

type MatchConfig struct {
	ExpireAfter    time.Duration `mapstructure:"expire_after"`
	ExpireInterval time.Duration `mapstructure:"expire_interval"`
	ExplainWithAI  bool          `mapstructure:"explain_with_ai"`
}

type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type GitHubConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxRepos  int           `mapstructure:"max_repos"`
	Headless  bool          `mapstructure:"headless"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

var errMissingRequiredConfig = errors.New("missing required configuration")

// legacyEnv keeps the plain variable names older deployments use working
// alongside the DEVMATCH_ prefixed ones.
var legacyEnv = map[string]string{
	"http.port":          "HTTP_PORT",
	"database.host":      "DB_HOST",
	"database.port":      "DB_PORT",
	"database.name":      "DB_NAME",
	"database.user":      "DB_USER",
	"database.password":  "DB_PASSWORD",
	"database.sslmode":   "DB_SSL_MODE",
	"redis.host":         "REDIS_HOST",
	"redis.port":         "REDIS_PORT",
	"redis.password":     "REDIS_PASSWORD",
	"jwt.access_secret":  "JWT_ACCESS_SECRET",
	"jwt.refresh_secret": "JWT_REFRESH_SECRET",
	"gemini.api_key":     "GEMINI_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "devmatch")
	v.SetDefault("app.env", "development")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.request_timeout", 5*time.Second)
	v.SetDefault("http.max_request_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.body_limit", 1<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "devmatch")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.pool_max_conns", 10)
	v.SetDefault("database.pool_min_conns", 0)
	v.SetDefault("database.pool_max_conn_lifetime", time.Hour)
	v.SetDefault("database.pool_max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.pool_health_check_period", time.Minute)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 2*time.Minute)
	v.SetDefault("redis.score_ttl", 10*time.Minute)

	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_expires_in", 15*time.Minute)
	v.SetDefault("jwt.refresh_expires_in", 7*24*time.Hour)

	v.SetDefault("auth.sync_secret", "")

	w := matching.DefaultWeights()
	v.SetDefault("matching.weights.skills", w.Skills)
	v.SetDefault("matching.weights.interests", w.Interests)
	v.SetDefault("matching.weights.experience", w.Experience)
	v.SetDefault("matching.weights.availability", w.Availability)
	v.SetDefault("matching.workers", 0)
	v.SetDefault("matching.allow_rematch_after_reject", false)
	v.SetDefault("matching.pool_size", 5000)

	v.SetDefault("match.expire_after", 14*24*time.Hour)
	v.SetDefault("match.expire_interval", time.Hour)
	v.SetDefault("match.explain_with_ai", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", 8*time.Second)

	v.SetDefault("github.base_url", "https://github.com")
	v.SetDefault("github.user_agent", "devmatch-skill-import/1.0")
	v.SetDefault("github.timeout", 15*time.Second)
	v.SetDefault("github.max_repos", 30)
	v.SetDefault("github.headless", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// New returns a viper instance with defaults and environment bindings. The CLI
// binds its flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return v
}

// Load reads .env (when present), the optional config file and the environment.
// An empty path looks for devmatch.yaml in the working directory and tolerates
// its absence.
func Load(v *viper.Viper, path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if v == nil {
		v = New()
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("devmatch")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var missing []string
	req := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	req("http.port", c.HTTP.Port)
	req("jwt.access_secret", c.JWT.AccessSecret)
	req("jwt.refresh_secret", c.JWT.RefreshSecret)
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errMissingRequiredConfig, strings.Join(missing, ", "))
	}

	if err := c.Matching.Weights.Validate(); err != nil {
		return fmt.Errorf("matching.weights: %w", err)
	}
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("http.request_timeout must be positive")
	}
	if c.HTTP.MaxRequestTimeout < c.HTTP.RequestTimeout {
		return errors.New("http.max_request_timeout must not be below http.request_timeout")
	}
	if c.JWT.AccessExpiresIn <= 0 || c.JWT.RefreshExpiresIn <= 0 {
		return errors.New("jwt expiry durations must be positive")
	}
	if c.Match.ExpireAfter <= 0 {
		return errors.New("match.expire_after must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}
