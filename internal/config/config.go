package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr      string        // ex: ":8080"
	BasePath        string        // mount prefix, ex: "/nav" (empty = root)
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Admin auth
	AdminPassword string        // password for the admin session login
	SessionTTL    time.Duration // session lifetime (default: 24h)
	CookieSecure  bool          // set Secure on the session cookie

	// Login rate limiting
	LoginBurst      int // token bucket capacity for /api/auth/login
	LoginPerMin     int // refill per client IP per minute
	TrustProxy      bool
	FaviconTimeout  time.Duration // timeout for the favicon proxy upstream call
	BitableTimeout  time.Duration // per-call timeout against the table service
	TokenBuffer     time.Duration // refresh tenant tokens this long before expiry
	DeleteRetryMax  time.Duration // max elapsed time for the approve delete retry
	GuestListLimit  int           // max staged records shown to guests
	AdminPageSize   int           // default page size for admin listings
	MetaPageSize    int           // page size for metadata table scans

	// Table service (env names kept compatible with the original deployment)
	BitableBaseURL string // ex: https://open.feishu.cn

	AppID     string // credential scope of the published dataset
	AppSecret string
	AppToken  string
	TableID   string // default published table

	StagingAppID     string // defaults to AppID
	StagingAppSecret string // defaults to AppSecret
	StagingAppToken  string // defaults to AppToken
	StagingTableID   string // empty = guest submissions disabled

	MetaAppToken string // defaults to AppToken
	MetaTableID  string // empty = multi-table switching disabled

	AliasFile string // optional yaml file with extra field aliases

	// Redis
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisReadTimeout    time.Duration
	RedisWriteTimeout   time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // cap on the wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("NAVTABLE_LISTEN_ADDR", ":8080"),
		BasePath:        normalizeBasePath(getenv("BASE_PATH", "")),
		ShutdownTimeout: mustDuration("NAVTABLE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("NAVTABLE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("NAVTABLE_PRETTY_LOG", false),

		// Admin auth
		AdminPassword: requireEnv("ADMIN_PASSWORD"),
		SessionTTL:    mustDuration("NAVTABLE_SESSION_TTL", 24*time.Hour),
		CookieSecure:  mustBool("NAVTABLE_COOKIE_SECURE", false),

		LoginBurst:     getenvInt("NAVTABLE_LOGIN_BURST", 5),
		LoginPerMin:    getenvInt("NAVTABLE_LOGIN_PER_MIN", 3),
		TrustProxy:     mustBool("NAVTABLE_TRUST_PROXY", true),
		FaviconTimeout: mustDuration("NAVTABLE_FAVICON_TIMEOUT", 5*time.Second),
		BitableTimeout: mustDuration("NAVTABLE_BITABLE_TIMEOUT", 15*time.Second),
		TokenBuffer:    mustDuration("NAVTABLE_TOKEN_BUFFER", 5*time.Minute),
		DeleteRetryMax: mustDuration("NAVTABLE_DELETE_RETRY_MAX", 10*time.Second),
		GuestListLimit: getenvInt("NAVTABLE_GUEST_LIST_LIMIT", 100),
		AdminPageSize:  getenvInt("NAVTABLE_ADMIN_PAGE_SIZE", 20),
		MetaPageSize:   getenvInt("NAVTABLE_META_PAGE_SIZE", 100),

		// Table service
		BitableBaseURL: getenv("FEISHU_BASE_URL", "https://open.feishu.cn"),
		AppID:          requireEnv("APP_ID"),
		AppSecret:      requireEnv("APP_SECRET"),
		AppToken:       requireEnv("APP_TOKEN"),
		TableID:        requireEnv("TABLE_ID"),

		StagingAppID:     getenv("TEMP_APP_ID", ""),
		StagingAppSecret: getenv("TEMP_APP_SECRET", ""),
		StagingAppToken:  getenv("TEMP_APP_TOKEN", ""),
		StagingTableID:   getenv("TEMP_TABLE_ID", ""),

		MetaAppToken: getenv("MM_APP_TOKEN", ""),
		MetaTableID:  getenv("MM_TABLE_ID", ""),

		AliasFile: getenv("NAVTABLE_ALIAS_FILE", ""),

		// Redis settings
		RedisAddr:           requireEnv("NAVTABLE_REDIS_ADDR"),
		RedisUser:           getenv("NAVTABLE_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("NAVTABLE_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("NAVTABLE_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("NAVTABLE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisReadTimeout:    mustDuration("NAVTABLE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWriteTimeout:   mustDuration("NAVTABLE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("NAVTABLE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("NAVTABLE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("NAVTABLE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("NAVTABLE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("NAVTABLE_REDIS_PING_TIMEOUT", 5*time.Second),
	}

	// The staging table may live in a separate credential scope; every
	// unset staging value falls back to the published scope.
	if cfg.StagingAppID == "" {
		cfg.StagingAppID = cfg.AppID
	}
	if cfg.StagingAppSecret == "" {
		cfg.StagingAppSecret = cfg.AppSecret
	}
	if cfg.StagingAppToken == "" {
		cfg.StagingAppToken = cfg.AppToken
	}
	if cfg.MetaAppToken == "" {
		cfg.MetaAppToken = cfg.AppToken
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.AdminPassword = "***REDACTED***"
		cfgCopy.AppSecret = "***REDACTED***"
		cfgCopy.StagingAppSecret = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// normalizeBasePath ensures a leading slash and strips the trailing one.
// Examples: "nav" -> "/nav", "/nav/" -> "/nav", "/" -> "".
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return ""
	}
	return p
}
