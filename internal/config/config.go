package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverTables   = "aztables"
)

type Config struct {
	ServerPort  string
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL       string
	RedisKeyPrefix string

	TablesConnectionString string
	TablesName             string
	TablesPartition        string

	EventsConnectionString string
	EventsQueue            string

	RemoteURL     string
	RemoteTimeout time.Duration
	StrictRestore bool
	IDStrategy    string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env, then the optional TOML file named by BOARD_CONFIG.
// Environment variables win over the file; the file wins over built-in defaults.
func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Warn("⚠️  No .env file found, using system environment variables")
	}

	s := &settings{file: readFile(os.Getenv("BOARD_CONFIG"))}

	cfg := &Config{
		ServerPort:  s.getEnv("SERVER_PORT", "8080"),
		StoreDriver: s.oneOf("STORE_DRIVER", DriverMemory, DriverRedis, DriverPostgres, DriverTables),

		DBHost:     s.getEnv("DB_HOST", "localhost"),
		DBPort:     s.getEnv("DB_PORT", "5431"),
		DBUser:     s.getEnv("DB_USER", "kanban_user"),
		DBPassword: s.getEnv("DB_PASSWORD", "kanban_pass"),
		DBName:     s.getEnv("DB_NAME", "kanban_db"),

		RedisURL:       s.getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix: s.getEnv("REDIS_KEY_PREFIX", "board:"),

		TablesConnectionString: s.getEnv("TABLES_CONNECTION_STRING", ""),
		TablesName:             s.getEnv("TABLES_NAME", "board"),
		TablesPartition:        s.getEnv("TABLES_PARTITION", "default"),

		EventsQueue: s.getEnv("EVENTS_QUEUE", ""),

		RemoteURL:     s.getEnv("REMOTE_URL", "https://kanban-board-api.vercel.app/"),
		RemoteTimeout: s.duration("REMOTE_TIMEOUT", 0),
		StrictRestore: s.boolean("STRICT_RESTORE", false),
		IDStrategy:    s.oneOf("ID_STRATEGY", "sequence", "uuid"),

		JWTSecret: s.getEnv("JWT_SECRET", ""),
		JWTTTL:    s.duration("JWT_TTL", 24*time.Hour),

		LogLevel:  s.getEnv("LOG_LEVEL", "info"),
		LogFormat: s.oneOf("LOG_FORMAT", "text", "json"),
	}
	cfg.EventsConnectionString = s.getEnv("EVENTS_CONNECTION_STRING", cfg.TablesConnectionString)
	return cfg
}

// PostgresDSN is the libpq keyword string for the DB_* settings.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// HydrationEnabled reports whether an empty board may be seeded from REMOTE_URL.
func (c *Config) HydrationEnabled() bool {
	return c.RemoteURL != ""
}

// SetupLogging applies LOG_LEVEL and LOG_FORMAT to logger.
func (c *Config) SetupLogging(logger *log.Logger) {
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("value", c.LogLevel).Warn("⚠️  Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)
}

type settings struct {
	file map[string]string
}

func readFile(path string) map[string]string {
	if path == "" {
		return nil
	}

	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		log.WithError(err).WithField("path", path).Warn("⚠️  Could not read BOARD_CONFIG, ignoring it")
		return nil
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]interface{}, []map[string]interface{}, []interface{}:
			log.WithField("key", k).Warn("⚠️  BOARD_CONFIG values must be scalars, skipping")
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values
}

func (s *settings) getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if value, ok := s.file[key]; ok {
		return value
	}
	return defaultVal
}

// oneOf returns the value for key if it is one of allowed, else the first allowed value.
func (s *settings) oneOf(key string, allowed ...string) string {
	value := s.getEnv(key, allowed[0])
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	log.WithFields(log.Fields{"key": key, "value": value}).Warnf("⚠️  Invalid value, using %q", allowed[0])
	return allowed[0]
}

func (s *settings) duration(key string, defaultVal time.Duration) time.Duration {
	raw := s.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.WithFields(log.Fields{"key": key, "value": raw}).Warnf("⚠️  Invalid duration, using %s", defaultVal)
		return defaultVal
	}
	return d
}

func (s *settings) boolean(key string, defaultVal bool) bool {
	raw := s.getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": raw}).Warnf("⚠️  Invalid boolean, using %t", defaultVal)
		return defaultVal
	}
	return b
}
