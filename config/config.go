package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
	SnapshotTTL     time.Duration `mapstructure:"snapshot_ttl"`
}

type GameConfig struct {
	TickMs        int           `mapstructure:"tick_ms"`
	BoardsDir     string        `mapstructure:"boards_dir"`
	DefaultBoard  string        `mapstructure:"default_board"`
	AutoCreate    bool          `mapstructure:"auto_create"` // open a room on DefaultBoard at startup
	Seed          int64         `mapstructure:"seed"`        // 0 = time based
	LegacyArrival bool          `mapstructure:"legacy_arrival"`
	MaxRooms      int           `mapstructure:"max_rooms"`
	JournalMoves  bool          `mapstructure:"journal_moves"`
	RoomLifetime  time.Duration `mapstructure:"room_lifetime"` // 0 = until destroyed
	Schedule      []PhaseConfig `mapstructure:"schedule"` // empty = classic timings
}

// PhaseConfig is one entry of the mode schedule. A zero duration lasts forever.
type PhaseConfig struct {
	Mode     string        `mapstructure:"mode"`
	Duration time.Duration `mapstructure:"duration"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// AdminIPs limits admin routes to these addresses or CIDR prefixes.
	// Empty means the admin key alone guards them.
	AdminIPs []string `mapstructure:"admin_ips"`
}

// TickInterval returns the room tick period.
func (g GameConfig) TickInterval() time.Duration {
	return time.Duration(g.TickMs) * time.Millisecond
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return decode(v)
}

// Default returns the built-in configuration without reading a file.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/ghostai.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("cache.snapshot_ttl", "1m")
	v.SetDefault("game.tick_ms", 200)
	v.SetDefault("game.boards_dir", "./data/boards")
	v.SetDefault("game.default_board", "classic")
	v.SetDefault("game.auto_create", false)
	v.SetDefault("game.legacy_arrival", false)
	v.SetDefault("game.max_rooms", 64)
	v.SetDefault("game.journal_moves", true)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
