package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	LogLevel   string `mapstructure:"log_level"`
	Secret     string `mapstructure:"secret"`
	// AuthMode is "none" (join userId is trusted) or "token".
	AuthMode string `mapstructure:"auth_mode"`

	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	PongWait    time.Duration `mapstructure:"pong_wait"`
	WriteWait   time.Duration `mapstructure:"write_wait"`
	JoinTimeout time.Duration `mapstructure:"join_timeout"`
	SendBuffer  int           `mapstructure:"send_buffer"`

	RingTimeout      time.Duration `mapstructure:"ring_timeout"`
	ReapInterval     time.Duration `mapstructure:"reap_interval"`
	CallRateLimit    int           `mapstructure:"call_rate_limit"`
	CallRateInterval time.Duration `mapstructure:"call_rate_interval"`

	ICEServers []string  `mapstructure:"ice_servers"`
	Directory  Directory `mapstructure:"directory"`
	Users      []User    `mapstructure:"users"`
}

type Directory struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// User seeds the user directory.
type User struct {
	ID         string `mapstructure:"id"`
	Username   string `mapstructure:"username"`
	Email      string `mapstructure:"email"`
	ProfilePic string `mapstructure:"profilepic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "change-me-32-bytes-long-secret!!")
	v.SetDefault("auth_mode", "none")

	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("join_timeout", "10s")
	v.SetDefault("send_buffer", 32)

	v.SetDefault("ring_timeout", "30s")
	v.SetDefault("reap_interval", "1s")
	v.SetDefault("call_rate_limit", 5)
	v.SetDefault("call_rate_interval", "10s")

	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("directory.driver", "memory")
	v.SetDefault("directory.dsn", "voicecall.db")
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName on top of the defaults. A missing file is not an
// error; VOICE_* environment variables override both.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Auth: %s | Directory: %s\n", cfg.Mode, cfg.Port, cfg.AuthMode, cfg.Directory.Driver)
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthMode {
	case "none", "token":
	default:
		return fmt.Errorf("config: unknown auth_mode %q", c.AuthMode)
	}
	switch c.Directory.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: unknown directory.driver %q", c.Directory.Driver)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("config: send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.PongWait <= c.PingPeriod {
		return fmt.Errorf("config: pong_wait (%s) must exceed ping_period (%s)", c.PongWait, c.PingPeriod)
	}
	return nil
}
