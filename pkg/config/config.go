package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultRegistrarAPIURL 是注册商API地址的静态默认值
const DefaultRegistrarAPIURL = "https://adm.tools/action"

type Config struct {
	Server      ServerConfig
	Logger      LoggerConfig
	Backend     BackendConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Credentials CredentialsConfig
	UI          UIConfig `mapstructure:"ui"`
	Session     SessionConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type LoggerConfig struct {
	Mode       string
	Level      string
	Path       string
	MaxSize    int `mapstructure:"max_size"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAge     int `mapstructure:"max_age"`
	Compress   bool
}

// BackendConfig 描述了切换流程后端的位置
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 表示不设置超时
}

// StorageConfig 选择凭据本地镜像的存储方式: memory, postgres, redis
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CredentialsConfig struct {
	RegistrarAPIURL string `mapstructure:"registrar_api_url"`
}

// UIConfig 控制提示横幅和密钥字段清除的延迟
type UIConfig struct {
	BannerTTL         time.Duration `mapstructure:"banner_ttl"`
	SettingsBannerTTL time.Duration `mapstructure:"settings_banner_ttl"`
	RedactDelay       time.Duration `mapstructure:"redact_delay"`
}

// SessionConfig 控制浏览器会话的回收
type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`   // 0 表示不按空闲时间回收
	MaxSessions   int           `mapstructure:"max_sessions"`   // 0 表示不限
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // 空闲清理的周期
}

// 全局配置变量
var Cfg *Config

// LoadConfig 先加载 .env，再从 config.yaml 加载配置，环境变量 CUTOVER_* 可覆盖任意字段
func LoadConfig() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")       // 配置文件名 (不带后缀)
	v.SetConfigType("yaml")         // 配置文件类型
	v.AddConfigPath("./pkg/config") // 配置文件路径
	v.AddConfigPath(".")
	v.SetEnvPrefix("CUTOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	Cfg = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("logger.mode", "dev")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.path", "log/cutover.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("backend.base_url", "http://127.0.0.1:5000")
	v.SetDefault("backend.timeout", 0)
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("credentials.registrar_api_url", DefaultRegistrarAPIURL)
	v.SetDefault("ui.banner_ttl", 3*time.Second)
	v.SetDefault("ui.settings_banner_ttl", 5*time.Second)
	v.SetDefault("ui.redact_delay", time.Second)
	v.SetDefault("session.idle_timeout", 2*time.Hour)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
}

// Check 返回启动时需要提示的配置问题，不会阻止启动
func (c *Config) Check() []string {
	var warnings []string
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		warnings = append(warnings, "backend.base_url is not configured")
	}
	if strings.TrimSpace(c.Credentials.RegistrarAPIURL) == "" {
		warnings = append(warnings, fmt.Sprintf("credentials.registrar_api_url is empty, using the built-in default %s", DefaultRegistrarAPIURL))
	}
	switch c.Storage.Driver {
	case "memory", "postgres", "redis":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown storage.driver %q, falling back to memory", c.Storage.Driver))
	}
	return warnings
}
