package bootstrap

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是进程的全量配置。
// 从 CONFIG_PATH 指定的 yaml 文件加载，个别地址类配置允许被环境变量覆盖，
// 方便在 docker-compose / k8s 环境下注入。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`

	// DefaultPermissions 是 role_allowed 守卫的默认权限列表。
	DefaultPermissions []string `yaml:"default_permissions"`

	// WebhookEndpoints 是 emit_webhook 效果的下游回调地址。
	WebhookEndpoints []string `yaml:"webhook_endpoints"`

	// TransitionRules 允许给指定的流转追加一个基于 CEL 表达式的守卫，
	// 例如 refund: 'order.total <= 10000.0'。
	TransitionRules map[string]string `yaml:"transition_rules"`
}

type InfraConfig struct {
	Mysql  MysqlConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Jaeger JaegerConfig `yaml:"jaeger"`
}

type MysqlConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// LoadConfig 从 path 加载配置文件并应用环境变量覆盖。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	// 地址类配置的环境变量覆盖
	if v := getEnv("MYSQL_DSN", ""); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := getEnv("REDIS_ADDR", ""); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := getEnv("JAEGER_ENDPOINT", ""); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		cfg.Infra.Kafka.Brokers = []string{v}
	}
	return cfg, nil
}

// MustLoadConfig 加载配置并把结果设置为进程当前配置，失败直接退出。
func MustLoadConfig() Config {
	configOnce.Do(func() {
		path := getEnv("CONFIG_PATH", "configs/order-service.yaml")
		cfg, err := LoadConfig(path)
		if err != nil {
			panic(err)
		}
		currentConfig = cfg
	})
	return currentConfig
}

// GetCurrentConfig 返回进程当前配置。必须在 MustLoadConfig 之后调用。
func GetCurrentConfig() Config {
	return currentConfig
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
