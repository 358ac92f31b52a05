package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration 支持 "6h"、"90s" 这类人类可读写法的时长配置项
type Duration time.Duration

// UnmarshalYAML 实现yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("解析时长配置失败: %w", err)
	}

	*d = Duration(parsed)
	return nil
}

// Std 转换为标准库时长类型
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config 价格监控系统的全局配置
type Config struct {
	LogLevel string `yaml:"log_level"` // 日志级别

	Monitor struct {
		Interval     Duration `yaml:"interval"`      // 监控周期间隔，默认6小时
		InitialDelay Duration `yaml:"initial_delay"` // 启动后首次检查的延迟
		Threshold    float64  `yaml:"threshold"`     // 价格显著变动阈值
		DelayMin     Duration `yaml:"delay_min"`     // 商品间抓取延迟下限
		DelayMax     Duration `yaml:"delay_max"`     // 商品间抓取延迟上限
	} `yaml:"monitor"`

	Fetch struct {
		Timeout    Duration `yaml:"timeout"`     // 页面加载超时时间
		ChromePath string   `yaml:"chrome_path"` // Chrome浏览器路径，留空使用系统默认
	} `yaml:"fetch"`

	Mongo struct {
		URI      string   `yaml:"uri"`      // MongoDB连接字符串
		Database string   `yaml:"database"` // 数据库名称
		Timeout  Duration `yaml:"timeout"`  // 连接超时时间
	} `yaml:"mongo"`

	Redis struct {
		Host     string   `yaml:"host"`     // Redis服务器地址
		Port     int      `yaml:"port"`     // Redis服务器端口
		Password string   `yaml:"password"` // Redis密码
		DB       int      `yaml:"db"`       // 数据库编号
		Timeout  Duration `yaml:"timeout"`  // 连接超时时间
	} `yaml:"redis"`
}

var GlobalConfig Config

// LoadConfig 从配置文件加载全局配置
// 缺省项在加载后补默认值
func LoadConfig() error {
	data, err := os.ReadFile("config/config.yaml")
	if err != nil {
		return err
	}

	err = yaml.Unmarshal(data, &GlobalConfig)
	if err != nil {
		return err
	}

	ApplyDefaults(&GlobalConfig)
	return nil
}

// ApplyDefaults 为缺省配置项填充默认值
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = Duration(6 * time.Hour)
	}
	if cfg.Monitor.InitialDelay == 0 {
		cfg.Monitor.InitialDelay = Duration(time.Minute)
	}
	if cfg.Monitor.Threshold == 0 {
		cfg.Monitor.Threshold = 0.01
	}
	if cfg.Monitor.DelayMin == 0 {
		cfg.Monitor.DelayMin = Duration(time.Second)
	}
	if cfg.Monitor.DelayMax == 0 {
		cfg.Monitor.DelayMax = Duration(2 * time.Second)
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = Duration(10 * time.Second)
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://127.0.0.1:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "price_tracker"
	}
	if cfg.Mongo.Timeout == 0 {
		cfg.Mongo.Timeout = Duration(10 * time.Second)
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "127.0.0.1"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = Duration(10 * time.Second)
	}
}
