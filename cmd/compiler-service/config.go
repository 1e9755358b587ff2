package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"javox/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// timeDuration wraps time.Duration for YAML unmarshalling.
type timeDuration struct {
	value time.Duration
}

// UnmarshalYAML supports duration strings like "5s" or "2m".
func (d *timeDuration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration failed: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration failed: %w", err)
	}
	d.value = parsed
	return nil
}

// Duration returns the underlying time.Duration.
func (d *timeDuration) Duration() time.Duration {
	if d == nil {
		return 0
	}
	return d.value
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string       `yaml:"addr"`
	Mode         string       `yaml:"mode"`
	ReadTimeout  timeDuration `yaml:"readTimeout"`
	WriteTimeout timeDuration `yaml:"writeTimeout"`
	IdleTimeout  timeDuration `yaml:"idleTimeout"`
}

// SandboxConfig holds compiler/runtime subprocess settings.
type SandboxConfig struct {
	JavacPath         string       `yaml:"javacPath"`
	JavaPath          string       `yaml:"javaPath"`
	WorkRoot          string       `yaml:"workRoot"`
	CompileTimeout    timeDuration `yaml:"compileTimeout"`
	ExecuteTimeout    timeDuration `yaml:"executeTimeout"`
	HeapMB            int          `yaml:"heapMB"`
	StackKB           int          `yaml:"stackKB"`
	MetaspaceMB       int          `yaml:"metaspaceMB"`
	MaxOutputBytes    int64        `yaml:"maxOutputBytes"`
	ExtraCompileFlags string       `yaml:"extraCompileFlags"`
	ExtraRuntimeFlags string       `yaml:"extraRuntimeFlags"`
	MemSampleInterval timeDuration `yaml:"memSampleInterval"`
}

// CacheConfig holds artifact cache settings.
type CacheConfig struct {
	MaxEntries int          `yaml:"maxEntries"`
	MaxBytes   int64        `yaml:"maxBytes"`
	TTL        timeDuration `yaml:"ttl"`
	RedisAddr  string       `yaml:"redisAddr"` // empty selects the in-memory cache
}

// WorkerConfig holds concurrency settings.
type WorkerConfig struct {
	PoolSize int `yaml:"poolSize"` // <=0 selects NumCPU
}

// AppConfig is the root configuration.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Cache   CacheConfig   `yaml:"cache"`
	Worker  WorkerConfig  `yaml:"worker"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Missing config file runs on defaults.
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultHTTPAddr
	}
	if c.Server.ReadTimeout.Duration() <= 0 {
		c.Server.ReadTimeout = timeDuration{value: defaultReadTimeout}
	}
	if c.Server.WriteTimeout.Duration() <= 0 {
		c.Server.WriteTimeout = timeDuration{value: defaultWriteTimeout}
	}
	if c.Server.IdleTimeout.Duration() <= 0 {
		c.Server.IdleTimeout = timeDuration{value: defaultIdleTimeout}
	}
}
