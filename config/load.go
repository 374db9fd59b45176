package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 环境变量前缀
const EnvPrefix = "PORTMAPPER_"

// FromJSON 从 JSON 数据创建配置，未出现的字段保持默认值
//
// 示例 JSON:
//
//	{
//	  "discovery": {"timeout": "5s", "enable_natpmp": false},
//	  "enumeration": {"max_retries": 2, "retry_delay": "200ms"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// FromYAML 从 YAML 数据创建配置，未出现的字段保持默认值
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 序列化为缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// ToYAML 序列化为 YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadFile 按扩展名从文件加载配置（.yaml/.yml 为 YAML，其余为 JSON）
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return FromJSON(data)
	}
}

// Load 加载配置：文件（path 为空时使用默认值），然后应用环境变量，最后验证
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv 用 PORTMAPPER_* 环境变量覆盖配置
//
// 支持的变量：
//   - PORTMAPPER_DISCOVERY_TIMEOUT
//   - PORTMAPPER_ENABLE_UPNP / PORTMAPPER_ENABLE_NATPMP
//   - PORTMAPPER_UPNP_LEASE / PORTMAPPER_NATPMP_LIFETIME
//   - PORTMAPPER_ENUM_MAX_RETRIES / PORTMAPPER_ENUM_RETRY_DELAY / PORTMAPPER_ENUM_MAX_ENTRIES
//   - PORTMAPPER_LOG_LEVEL / PORTMAPPER_LOG_FORMAT / PORTMAPPER_LOG_FILE
//   - PORTMAPPER_METRICS_ENABLE / PORTMAPPER_METRICS_LISTEN
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.duration("DISCOVERY_TIMEOUT", &c.Discovery.Timeout)
	e.bool("ENABLE_UPNP", &c.Discovery.EnableUPnP)
	e.bool("ENABLE_NATPMP", &c.Discovery.EnableNATPMP)
	e.duration("UPNP_LEASE", &c.Discovery.UPnP.Lease)
	e.duration("NATPMP_LIFETIME", &c.Discovery.NATPMP.Lifetime)

	e.int("ENUM_MAX_RETRIES", &c.Enumeration.MaxRetries)
	e.duration("ENUM_RETRY_DELAY", &c.Enumeration.RetryDelay)
	e.int("ENUM_MAX_ENTRIES", &c.Enumeration.MaxEntries)

	e.string("LOG_LEVEL", &c.Log.Level)
	e.string("LOG_FORMAT", &c.Log.Format)
	e.string("LOG_FILE", &c.Log.File)

	e.bool("METRICS_ENABLE", &c.Metrics.Enable)
	e.string("METRICS_LISTEN", &c.Metrics.Listen)

	return e.err
}

// envReader 读取环境变量，记录第一个解析错误
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(name, v string, err error) {
	e.err = fmt.Errorf("%s%s=%q: %w", EnvPrefix, name, v, err)
}

func (e *envReader) string(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) bool(name string, dst *bool) {
	if v, ok := e.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) int(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) duration(name string, dst *Duration) {
	if v, ok := e.get(name); ok {
		var d Duration
		if err := d.parse(v); err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = d
	}
}
