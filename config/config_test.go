package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig 测试创建默认配置
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())

	assert.True(t, cfg.Discovery.EnableUPnP)
	assert.True(t, cfg.Discovery.EnableNATPMP)
	assert.Equal(t, 10*time.Second, cfg.Discovery.Timeout.Duration())
	assert.Zero(t, cfg.Enumeration.MaxRetries)
	assert.Zero(t, cfg.Enumeration.MaxEntries)
	assert.False(t, cfg.Metrics.Enable)
}

// TestDiscoveryConfig 测试发现配置
func TestDiscoveryConfig(t *testing.T) {
	t.Run("Validate_NoProtocol", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		cfg.EnableUPnP = false
		cfg.EnableNATPMP = false
		assert.Error(t, cfg.Validate())
	})

	t.Run("Validate_BadUPnP", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		cfg.UPnP.SearchTimeout = Duration(100 * time.Millisecond)
		assert.ErrorContains(t, cfg.Validate(), "upnp")
	})

	t.Run("Validate_DisabledSectionIgnored", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		cfg.EnableNATPMP = false
		cfg.NATPMP.Lifetime = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Validate_ZeroLifetime", func(t *testing.T) {
		cfg := DefaultDiscoveryConfig()
		cfg.NATPMP.Lifetime = 0
		assert.ErrorContains(t, cfg.Validate(), "natpmp")
	})
}

// TestEnumerationConfig 测试枚举配置
func TestEnumerationConfig(t *testing.T) {
	assert.NoError(t, DefaultEnumerationConfig().Validate())
	assert.Error(t, EnumerationConfig{MaxRetries: -1}.Validate())
	assert.Error(t, EnumerationConfig{RetryDelay: -1}.Validate())
	assert.Error(t, EnumerationConfig{MaxEntries: -1}.Validate())
}

// TestLogAndMetricsConfig 测试日志与指标配置
func TestLogAndMetricsConfig(t *testing.T) {
	assert.NoError(t, LogConfig{Format: "JSON"}.Validate())
	assert.Error(t, LogConfig{Format: "xml"}.Validate())

	m := DefaultMetricsConfig()
	m.Enable = true
	m.Listen = "127.0.0.1:9100"
	assert.NoError(t, m.Validate())
	m.Listen = "9100"
	assert.Error(t, m.Validate())
	m.Listen = ""
	m.Path = "metrics"
	assert.Error(t, m.Validate())
}

// TestDuration 测试 Duration 编解码
func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, d.Duration())

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}

// TestFromJSON 测试 JSON 加载保留默认值
func TestFromJSON(t *testing.T) {
	cfg, err := FromJSON([]byte(`{
		"discovery": {"timeout": "5s", "enable_natpmp": false},
		"enumeration": {"max_retries": 2, "retry_delay": "200ms"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Discovery.Timeout.Duration())
	assert.False(t, cfg.Discovery.EnableNATPMP)
	assert.True(t, cfg.Discovery.EnableUPnP)
	assert.Equal(t, 3, cfg.Discovery.UPnP.NumSends)
	assert.Equal(t, 2, cfg.Enumeration.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.Enumeration.RetryDelay.Duration())

	_, err = FromJSON([]byte(`{"discovery": {"timeout": "x"}}`))
	assert.Error(t, err)
}

// TestFromYAML 测试 YAML 加载
func TestFromYAML(t *testing.T) {
	cfg, err := FromYAML([]byte(`
discovery:
  timeout: 8s
  upnp:
    lease: 2h
    num_sends: 5
  natpmp:
    lifetime: 3600000000000
enumeration:
  max_entries: 128
log:
  level: gateway=debug,info
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, cfg.Discovery.Timeout.Duration())
	assert.Equal(t, 2*time.Hour, cfg.Discovery.UPnP.Lease.Duration())
	assert.Equal(t, 5, cfg.Discovery.UPnP.NumSends)
	assert.Equal(t, time.Hour, cfg.Discovery.NATPMP.Lifetime.Duration())
	assert.Equal(t, 128, cfg.Enumeration.MaxEntries)
	assert.Equal(t, "gateway=debug,info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	out, err := cfg.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "lease: 2h0m0s")
}

// TestLoadFile 测试按扩展名加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "portmapper.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("enumeration:\n  max_retries: 1\n"), 0o600))
	cfg, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Enumeration.MaxRetries)

	jsonPath := filepath.Join(dir, "portmapper.json")
	data, err := NewConfig().ToJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, data, 0o600))
	cfg, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

// TestApplyEnv 测试环境变量覆盖
func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORTMAPPER_DISCOVERY_TIMEOUT": "3s",
		"PORTMAPPER_ENABLE_NATPMP":     "false",
		"PORTMAPPER_ENUM_MAX_RETRIES":  "4",
		"PORTMAPPER_ENUM_RETRY_DELAY":  "50ms",
		"PORTMAPPER_LOG_FORMAT":        "json",
		"PORTMAPPER_METRICS_LISTEN":    "  :9100 ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := NewConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 3*time.Second, cfg.Discovery.Timeout.Duration())
	assert.False(t, cfg.Discovery.EnableNATPMP)
	assert.Equal(t, 4, cfg.Enumeration.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Enumeration.RetryDelay.Duration())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9100", cfg.Metrics.Listen)

	env["PORTMAPPER_ENUM_MAX_ENTRIES"] = "many"
	err := NewConfig().ApplyEnv(lookup)
	assert.ErrorContains(t, err, "PORTMAPPER_ENUM_MAX_ENTRIES")
}

// TestLoad 测试完整加载流程
func TestLoad(t *testing.T) {
	t.Setenv("PORTMAPPER_ENUM_MAX_ENTRIES", "64")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Enumeration.MaxEntries)

	t.Setenv("PORTMAPPER_ENABLE_UPNP", "false")
	t.Setenv("PORTMAPPER_ENABLE_NATPMP", "false")
	_, err = Load("")
	assert.Error(t, err)
}

// TestValidateAndFix 测试自动修复
func TestValidateAndFix(t *testing.T) {
	cfg, err := ValidateAndFix(nil)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)

	bad := NewConfig()
	bad.Discovery.EnableUPnP = false
	bad.Discovery.EnableNATPMP = false
	bad.Discovery.UPnP.NumSends = 0
	bad.Discovery.NATPMP.Lifetime = 0
	bad.Enumeration.MaxRetries = -3
	bad.Metrics.Path = ""

	fixed, err := ValidateAndFix(bad)
	require.NoError(t, err)
	assert.True(t, fixed.Discovery.EnableUPnP)
	assert.Equal(t, 3, fixed.Discovery.UPnP.NumSends)
	assert.Equal(t, time.Hour, fixed.Discovery.NATPMP.Lifetime.Duration())
	assert.Zero(t, fixed.Enumeration.MaxRetries)
	assert.Equal(t, "/metrics", fixed.Metrics.Path)

	assert.Error(t, ValidateAll(nil))
}
