package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T) string
		want        *Config
		wantErr     bool
		errContains string
	}{
		{
			name: "NoFile",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nonexistent.yaml")
			},
			want: &Config{},
		},
		{
			name: "FullFile",
			setup: func(t *testing.T) string {
				configPath := filepath.Join(t.TempDir(), "config.yaml")
				err := os.WriteFile(configPath, []byte(`
output: audit.md
analysis_type: compliance
model: mistral-small-latest
api_key: file-key
host: 0.0.0.0
port: 9000
rate_limit: 2.5
`), 0644)
				require.NoError(t, err)
				return configPath
			},
			want: &Config{
				Output:       "audit.md",
				AnalysisType: "compliance",
				Model:        "mistral-small-latest",
				APIKey:       "file-key",
				Host:         "0.0.0.0",
				Port:         9000,
				RateLimit:    2.5,
			},
		},
		{
			name: "PartialFile",
			setup: func(t *testing.T) string {
				configPath := filepath.Join(t.TempDir(), "config.yaml")
				err := os.WriteFile(configPath, []byte("output: partial.md\n"), 0644)
				require.NoError(t, err)
				return configPath
			},
			want: &Config{Output: "partial.md"},
		},
		{
			name: "InvalidYAML",
			setup: func(t *testing.T) string {
				configPath := filepath.Join(t.TempDir(), "config.yaml")
				err := os.WriteFile(configPath, []byte("output: [unclosed"), 0644)
				require.NoError(t, err)
				return configPath
			},
			wantErr:     true,
			errContains: "failed to parse config",
		},
		{
			name: "UnreadablePath",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:     true,
			errContains: "failed to read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := tt.setup(t)
			got, err := Load(configPath)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge_Defaults(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("BIND_HOST", "")
	t.Setenv("BIND_PORT", "")

	merged := Merge(&Config{}, nil)

	assert.Equal(t, "report.md", merged.Output)
	assert.Equal(t, "security_analysis", merged.AnalysisType)
	assert.Equal(t, "mistral-large-latest", merged.Model)
	assert.Equal(t, "", merged.APIKey)
	assert.Equal(t, "127.0.0.1", merged.Host)
	assert.Equal(t, 8000, merged.Port)
	assert.Equal(t, float64(1), merged.RateLimit)
}

func TestMerge_FileValuesSurvive(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("BIND_HOST", "")
	t.Setenv("BIND_PORT", "")

	merged := Merge(&Config{Output: "custom.md", Port: 9000}, nil)

	assert.Equal(t, "custom.md", merged.Output)
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "127.0.0.1", merged.Host)
}

func TestMerge_EnvOverridesFile(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "env-key")
	t.Setenv("BIND_HOST", "10.0.0.1")
	t.Setenv("BIND_PORT", "8081")

	merged := Merge(&Config{APIKey: "file-key", Host: "0.0.0.0", Port: 9000}, nil)

	assert.Equal(t, "env-key", merged.APIKey)
	assert.Equal(t, "10.0.0.1", merged.Host)
	assert.Equal(t, 8081, merged.Port)
}

func TestMerge_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "env-key")
	t.Setenv("BIND_HOST", "10.0.0.1")
	t.Setenv("BIND_PORT", "8081")

	merged := Merge(&Config{}, map[string]interface{}{
		"mistral-key":   "flag-key",
		"host":          "192.168.1.1",
		"port":          3000,
		"output":        "flag.md",
		"analysis-type": "prompt_injection",
		"model":         "mistral-small-latest",
		"rate-limit":    5.0,
	})

	assert.Equal(t, "flag-key", merged.APIKey)
	assert.Equal(t, "192.168.1.1", merged.Host)
	assert.Equal(t, 3000, merged.Port)
	assert.Equal(t, "flag.md", merged.Output)
	assert.Equal(t, "prompt_injection", merged.AnalysisType)
	assert.Equal(t, "mistral-small-latest", merged.Model)
	assert.Equal(t, 5.0, merged.RateLimit)
}

func TestMerge_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("BIND_HOST", "")
	t.Setenv("BIND_PORT", "not-a-port")

	merged := Merge(&Config{}, nil)

	assert.Equal(t, 8000, merged.Port)
}

func TestMerge_ZeroFlagsIgnored(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("BIND_HOST", "")
	t.Setenv("BIND_PORT", "")

	merged := Merge(&Config{Output: "kept.md"}, map[string]interface{}{
		"output": "",
		"port":   0,
	})

	assert.Equal(t, "kept.md", merged.Output)
	assert.Equal(t, 8000, merged.Port)
}

func TestMerge_WebhookSettings(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("BIND_HOST", "")
	t.Setenv("BIND_PORT", "")

	merged := Merge(&Config{WebhookURL: "https://file.example/hook"}, map[string]interface{}{
		"webhook-url":    "https://flag.example/hook",
		"webhook-secret": "s3cret",
	})

	assert.Equal(t, "https://flag.example/hook", merged.WebhookURL)
	assert.Equal(t, "s3cret", merged.WebhookSecret)

	// No built-in default: unset means webhook notifications stay off
	merged = Merge(&Config{}, nil)
	assert.Empty(t, merged.WebhookURL)
	assert.Empty(t, merged.WebhookSecret)
}

func TestDefaultPath(t *testing.T) {
	// Save original home
	origHome := os.Getenv("HOME")
	defer os.Setenv("HOME", origHome)

	testHome := t.TempDir()
	os.Setenv("HOME", testHome)
	got := DefaultPath()
	want := filepath.Join(testHome, ".guardian.yaml")
	if got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	os.Unsetenv("HOME")
	got = DefaultPath()
	if got != ".guardian.yaml" {
		t.Errorf("DefaultPath() = %q, want .guardian.yaml", got)
	}
}
