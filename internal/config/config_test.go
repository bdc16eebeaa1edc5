package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(*testing.T, *config.Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 2024, cfg.Server.Port)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, "dev", cfg.Identity.Provider)
				assert.Equal(t, "service-account", cfg.Identity.StaticSubject)
				assert.Equal(t, config.Local, cfg.Environment.Environment)
			},
		},
		{
			name: "server_port_override",
			envVars: map[string]string{
				"SERVER_PORT": "9090",
			},
			wantErr: false,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
			},
		},
		{
			name: "static_token_provider",
			envVars: map[string]string{
				"IDENTITY_PROVIDER":     "static-token",
				"IDENTITY_STATIC_TOKEN": "sekrit", // pragma: allowlist secret
			},
			wantErr: false,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "static-token", cfg.Identity.Provider)
				assert.Equal(t, "sekrit", cfg.Identity.StaticToken)
			},
		},
		{
			name: "logging_overrides",
			envVars: map[string]string{
				"LOGGING_LEVEL":  "debug",
				"LOGGING_FORMAT": "text",
			},
			wantErr: false,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "invalid_port",
			envVars: map[string]string{
				"SERVER_PORT": "99999",
			},
			wantErr: true,
		},
		{
			name: "non_numeric_port",
			envVars: map[string]string{
				"SERVER_PORT": "not-a-number",
			},
			wantErr: true,
		},
		{
			name: "unknown_identity_provider",
			envVars: map[string]string{
				"IDENTITY_PROVIDER": "oidc",
			},
			wantErr: true,
		},
		{
			name: "static_token_without_token",
			envVars: map[string]string{
				"IDENTITY_PROVIDER": "static-token",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			clearEnv(t)

			// Set test environment variables
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := config.Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.validate != nil {
				tt.validate(t, cfg)
			}

			// Verify default values are set
			assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
			assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
			assert.Equal(t, "stdout", cfg.Logging.Output)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.Config
		wantErr bool
	}{
		{
			name: "valid_config",
			config: &config.Config{
				Server:   config.ServerConfig{Port: 2024},
				Identity: config.IdentityConfig{Provider: "dev"},
			},
			wantErr: false,
		},
		{
			name: "valid_static_token_config",
			config: &config.Config{
				Server: config.ServerConfig{Port: 2024},
				Identity: config.IdentityConfig{
					Provider:    "static-token",
					StaticToken: "sekrit", // pragma: allowlist secret
				},
			},
			wantErr: false,
		},
		{
			name: "invalid_port_low",
			config: &config.Config{
				Server:   config.ServerConfig{Port: 0},
				Identity: config.IdentityConfig{Provider: "dev"},
			},
			wantErr: true,
		},
		{
			name: "invalid_port_high",
			config: &config.Config{
				Server:   config.ServerConfig{Port: 99999},
				Identity: config.IdentityConfig{Provider: "dev"},
			},
			wantErr: true,
		},
		{
			name: "unknown_identity_provider",
			config: &config.Config{
				Server:   config.ServerConfig{Port: 2024},
				Identity: config.IdentityConfig{Provider: "ldap"},
			},
			wantErr: true,
		},
		{
			name: "static_token_without_token",
			config: &config.Config{
				Server:   config.ServerConfig{Port: 2024},
				Identity: config.IdentityConfig{Provider: "static-token"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigServerAddr(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 9090,
		},
	}

	addr := cfg.ServerAddr()
	assert.Equal(t, "localhost:9090", addr)
}

func TestConfigIsTLSEnabled(t *testing.T) {
	tests := []struct {
		name     string
		config   *config.Config
		expected bool
	}{
		{
			name: "tls_enabled",
			config: &config.Config{
				Server: config.ServerConfig{
					TLSCert: "/path/to/cert.pem",
					TLSKey:  "/path/to/key.pem",
				},
			},
			expected: true,
		},
		{
			name: "tls_disabled_no_cert",
			config: &config.Config{
				Server: config.ServerConfig{
					TLSKey: "/path/to/key.pem",
				},
			},
			expected: false,
		},
		{
			name: "tls_disabled_no_key",
			config: &config.Config{
				Server: config.ServerConfig{
					TLSCert: "/path/to/cert.pem",
				},
			},
			expected: false,
		},
		{
			name: "tls_disabled_empty",
			config: &config.Config{
				Server: config.ServerConfig{},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.config.IsTLSEnabled()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func clearEnv(t *testing.T) {
	envVars := []string{
		"ENVIRONMENT_ENV",
		"SERVER_PORT", "SERVER_HOST", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "SERVER_TLS_CERT", "SERVER_TLS_KEY",
		"IDENTITY_PROVIDER", "IDENTITY_STATIC_TOKEN", "IDENTITY_STATIC_SUBJECT",
		"LOGGING_LEVEL", "LOGGING_FORMAT", "LOGGING_OUTPUT",
		"LOGGING_FILE_PATH", "LOGGING_ENABLE_DUAL_OUTPUT",
	}

	for _, env := range envVars {
		// t.Setenv registers the original value for restoration after the
		// test; the variable itself must still be absent during it.
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}
