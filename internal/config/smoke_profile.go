// Package config provides configuration management for the agent service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SmokeProfile holds the operational settings for the container smoke runner.
// The zero configuration file is valid; every field has a working default.
type SmokeProfile struct {
	// Image is the tag applied to the docker build and started afterwards.
	Image string `mapstructure:"image"`
	// ContainerName is the fixed name given to the started container.
	ContainerName string `mapstructure:"container_name"`
	// Port is the container port published to the same host port.
	Port int `mapstructure:"port"`
	// ContextDir is the docker build context directory.
	ContextDir string `mapstructure:"context_dir"`
	// EnvFile is the env file handed to the container.
	EnvFile string `mapstructure:"env_file"`
	// EnvTemplate is the template copied to EnvFile when it does not exist.
	EnvTemplate string `mapstructure:"env_template"`
	// Interval is the pause between readiness probe attempts.
	Interval time.Duration `mapstructure:"interval"`
	// ProbeTimeout is the per-request timeout for readiness probes.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	// Probes is the ordered sequence of readiness probes to run.
	Probes []ProbeSpec `mapstructure:"probes"`
}

// ProbeSpec describes a single HTTP readiness probe.
type ProbeSpec struct {
	// Path is the request path probed on the started container.
	Path string `mapstructure:"path"`
	// Deadline is the total time allowed for this probe to succeed.
	Deadline time.Duration `mapstructure:"deadline"`
}

// DefaultSmokeProfile returns the profile used when no configuration
// file overrides it.
func DefaultSmokeProfile() *SmokeProfile {
	return &SmokeProfile{
		Image:         "open-deep-research:test",
		ContainerName: "open-deep-research-test",
		Port:          2024,
		ContextDir:    ".",
		EnvFile:       ".env",
		EnvTemplate:   "env.example",
		Interval:      2 * time.Second,
		ProbeTimeout:  5 * time.Second,
		Probes: []ProbeSpec{
			{Path: "/health", Deadline: 90 * time.Second},
			{Path: "/docs", Deadline: 30 * time.Second},
		},
	}
}

// LoadSmokeProfile loads the smoke runner profile, overlaying values from a
// YAML file onto the defaults. With an explicit path the file must exist;
// otherwise configs/smoke.yaml is looked up and silently skipped when absent.
func LoadSmokeProfile(path string) (*SmokeProfile, error) {
	profile := DefaultSmokeProfile()

	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read smoke profile %s: %w", path, err)
		}
	} else {
		v.SetConfigName("smoke")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")

		if err := v.ReadInConfig(); err != nil {
			// The profile file is optional, only fail on real read errors
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(err, &configFileNotFoundError) {
				return nil, fmt.Errorf("failed to read smoke profile: %w", err)
			}
			return profile, nil
		}
	}

	if err := v.Unmarshal(profile); err != nil {
		return nil, fmt.Errorf("failed to parse smoke profile: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("smoke profile validation failed: %w", err)
	}

	return profile, nil
}

// Validate checks the profile for values the runner cannot work with.
func (p *SmokeProfile) Validate() error {
	if p.Image == "" {
		return errors.New("smoke image must not be empty")
	}

	if p.ContainerName == "" {
		return errors.New("smoke container name must not be empty")
	}

	if p.Port < MinPortNumber || p.Port > MaxPortNumber {
		return errors.New("smoke port must be between 1 and 65535")
	}

	if p.Interval <= 0 {
		return errors.New("smoke probe interval must be positive")
	}

	if p.ProbeTimeout <= 0 {
		return errors.New("smoke probe timeout must be positive")
	}

	if len(p.Probes) == 0 {
		return errors.New("smoke profile requires at least one probe")
	}

	for _, probe := range p.Probes {
		if !strings.HasPrefix(probe.Path, "/") {
			return fmt.Errorf("smoke probe path %q must start with /", probe.Path)
		}
		if probe.Deadline <= 0 {
			return fmt.Errorf("smoke probe %s deadline must be positive", probe.Path)
		}
	}

	return nil
}
