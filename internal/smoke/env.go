package smoke

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnsureEnvFile guarantees that envPath exists before the container is
// started. An existing file is left untouched so local overrides survive
// repeated runs; otherwise the template at templatePath is copied over.
// A missing template is an error because the container cannot start
// without its env file. The returned bool reports whether the file was
// created by this call.
func EnsureEnvFile(envPath, templatePath string, log *logrus.Logger) (bool, error) {
	if _, err := os.Stat(envPath); err == nil {
		log.WithField("env_file", envPath).Debug("Using existing env file")
		logEnvKeys(envPath, log)
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", envPath, err)
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%s: %w", templatePath, ErrTemplateMissing)
		}
		return false, fmt.Errorf("failed to read env template %s: %w", templatePath, err)
	}

	if err := os.WriteFile(envPath, data, 0600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", envPath, err)
	}

	log.WithFields(logrus.Fields{
		"env_file": envPath,
		"template": templatePath,
	}).Info("Materialized env file from template")
	logEnvKeys(envPath, log)

	return true, nil
}

// logEnvKeys reports how many variables the container will receive.
// Parse problems are not fatal here; docker applies its own parsing
// when it reads the file.
func logEnvKeys(path string, log *logrus.Logger) {
	vars, err := godotenv.Read(path)
	if err != nil {
		log.WithError(err).WithField("env_file", path).Warn("Failed to parse env file")
		return
	}

	log.WithFields(logrus.Fields{
		"env_file": path,
		"keys":     len(vars),
	}).Debug("Parsed env file")
}
