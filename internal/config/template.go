package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// ExampleFileName is the template looked up next to a missing config file.
const ExampleFileName = "config.example.yaml"

// EnsureConfigFile creates configFile from the template in the same directory when the
// config file does not exist yet. It reports whether a file was created. A missing
// template is not an error.
func EnsureConfigFile(configFile string) (bool, error) {
	if _, err := os.Stat(configFile); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	src := filepath.Join(filepath.Dir(configFile), ExampleFileName)
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err := copyConfigTemplate(src, configFile); err != nil {
		return false, fmt.Errorf("failed to create config from template: %w", err)
	}
	log.Infof("config initialized from template: %s", configFile)
	return true, nil
}

func copyConfigTemplate(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := in.Close(); errClose != nil {
			log.WithError(errClose).Warn("failed to close source config file")
		}
	}()

	if err = os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := out.Close(); errClose != nil {
			log.WithError(errClose).Warn("failed to close destination config file")
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
