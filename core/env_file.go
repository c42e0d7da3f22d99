package core

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. An empty path loads
// DefaultEnvFile if it exists; an explicit path must exist. It reports
// whether a file was loaded.
func LoadEnvFile(path string) (bool, error) {
	required := path != ""
	if !required {
		path = DefaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, ErrEnvFileMissing(path)
	}
	if err := godotenv.Load(path); err != nil {
		return false, &ConfigError{
			Code:    ErrCodeConfigFileInvalid,
			Message: "Cannot parse " + path + ": " + err.Error(),
			Action:  "Use one KEY=VALUE pair per line",
		}
	}
	return true, nil
}
