package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads .env from the working directory into the process environment.
// Existing variables are not overridden; a missing file is not an error.
func LoadEnvFile() error {
	return loadEnvFile()
}

func loadEnvFile() error {
	err := godotenv.Load(".env")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
