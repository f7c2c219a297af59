package config

import (
	"os"

	"github.com/joho/godotenv"
)

// loadDotenv loads a .env file from the working directory if present. A
// missing file is not an error: environment variables are the source of
// truth and a .env file is a convenience.
func loadDotenv() error {
	err := godotenv.Load()
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
