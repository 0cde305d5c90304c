package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/quartet/internal/config"
)

// CheckExisting checks if quartet.yml or a content/ directory already exist
// in dir. Returns an error if they do, nil otherwise
func CheckExisting(dir string) error {
	var existingFiles []string

	if _, err := os.Stat(filepath.Join(dir, config.DefaultPath)); err == nil {
		existingFiles = append(existingFiles, config.DefaultPath)
	}

	if info, err := os.Stat(filepath.Join(dir, ContentDir)); err == nil && info.IsDir() {
		existingFiles = append(existingFiles, ContentDir+"/")
	}

	if len(existingFiles) > 0 {
		errMsg := "project already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s\n", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'quartet init --force' to reinitialize (this will overwrite existing configuration)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
