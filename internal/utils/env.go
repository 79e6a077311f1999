package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/kelsos/sonar-gate/internal/logger"
)

// EnvFileCandidates lists the .env files to try: the explicit ones first, then the working
// directory, then the directory of the executable.
func EnvFileCandidates(explicit ...string) []string {
	candidates := append([]string{}, explicit...)
	candidates = append(candidates, ".env")

	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	} else {
		logger.Debug("Could not determine executable path: %v", err)
	}

	return candidates
}

// LoadEnvironment loads variables from every existing candidate file. godotenv never overrides a
// variable that is already set, so earlier files and the real environment win.
func LoadEnvironment(explicit ...string) []string {
	var loaded []string
	for _, path := range EnvFileCandidates(explicit...) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("Failed to load env file %s: %v", path, err)
			continue
		}
		logger.Debug("Loaded env file %s", path)
		loaded = append(loaded, path)
	}
	return loaded
}
