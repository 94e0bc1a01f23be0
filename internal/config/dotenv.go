package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"habit-rooms-go/pkg/logger"
)

const dotenvFilename = ".env"

type dotenvEntry struct {
	key     string
	value   string
	line    int
	literal bool // single-quoted, never expanded
}

type dotenvReport struct {
	applied []string
	kept    []string
}

// loadDotEnv fills unset environment variables from DOTENV_PATH, or from the
// nearest .env found walking up from the working directory. A named file that
// does not exist is not an error.
func loadDotEnv(log logger.Logger) error {
	path := strings.TrimSpace(os.Getenv("DOTENV_PATH"))
	if path == "" {
		found, err := findDotEnv(dotenvFilename)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Debug("dotenv: no .env file found")
			}
			return err
		}
		path = found
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("dotenv: file not found", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	entries, malformed, err := readDotEnv(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	report, err := applyDotEnv(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	log.Info("dotenv: loaded variables", "path", path, "count", len(report.applied))
	if len(report.kept) > 0 {
		log.Info("dotenv: kept values already set in env", "keys", report.kept)
	}
	if len(malformed) > 0 {
		log.Warn("dotenv: ignored malformed lines", "path", path, "lines", malformed)
	}
	return nil
}

func findDotEnv(filename string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// readDotEnv parses KEY=VALUE lines. Blank lines, comments and an optional
// "export " prefix are accepted; anything else is reported by line number.
func readDotEnv(r io.Reader) ([]dotenvEntry, []int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []dotenvEntry
	var malformed []int
	for number := 1; scanner.Scan(); number++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		entry, ok := parseDotEnvLine(line)
		if !ok {
			malformed = append(malformed, number)
			continue
		}
		entry.line = number
		entries = append(entries, entry)
	}
	return entries, malformed, scanner.Err()
}

func parseDotEnvLine(line string) (dotenvEntry, bool) {
	key, raw, ok := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !ok || !validEnvKey(key) {
		return dotenvEntry{}, false
	}

	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[0] == raw[len(raw)-1] {
		if raw[0] == '\'' {
			return dotenvEntry{key: key, value: raw[1 : len(raw)-1], literal: true}, true
		}
		if unquoted, err := strconv.Unquote(raw); err == nil {
			return dotenvEntry{key: key, value: unquoted}, true
		}
		return dotenvEntry{key: key, value: raw[1 : len(raw)-1]}, true
	}

	if i := strings.Index(raw, " #"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "\t#"); i >= 0 {
		raw = raw[:i]
	}
	return dotenvEntry{key: key, value: strings.TrimSpace(raw)}, true
}

func validEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// applyDotEnv sets every key not already present in the environment.
// $NAME and ${NAME} references resolve against the environment as updated so far, so
// DB_DSN may be composed from DB_HOST and friends defined earlier.
func applyDotEnv(entries []dotenvEntry) (dotenvReport, error) {
	var report dotenvReport
	for _, entry := range entries {
		if _, exists := os.LookupEnv(entry.key); exists {
			report.kept = append(report.kept, entry.key)
			continue
		}
		value := entry.value
		if !entry.literal {
			value = os.ExpandEnv(value)
		}
		if err := os.Setenv(entry.key, value); err != nil {
			return report, fmt.Errorf("line %d: %w", entry.line, err)
		}
		report.applied = append(report.applied, entry.key)
	}
	return report, nil
}
