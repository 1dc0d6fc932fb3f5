package llm

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const secretsFileName = ".longform_secrets"

// SecretsPath returns the per-user secrets file location.
func SecretsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, secretsFileName), nil
}

// ResolveAPIKey reads the key named by envName from the environment,
// falling back to the KEY=VALUE lines of the secrets file. Blank values
// count as unset.
func ResolveAPIKey(envName string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
		return v, nil
	}
	if path, err := SecretsPath(); err == nil {
		if v := readSecretsFile(path, envName); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("api key missing: %s is not set and %s has no entry for it", envName, secretsFileName)
}

func readSecretsFile(path, envName string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(name) == envName {
			if v := strings.TrimSpace(value); v != "" {
				return v
			}
		}
	}
	return ""
}

// WriteSecret inserts or replaces one KEY=VALUE line in the file at path,
// creating it with 0600 permissions when missing. Comments and unrelated
// entries survive.
func WriteSecret(path, name, value string) error {
	var kept []string
	if data, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "#") {
				if key, _, ok := strings.Cut(trimmed, "="); ok && strings.TrimSpace(key) == name {
					continue
				}
			}
			if line != "" {
				kept = append(kept, line)
			}
		}
	}
	kept = append(kept, name+"="+value)
	return os.WriteFile(path, []byte(strings.Join(kept, "\n")+"\n"), 0o600)
}
