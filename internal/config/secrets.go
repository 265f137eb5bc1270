package config

import (
	"os"
	"path/filepath"
	"strings"
)

// readSecret читает секрет из файла Docker Secrets, а если файла нет -
// из первой непустой переменной окружения. Пустая строка - секрет не задан.
func readSecret(dir, secretName string, envKeys ...string) string {
	if dir != "" {
		if b, err := os.ReadFile(filepath.Join(dir, secretName)); err == nil {
			if secret := strings.TrimSpace(string(b)); secret != "" {
				return secret
			}
		}
	}
	for _, key := range envKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
