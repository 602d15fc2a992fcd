package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sectionComments annotate the top-level sections of a generated file.
var sectionComments = map[string]string{
	"logging": "# Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, or a file path)",
	"backend": "# Backend: type selects memory, badger or redis; only the matching section is read.\n" +
		"# badger accepts db_path, in_memory, block_cache_size_mb, index_cache_size_mb.\n" +
		"# redis accepts addr, username, password, db, pool_size, dial_timeout, read_timeout, write_timeout.",
	"tree":    "# Tree: key_prefix namespaces every key; max_symlink_hops bounds symlink substitutions per lookup",
	"metrics": "# Metrics: enable Prometheus collectors; port serves /metrics during `dittotree gc --watch`",
	"gc":      "# GC: removes node records and adjacency entries no longer reachable from the root",
}

// InitConfig writes a default configuration file to the default location
// and returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML with a header and a comment
// above each top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	// Mapping nodes alternate key, value.
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# DittoTree Configuration File\n")
	buf.WriteString("#\n")
	buf.WriteString("# Environment variables override these values, e.g. DITTOTREE_LOGGING_LEVEL=DEBUG\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}
