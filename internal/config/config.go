// Package config loads the simulator's static configuration: the
// number of sites, the number of variables, and an upper bound on
// concurrent transactions (spec §6). The transaction bound is loaded
// and validated only; the wait-for graph is not sized from it and
// grows on demand.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the simulator's static, load-once settings.
type Config struct {
	Sites           int
	Variables       int
	MaxTransactions int
}

// Default returns the configuration the spec is written against: 10
// sites, 20 variables, and a transaction bound of 100.
func Default() *Config {
	return &Config{
		Sites:           10,
		Variables:       20,
		MaxTransactions: 100,
	}
}

// Load reads a flat "key=value" file (one assignment per line, "#"
// comments and blank lines skipped) on top of Default(). Recognized
// keys: sites, variables, max_transactions.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	cfg := Default()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("config %s:%d: expected key=value, got %q", path, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		n, convErr := strconv.Atoi(value)
		if convErr != nil {
			return nil, fmt.Errorf("config %s:%d: %s must be an integer, got %q", path, lineNo, key, value)
		}

		switch key {
		case "sites":
			cfg.Sites = n
		case "variables":
			cfg.Variables = n
		case "max_transactions":
			cfg.MaxTransactions = n
		default:
			return nil, fmt.Errorf("config %s:%d: unknown key %q", path, lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects a non-positive site count, variable count, or
// transaction bound.
func (c *Config) Validate() error {
	if c.Sites <= 0 {
		return fmt.Errorf("sites must be positive: %d", c.Sites)
	}
	if c.Variables <= 0 {
		return fmt.Errorf("variables must be positive: %d", c.Variables)
	}
	if c.MaxTransactions <= 0 {
		return fmt.Errorf("max_transactions must be positive: %d", c.MaxTransactions)
	}
	return nil
}

// String returns a formatted representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{sites=%d variables=%d max_transactions=%d}",
		c.Sites, c.Variables, c.MaxTransactions)
}
