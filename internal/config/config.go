// Package config loads StellarSQL's process configuration (spec.md §6
// "Process configuration"): PORT, FILE_BASE_PATH, POOL_SIZE, PAGE_SIZE,
// ENABLE_TSV. Values come from the environment by default (the teacher's
// own precedent: plain os.Getenv-based settings, no env library in its
// go.mod) with an optional TOML file overlay decoded via
// github.com/BurntSushi/toml, and are bound to CLI flags in
// cmd/stellarsqld via github.com/spf13/cobra.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds every recognized StellarSQL setting.
type Config struct {
	Port         int    `toml:"port"`
	FileBasePath string `toml:"file_base_path"`
	PoolSize     int    `toml:"pool_size"`
	PageSize     int    `toml:"page_size"`
	EnableTSV    bool   `toml:"enable_tsv"`
}

// Defaults returns StellarSQL's built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:         5432,
		FileBasePath: "./stellarsql-data",
		PoolSize:     32,
		PageSize:     4096,
		EnableTSV:    false,
	}
}

// FromEnv overlays recognized environment variables onto base.
func FromEnv(base Config) Config {
	c := base
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("FILE_BASE_PATH"); v != "" {
		c.FileBasePath = v
	}
	if v := os.Getenv("POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PoolSize = n
		}
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PageSize = n
		}
	}
	if v := os.Getenv("ENABLE_TSV"); v == "true" {
		c.EnableTSV = true
	}
	return c
}

// FromTOMLFile overlays a TOML config file's fields onto base. Only
// fields present in the file are overridden.
func FromTOMLFile(base Config, path string) (Config, error) {
	c := base
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return base, err
	}
	return c, nil
}

// Load resolves defaults -> environment -> optional TOML file, in that
// precedence order (later sources win).
func Load(tomlPath string) (Config, error) {
	c := FromEnv(Defaults())
	if tomlPath == "" {
		return c, nil
	}
	return FromTOMLFile(c, tomlPath)
}
