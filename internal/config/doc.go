// Package config provides configuration structures and utilities for civimon.
// It defines crawl settings, store locations, relevance-heuristic tuning, and
// classifier connection options, populated from CLI flags and an optional
// YAML configuration file.
package config
