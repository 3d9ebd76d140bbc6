// Package config provides configuration structures and utilities for the
// govbizops collector. It defines the compliance ceilings for SAM.gov API
// usage, the main configuration options for collection and storage, and a
// YAML file loader for persistent settings.
package config
