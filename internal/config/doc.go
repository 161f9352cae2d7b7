// Package config loads, normalizes, and validates wizard configuration.
//
// Configuration comes from a TOML file (flag, PSYCHDS_CONFIG, or
// ~/.config/psychds/config.toml), layered over compiled-in defaults with
// environment fallbacks for secrets such as the OSF token. Load returns a
// fully expanded config: every path is absolute with ~ resolved, every
// omitted key holds its default, and validation has rejected inconsistent
// combinations with messages that name the offending key.
package config
