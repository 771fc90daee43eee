// Package config provides configuration management for pagelint.
//
// Configuration comes from three layers, later layers overriding earlier ones:
//
//  1. Documented defaults (NewConfig)
//  2. The pagelint.yml configuration file (per-site settings with a
//     defaults section, discovered via FindConfigFile)
//  3. CLI flags
//
// Validation happens once after CLI parsing via Config.Validate(), which
// returns package-level sentinel errors suitable for errors.Is checks.
// XDG base directories are used for the config file, the run-history
// database, and caches.
package config
