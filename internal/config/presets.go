// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

package config

import "github.com/casaops/casaops/internal/logging"

// PresetNames lists the built-in logger presets.
var PresetNames = []string{"development", "production", "minimal", "debug", "security"}

// Preset returns a named logger preset. Unknown names fall back to the
// development preset rather than failing, so a typo in APP_ENV still
// produces a usable logger.
func Preset(name string) logging.Config {
	switch name {
	case "production":
		cfg := logging.DefaultConfig()
		cfg.Level = "INFO"
		cfg.Outputs = []string{logging.OutputConsole, logging.OutputFile}
		cfg.MaxSize = 50 * 1024 * 1024
		cfg.MaxFiles = 10
		cfg.NamePattern = "app-%DATE%.log"
		cfg.Format = logging.FormatJSON
		cfg.Colorize = false
		return cfg

	case "minimal":
		cfg := logging.DefaultConfig()
		cfg.Level = "WARN"
		cfg.Format = logging.FormatMinimal
		cfg.Timestamp = false
		return cfg

	case "debug":
		cfg := logging.DefaultConfig()
		cfg.Level = "TRACE"
		cfg.Outputs = []string{logging.OutputConsole, logging.OutputFile}
		cfg.MaxSize = 20 * 1024 * 1024
		cfg.MaxFiles = 5
		cfg.NamePattern = "debug-%DATE%.log"
		cfg.MaskSensitive = false
		return cfg

	case "security":
		cfg := logging.DefaultConfig()
		cfg.Level = "INFO"
		cfg.Outputs = []string{logging.OutputConsole, logging.OutputFile}
		cfg.Dir = "logs/security"
		cfg.MaxSize = 100 * 1024 * 1024
		cfg.MaxFiles = 30
		cfg.NamePattern = "security-%DATE%.log"
		cfg.Format = logging.FormatJSON
		cfg.Colorize = false
		cfg.SensitiveFields = []string{
			"password", "token", "secret", "authorization",
			"creditCard", "ssn", "email", "phone", "address",
		}
		return cfg

	default: // development
		cfg := logging.DefaultConfig()
		cfg.Level = "DEBUG"
		return cfg
	}
}
