// Package configs provides the embedded user configuration template for
// hirmes.
//
// The template is embedded at build time so `hirmes config init` works from
// source builds and binary releases alike. Edit user-config.example.yaml and
// rebuild to change it.
//
// Configuration precedence (see internal/config Load):
//  1. Hardcoded defaults (internal/config NewConfig)
//  2. User config (~/.config/hirmes/config.yaml)
//  3. Environment variables (HIRMES_*)
package configs

import _ "embed"

// UserConfigTemplate is written by `hirmes config init`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
