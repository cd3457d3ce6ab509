// Package config defines conversion settings and provides helpers to load,
// validate and save them in YAML format.
//
// A settings file is optional: the CLI reads one only when --config is given,
// and command-line flags override whatever it contains.
package config
