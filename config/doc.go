// Package config loads the healthmetricsd configuration from TOML.
//
// A file is expanded against the environment before decoding: ${VAR}
// must be set, $VAR expands to the empty string when unset, and $$
// emits a literal dollar sign. Durations are written as strings such as
// "5s" or "1m30s".
//
// The decoded Config converts into the settings of the registrar and the
// observer, so the daemon never copies fields by hand.
package config
