// Package config loads the client configuration.
//
// Values start from built-in defaults, are overlaid by an optional YAML file
// and then by TELLO_* environment variables, and are validated last.
package config
