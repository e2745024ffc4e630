// Package config defines match configuration and how it is assembled.
//
// A Match is resolved in layers:
//
//  1. Defaults, read from RACKSCORE_* environment variables.
//  2. Zero or more YAML presets, each checked against an embedded CUE
//     schema before decoding. Later presets override earlier ones.
//
// Validate reports every problem at once rather than failing fast, so a
// setup screen can show them together.
package config
