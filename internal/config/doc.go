// Package config provides configuration structures and utilities for extlink.
// It defines which files are annotated, how many are processed at once,
// and how the run is reported.
package config
