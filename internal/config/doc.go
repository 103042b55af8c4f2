// Package config provides layered configuration for the invoice report
// pipeline: an optional .env file, INVREP_-prefixed environment variables,
// and an optional config.yaml, with struct-level validation. It also owns
// the centralized Paths value used by every component that touches the
// filesystem, and the default business rule constants (required contracts,
// excluded line descriptions, outlier percentile).
package config
