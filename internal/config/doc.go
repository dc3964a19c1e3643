// Package config provides configuration management for the payout report tool.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (--config flag or PAYOUT_CONFIG_FILE)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PAYOUT_<SECTION>_<FIELD>:
//
//	PAYOUT_LOGGING_LEVEL=debug
//	PAYOUT_LOGGING_OUTPUT=both
//	PAYOUT_METRICS_ENABLED=true
//	PAYOUT_METRICS_TEXTFILE_PATH=/var/lib/node_exporter/payout.prom
//	PAYOUT_TRACING_ENABLED=true
//	PAYOUT_INPUT_SHEET=Employees
//
// # Validation
//
// Values are checked with go-playground/validator struct tags once all
// sources are merged, so a bad value from any source fails Load.
package config
