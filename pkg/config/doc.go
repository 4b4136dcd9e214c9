// Package config provides configuration management for Switchboard.
//
// This package loads, validates and manages configuration from YAML files
// with environment variable overrides. Unset fields take documented
// defaults; booleans that default to true may be switched off explicitly.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SWITCHBOARD_SECTION_FIELD.
// For example:
//
//   - SWITCHBOARD_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - SWITCHBOARD_PROVIDERS_OPENAI_MONTHLY_BUDGET overrides the openai budget
//   - SWITCHBOARD_STATE_REDIS_PASSWORD overrides state.redis.password
//
// A .env file beside the configuration file is read before overrides are
// applied. Variables already present in the process environment win.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. .env file
//  4. Environment variable overrides
//  5. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// A Watcher reloads the file on change. Only settings that components
// accept at runtime, such as alert thresholds, take effect without a
// restart.
//
// # Validation
//
// Validation collects every problem and reports them together:
//
//	configuration validation failed with 2 errors:
//	  - providers[1].priority: priority 1 already used by "groq"
//	  - features.summarize.providers[0]: provider "mistral" is not configured
//
// # Example Configuration
//
//	providers:
//	  - id: groq
//	    priority: 1
//	  - id: openai
//	    priority: 2
//	    monthly_budget: 50
//	    alert_threshold: 0.8
//
//	features:
//	  chat:
//	    providers: [groq, openai]
//
//	alerting:
//	  error_rate_threshold: 0.3
//	  cooldown: 1h
package config
