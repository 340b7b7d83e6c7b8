// Package config loads and resolves zephyr-bridge configuration.
//
// # Configuration Precedence
//
// Values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--project-key, --token, --timeout, ...), each of which can also be
//     set through its ZEPHYR_* environment variable
//  2. YAML config file (--config, else .zephyr.yaml in the working directory, else
//     $XDG_CONFIG_HOME/zephyr-bridge/.zephyr.yaml)
//  3. Hardcoded defaults
//
// A layer only overrides the fields it sets. A boolean set to false cannot
// override true from a lower layer.
//
// # Required Options
//
//   - project_key: the Zephyr Scale project, also the prefix of every case key
//   - authorization_token: the Zephyr Scale API token; prefer ZEPHYR_AUTHORIZATION_TOKEN
//     over committing it to the file
//
// Every validation problem is reported at once, before any test runs.
//
// # Example
//
//	project_key: PROJ
//	key_pattern: '\[(.*?)\]'
//	timeout: 90s
//	test_cycle:
//	  name: Nightly regression
//	  folder_id: 42
package config
