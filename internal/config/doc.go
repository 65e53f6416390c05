// Package config loads courier's TOML configuration.
//
// # Resolution
//
// Load follows this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/courier/config.toml
//  3. If the file doesn't exist, start from Default()
//  4. Empty or missing fields keep their defaults
//  5. Non-empty environment variables override the result
//
// # Fields
//
//	api_bind            = "0.0.0.0:5000"
//	signal_cli_path     = "/signal-cli/bin/signal-cli"   # SIGNAL_CLI_PATH
//	signal_config_path  = "/config"                      # SIGNAL_CONFIG_PATH
//	phone_number        = "+15550001"                    # PHONE_NUMBER
//	log_level           = "INFO"                         # SIGNAL_LOG_LEVEL
//	responder_url       = "ws://127.0.0.1:8765"          # COURIER_RESPONDER_URL
//	responder_token     = ""                             # COURIER_RESPONDER_TOKEN
//	responder_timeout   = "30s"
//	dbus_send_path      = "dbus-send"
//
// The container image this bridge ships in sets only the environment
// variables, so a missing file is the common case.
//
// # Validation
//
// Validate reports every missing field at once; `courier serve` refuses to
// start without phone_number and signal_config_path. Client commands
// (watch, groups, send) only need api_bind, via APIBaseURL.
package config
