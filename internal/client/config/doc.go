// Package config loads runtime configuration for the study-room client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables, after loading .env from the working directory
//     (see parseEnv). Variables already set in the process win over .env.
//  4. Command-line flags (see parseFlags), which override everything else.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-t int      request timeout (seconds)
//	-r float    outbound requests per second
//	-n          allow desktop notifications
//	-l string   log level
//
// Environment
//
//	STUDY_API_URL, STUDY_REQUEST_TIMEOUT ("10s"), STUDY_RATE_LIMIT,
//	STUDY_NOTIFICATIONS (true/false), STUDY_LOG_LEVEL
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://127.0.0.1:5000/api",
//	  "request_timeout": "10s",
//	  "rate_limit": 5,
//	  "notifications": true,
//	  "log_level": "debug"
//	}
//
// Fields missing from the JSON file keep their previous value. Malformed
// input in any source panics at startup.
package config
