// Package config loads tote's TOML configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tote/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Example
//
//	api_base = "https://ecommerce.routemisr.com/api"
//	request_timeout = "15s"
//	log_file = "~/.local/state/tote/tote.log"
//	log_level = "info"
//	return_base = "http://localhost:3000"
//
//	[storage]
//	backend = "file"          # file | memory | redis
//	path = "~/.local/state/tote/session.toml"
//	watch_interval = "1s"
//	redis_addr = "127.0.0.1:6379"
//	redis_password = ""
//	redis_db = 0
//	redis_prefix = "tote:"
//
//	[sync]
//	ordering = "last-response" # last-response | latest-request
//	verify_on_start = true
//
// # Storage Backends
//
//   - file: the session slots live in one TOML file; several tote processes
//     pointing at the same file see each other's sign-in and sign-out
//   - redis: the slots live in Redis and changes are announced on a pub/sub
//     channel, for sharing a session between machines
//   - memory: nothing survives the process
//
// # Path Expansion
//
// Paths beginning with ~ are expanded to the user's home directory and made
// absolute. Expansion failures leave the path unchanged.
//
// # Error Handling
//
// A missing file is not an error. An unreadable file, invalid TOML or an
// invalid value (duration, log level, backend, ordering) is returned as an
// error naming the field so the CLI can report it and exit.
package config
