// Package config loads shooter's connection and behavior settings.
//
// # Overview
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults
//  2. ~/.config/shooter/config.toml, or the path given with --config
//  3. SHOOTER_* environment variables, optionally seeded from a .env file
//
// A missing config file is not an error. Blank string values fall back to
// their defaults; everything else is checked with struct validation tags.
//
// # Default Values
//
//   - base_url: http://127.0.0.1:8000
//   - login_path: /accounts/login/
//   - poll_interval: 3s, max_attempts: 60
//   - request_timeout: 30s
//   - tiers: [1, 2, 4], modes: [creative, model, background]
//   - default_count: 4, default_mode: creative
//   - download_dir: ~/Pictures/shooter
//   - log_path: ~/.local/state/shooter/shooter.log, log_level: info
//
// # TOML Format
//
//	base_url = "https://shots.example.com"
//	session_cookie = "..."
//	csrf_token = "..."
//	poll_interval = "3s"
//
// session_cookie and csrf_token carry the browser session the backend issued;
// the client sends them as cookies and never inspects them.
//
// # Path Expansion
//
// Tilde paths are expanded to the home directory and relative paths are made
// absolute, for the config file itself, download_dir and log_path.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read or TOML parse errors (except a missing file)
//   - Validation failures, including a default_count outside tiers or a
//     default_mode outside modes
package config
