// Package config defines configuration structures for the placebounds CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (PLACEBOUNDS_ prefix, optionally from a .env file)
//   - YAML configuration file
//
// Precedence is defaults < file < environment < flags. The defaults
// reproduce the TIGER/Line 2020 place boundary run without any input.
//
// # Example
//
//	output_dir: public/data
//	cache_dir: public/data/zips
//	min_archive_size: 1000B
//	chunk_size: 8KiB
//	pause: 1s
//	tolerance: 0.001
//	coarse_tolerance: 0.002
//	http:
//	  connect_timeout: 30s
//	  read_timeout: 300s
//	retry:
//	  attempts: 3
//	  backoff: 5s
package config
