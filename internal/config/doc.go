// Package config loads the patchwire configuration.
//
// Configuration lives in patchwire.json or patchwire.yaml (patchwire.yml)
// next to where the CLI runs. Every field has a default except the signing
// secret, and a few can be overridden from the environment:
// PATCHWIRE_SECRET, PATCHWIRE_ADDR, PATCHWIRE_SNAPSHOT_BACKEND and
// PATCHWIRE_LOG_LEVEL.
//
//	secret: change-me-to-32-random-bytes
//	wire:
//	  minify: true
//	snapshot:
//	  backend: badger
//	  dir: ./data/snapshots
//	server:
//	  addr: localhost:8080
//	  readTimeout: 10s
//	client:
//	  modelAttribute: wire:model
//	log:
//	  level: info
//	  format: json
//
// Loading never validates; commands that need a complete configuration call
// Validate, which uses go-playground/validator struct tags.
package config
