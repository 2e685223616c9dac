// Package config provides a handler registry and human-readable pipeline configuration.
//
// Register handlers by name, then define pipelines in YAML (or structs) that reference
// those names and optional modifiers:
//
//	log:
//	  level: debug
//	  format: console
//	pipelines:
//	  enrich:
//	    observers: [log]
//	    handlers:
//	      - fetch
//	      - name: cached
//	        terminal: true
//	      - compute
//
// Build pipelines with BuildPipeline(registry, config, opts) or BuildAllPipelines, and
// a logger for the whole file with MultiPipelineConfig.Log.NewLogger.
package config
