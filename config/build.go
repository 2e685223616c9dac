package config

import (
	"fmt"

	"github.com/dcshock/piperline/pipeline"
	"github.com/rs/zerolog"
)

// BuildOptions configures how a pipeline is built from config.
type BuildOptions struct {
	// ObserverRegistry is used when PipelineConfig.Observers is set.
	ObserverRegistry *ObserverRegistry

	// Loop, if set, is shared by every built pipeline instead of pipeline.DefaultLoop.
	Loop *pipeline.Loop

	// Logger, if set, is given to every built pipeline.
	Logger *zerolog.Logger
}

// BuildPipeline builds a pipeline.Pipeline from config and registry. Handler names in config must be registered.
func BuildPipeline(reg *Registry, cfg *PipelineConfig, opts *BuildOptions) (*pipeline.Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	handlers := make([]pipeline.Handler, 0, len(cfg.Handlers))
	for i, ref := range cfg.Handlers {
		if ref.Name == "" {
			return nil, fmt.Errorf("handler %d: name required", i)
		}
		h, ok := reg.Get(ref.Name)
		if !ok {
			return nil, fmt.Errorf("handler %d: %q not in registry", i, ref.Name)
		}
		if ref.Terminal {
			h = pipeline.Terminal(h)
		}
		handlers = append(handlers, h)
	}

	pipeOpts := []pipeline.Option{pipeline.WithName(cfg.Name)}
	obs, err := BuildObserver(cfg, opts)
	if err != nil {
		return nil, err
	}
	if obs != nil {
		pipeOpts = append(pipeOpts, pipeline.WithObserver(obs))
	}
	if opts != nil && opts.Loop != nil {
		pipeOpts = append(pipeOpts, pipeline.WithLoop(opts.Loop))
	}
	if opts != nil && opts.Logger != nil {
		pipeOpts = append(pipeOpts, pipeline.WithLogger(*opts.Logger))
	}
	return pipeline.New(handlers, pipeOpts...)
}

// BuildObserver returns a pipeline.Observer for the config's Observers list by looking up each name
// in BuildOptions.ObserverRegistry and combining them with pipeline.MultiObserver.
// If cfg.Observers is empty it returns (nil, nil). An unknown name, or names without a registry, is an error.
func BuildObserver(cfg *PipelineConfig, opts *BuildOptions) (pipeline.Observer, error) {
	if cfg == nil || len(cfg.Observers) == 0 {
		return nil, nil
	}
	if opts == nil || opts.ObserverRegistry == nil {
		return nil, fmt.Errorf("observers %v require BuildOptions.ObserverRegistry", cfg.Observers)
	}
	list := make([]pipeline.Observer, 0, len(cfg.Observers))
	for i, name := range cfg.Observers {
		obs, ok := opts.ObserverRegistry.Get(name)
		if !ok {
			return nil, fmt.Errorf("observer %d: %q not in registry", i, name)
		}
		list = append(list, obs)
	}
	if len(list) == 1 {
		return list[0], nil
	}
	return pipeline.MultiObserver(list...), nil
}

// BuildAllPipelines builds a pipeline.Pipeline for each entry in multi. Keys are pipeline names.
// If a pipeline config's Name is empty, the map key is used as the pipeline name.
func BuildAllPipelines(reg *Registry, multi *MultiPipelineConfig, opts *BuildOptions) (map[string]*pipeline.Pipeline, error) {
	if multi == nil {
		return nil, fmt.Errorf("MultiPipelineConfig is nil")
	}
	out := make(map[string]*pipeline.Pipeline, len(multi.Pipelines))
	for name, cfg := range multi.Pipelines {
		if cfg.Name == "" {
			cfg.Name = name
		}
		p, err := BuildPipeline(reg, &cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
