package observer

import (
	"context"
	"fmt"
	"time"

	"github.com/dcshock/piperline/pipeline"
	"github.com/rs/zerolog"
)

// LogObserver logs pipeline activity to a zerolog logger.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver returns an observer writing to log.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// RunStarted implements pipeline.Observer.
func (o *LogObserver) RunStarted(_ context.Context, runID, name string, input any) {
	o.log.Debug().
		Str("run_id", runID).
		Str("pipeline", name).
		Str("input_type", fmt.Sprintf("%T", input)).
		Msg("run started")
}

// StageStarted implements pipeline.Observer.
func (o *LogObserver) StageStarted(ctx context.Context, runID string, stage int, _ any) {
	o.log.Debug().
		Str("run_id", runID).
		Str("pipeline", pipelineName(ctx)).
		Int("stage", stage).
		Msg("stage started")
}

// StageResolved implements pipeline.Observer.
func (o *LogObserver) StageResolved(ctx context.Context, runID string, stage int, how pipeline.Resolution, output any, d time.Duration) {
	ev := o.log.Debug()
	if how == pipeline.Panicked {
		ev = o.log.Error()
		if err, ok := output.(error); ok {
			ev = ev.Err(err)
		}
	}
	ev.Str("run_id", runID).
		Str("pipeline", pipelineName(ctx)).
		Int("stage", stage).
		Stringer("resolution", how).
		Dur("duration", d).
		Msg("stage resolved")
}

// RunCompleted implements pipeline.Observer.
func (o *LogObserver) RunCompleted(ctx context.Context, runID string, _ any, err error, d time.Duration) {
	if err != nil {
		o.log.Error().Err(err).
			Str("run_id", runID).
			Str("pipeline", pipelineName(ctx)).
			Dur("duration", d).
			Msg("run failed")
		return
	}
	o.log.Info().
		Str("run_id", runID).
		Str("pipeline", pipelineName(ctx)).
		Dur("duration", d).
		Msg("run done")
}

func pipelineName(ctx context.Context) string {
	name, _ := pipeline.PipelineNameFromContext(ctx)
	return name
}
