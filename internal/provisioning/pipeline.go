package provisioning

import (
	"errors"
	"fmt"
	"time"
)

// RunPhases executes phases strictly in order, threading State forward.
//
// The first failing phase moves the pipeline to StageFailed and ends the
// run; nothing is retried. In strict mode every phase that ran, including
// the failing one, is then compensated in reverse order. Otherwise side
// effects are left in place for manual cleanup.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	ctx.Observer.Printf("Starting bootstrap with %d phases...", len(phases))

	ran := make([]Phase, 0, len(phases))
	for i, phase := range phases {
		if !ctx.State.Stage.CanAdvance(phase.Stage()) {
			return fmt.Errorf("phase %s cannot run in stage %s", phase.Name(), ctx.State.Stage)
		}
		ctx.State.Stage = phase.Stage()
		ran = append(ran, phase)

		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))
		LogPhaseStart(ctx.Observer, name)
		phaseStart := time.Now()

		err := phase.Provision(ctx)
		ctx.Metrics.ObservePhase(phase.Name(), time.Since(phaseStart), err)

		if err != nil {
			LogPhaseFailed(ctx.Observer, name, err)
			failed := &PipelineError{Stage: ctx.State.Stage, Phase: phase.Name(), Err: err}
			ctx.State.Stage = StageFailed
			if ctx.Request != nil && ctx.Request.Strict {
				failed.Compensation = compensate(ctx, ran)
			}
			ctx.Metrics.RecordRun(failed.Stage, err)
			return failed
		}

		LogPhaseComplete(ctx.Observer, name, time.Since(phaseStart))
	}

	if ctx.State.Stage.CanAdvance(StageReady) {
		ctx.State.Stage = StageReady
	}
	ctx.Metrics.RecordRun(ctx.State.Stage, nil)
	ctx.Observer.Printf("Bootstrap completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

// compensate undoes phases in reverse order and joins their errors.
func compensate(ctx *Context, phases []Phase) error {
	var errs []error
	for i := len(phases) - 1; i >= 0; i-- {
		c, ok := phases[i].(Compensator)
		if !ok {
			continue
		}
		ctx.Observer.Printf("[%s] compensating", phases[i].Name())
		if err := c.Compensate(ctx); err != nil {
			ctx.Observer.Printf("[%s] compensation failed: %v", phases[i].Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", phases[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}
