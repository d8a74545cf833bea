package pipeline

import (
	"context"
	"log/slog"
	"time"

	pbhttp "github.com/ligustah/placebounds/internal/http"
	"github.com/ligustah/placebounds/internal/progress"
	"github.com/ligustah/placebounds/internal/regions"
)

// Summary is the outcome of a run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    []string // region IDs in processing order
	Results   []Result

	// Err is set when the run was interrupted. Regions not reached are
	// counted as failed.
	Err error
}

// Runner processes regions one after another.
type Runner struct {
	proc     *Processor
	reporter *progress.Reporter
	pause    time.Duration
	logger   *slog.Logger
}

// NewRunner creates a runner that pauses between regions. The reporter
// must be the one the processor reports to.
func NewRunner(proc *Processor, pause time.Duration) *Runner {
	return &Runner{
		proc:     proc,
		reporter: proc.opts.Reporter,
		pause:    pause,
		logger:   proc.opts.Logger,
	}
}

// Run processes regs in order. A failed region never stops the run; only
// cancelling ctx does.
func (r *Runner) Run(ctx context.Context, regs []regions.Region) Summary {
	s := Summary{Total: len(regs)}

	for i, reg := range regs {
		if i > 0 && r.pause > 0 {
			if err := pbhttp.Sleep(ctx, r.pause); err != nil {
				s.Err = err
			}
		}
		if s.Err == nil {
			s.Err = ctx.Err()
		}
		if s.Err != nil {
			for _, rest := range regs[i:] {
				s.Failed = append(s.Failed, rest.ID)
			}
			r.logger.Warn("run interrupted", "remaining", len(regs)-i, "error", s.Err)
			break
		}

		r.reporter.RegionStarted(reg.Code, reg.ID)
		res := r.proc.Process(ctx, reg)
		s.Results = append(s.Results, res)
		if !res.Status.OK() {
			s.Failed = append(s.Failed, reg.ID)
		}
	}

	s.Succeeded = s.Total - len(s.Failed)
	r.reporter.Summary(s.Total, s.Failed)
	return s
}
