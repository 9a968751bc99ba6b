// Package runner fans tickets out over a bounded worker pool. Each ticket
// gets one independent pipeline run; stages within a run stay strictly
// sequential.
package runner

import (
	"context"
	"sync"

	"github.com/supportai/triage-pipeline/internal/pipeline"
	"github.com/supportai/triage-pipeline/internal/ticket"
	"golang.org/x/time/rate"
)

type Options struct {
	Workers int

	// RateLimitRPS is a global limit on run starts across all workers.
	// Set to <=0 to disable.
	RateLimitRPS float64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Output is one ticket's terminal result. Err is set only for cancellation or
// an input-contract violation; everything else terminates inside Result.
type Output struct {
	TicketID string
	Result   pipeline.Result
	Err      error
}

// ProcessAll runs every ticket through the pipeline. Per-ticket failures are
// recorded in their Output and do not fail the batch.
func ProcessAll(ctx context.Context, tickets []ticket.Ticket, p *pipeline.Pipeline, opts Options) ([]Output, error) {
	opts = opts.withDefaults()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	out := make([]Output, len(tickets))

	type job struct {
		idx int
		t   ticket.Ticket
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						out[j.idx] = Output{TicketID: j.t.TicketID, Err: err}
						continue
					}
				}
				res, err := p.Run(ctx, j.t)
				out[j.idx] = Output{TicketID: j.t.TicketID, Result: res, Err: err}
			}
		}()
	}

	for i, t := range tickets {
		select {
		case jobs <- job{idx: i, t: t}:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
