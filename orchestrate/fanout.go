package orchestrate

import (
	"context"
	"fmt"

	"github.com/zhound420/acp-agents-skill/core"
	"golang.org/x/sync/errgroup"
)

// Policy selects how a fan-out reacts to a failing branch.
type Policy int

const (
	// FailFast cancels the remaining branches on the first failure and
	// reports that failure as the overall error.
	FailFast Policy = iota
	// BestEffort lets every branch run to completion and records
	// per-branch outcomes without an overall error.
	BestEffort
)

// Request is one branch of a fan-out.
type Request struct {
	Agent string
	Input []core.Message
}

// BranchResult is the outcome of one branch. Exactly one of Output and Err
// is meaningful.
type BranchResult struct {
	Index  int
	Agent  string
	Output []core.Message
	Err    *core.Error
}

// FanOutResult aggregates branch outcomes in request order.
type FanOutResult struct {
	Branches []BranchResult
}

// Succeeded returns the branches that completed, in request order.
func (r *FanOutResult) Succeeded() []BranchResult {
	var out []BranchResult
	for _, b := range r.Branches {
		if b.Err == nil {
			out = append(out, b)
		}
	}
	return out
}

// Failed returns the branches that failed, in request order.
func (r *FanOutResult) Failed() []BranchResult {
	var out []BranchResult
	for _, b := range r.Branches {
		if b.Err != nil {
			out = append(out, b)
		}
	}
	return out
}

// FanOutOptions configures a single fan-out invocation.
type FanOutOptions struct {
	Policy Policy
}

// FanOut dispatches every request concurrently and collects results in
// request order regardless of completion order. Under FailFast the first
// branch failure cancels its siblings and becomes the returned error;
// branches that had already completed keep their results. Under BestEffort
// all branches run and failures are recorded per branch.
func (e *Engine) FanOut(ctx context.Context, reqs []Request, optFns ...func(o *FanOutOptions)) (*FanOutResult, error) {
	opts := FanOutOptions{Policy: FailFast}
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(reqs) == 0 {
		return &FanOutResult{}, nil
	}

	result := &FanOutResult{Branches: make([]BranchResult, len(reqs))}
	for i, req := range reqs {
		result.Branches[i] = BranchResult{Index: i, Agent: req.Agent}
	}

	e.logger.Debug("fan-out dispatch", "branches", len(reqs), "policy", int(opts.Policy))

	if opts.Policy == BestEffort {
		return result, e.fanOutBestEffort(ctx, reqs, result)
	}
	return result, e.fanOutFailFast(ctx, reqs, result)
}

func (e *Engine) fanOutFailFast(ctx context.Context, reqs []Request, result *FanOutResult) error {
	g, gctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	for i, req := range reqs {
		g.Go(func() error {
			output, err := e.call(gctx, req.Agent, req.Input)
			if err != nil {
				result.Branches[i].Err = asCoreError(req.Agent, err)
				return fmt.Errorf("branch %d (%s): %w", i, req.Agent, err)
			}
			result.Branches[i].Output = output
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) fanOutBestEffort(ctx context.Context, reqs []Request, result *FanOutResult) error {
	var g errgroup.Group
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}

	for i, req := range reqs {
		g.Go(func() error {
			output, err := e.call(ctx, req.Agent, req.Input)
			if err != nil {
				result.Branches[i].Err = asCoreError(req.Agent, err)
				return nil
			}
			result.Branches[i].Output = output
			return nil
		})
	}
	return g.Wait()
}

func asCoreError(agent string, err error) *core.Error {
	if ce, ok := err.(*core.Error); ok {
		return ce
	}
	return core.WrapError(core.KindOf(err), agent, err)
}
