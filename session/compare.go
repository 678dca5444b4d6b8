package session

import (
	"context"
	"runtime"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/grailbio/dotplot/alphabet"
	"github.com/grailbio/dotplot/extend"
	"github.com/grailbio/dotplot/ktuple"
	"github.com/grailbio/dotplot/match"
)

// PairJob names one pairwise comparison: a sub-sequence on the table axis
// against a sub-sequence on the comparison axis, plus the extension
// parameters to run. TableOffset/CompOffset are each sub-range's global
// placement along its axis (the sequence's own SeqInfo.Offset plus
// TableStart/CompStart), so a caller compositing many regions into one
// canvas knows where each region's local (0-based) match coordinates
// belong globally.
type PairJob struct {
	TablePath, TableSeq  string
	TableStart, TableEnd uint64
	TableOffset          uint64
	CompPath, CompSeq    string
	CompStart, CompEnd   uint64
	CompOffset           uint64
	Params               extend.Params
}

// Result is the outcome of one PairJob.
type Result struct {
	Job  PairJob
	Fast *extend.FastResult
	Err  error
}

// Compare runs a single pair job end to end: extract both sub-sequences,
// build a transient index over the table sub-sequence, and extend against
// every transform of the comparison sub-sequence the alphabet supports.
// Results are cached by region (table/comparison sub-range plus params);
// a repeated call with an identical job returns the cached result without
// re-running the comparison. Use InvalidateRegion when a region's params
// change.
func (c *Catalog) Compare(job PairJob, a *alphabet.Alphabet) (*extend.FastResult, error) {
	key := keyFor(job)
	c.cacheMu.RLock()
	cached, ok := c.cache[key]
	c.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	table, err := c.Extract(job.TablePath, job.TableSeq, job.TableStart, job.TableEnd, a)
	if err != nil {
		return nil, err
	}
	comp, err := c.Extract(job.CompPath, job.CompSeq, job.CompStart, job.CompEnd, a)
	if err != nil {
		return nil, err
	}
	result, err := extend.Fast(table, comp, a, job.Params)
	if err != nil {
		return nil, err
	}

	c.cacheMu.Lock()
	c.cache[key] = result
	c.cacheMu.Unlock()
	return result, nil
}

// CompareIndexed runs one pair job against a pre-built index, skipping the
// transient-index build that Compare performs internally.
func (c *Catalog) CompareIndexed(job PairJob, index *ktuple.Index, table alphabet.Sequence, a *alphabet.Alphabet) (*match.Store, error) {
	comp, err := c.Extract(job.CompPath, job.CompSeq, job.CompStart, job.CompEnd, a)
	if err != nil {
		return nil, err
	}
	return extend.Extend(index, table, comp, a, job.Params)
}

// CompareAll fans independent pair jobs out across a bounded worker pool,
// since jobs share no mutable state beyond the read-only Catalog and
// Alphabet: each worker gets its own transient KTupleIndex/Store from
// Compare. workers <= 0 defaults to runtime.GOMAXPROCS(0). Results are
// returned in job order; the first job to fail stops any job that has not
// started yet and CompareAll returns that error. Compare calls already
// running are not interrupted.
func (c *Catalog) CompareAll(ctx context.Context, jobs []PairJob, a *alphabet.Alphabet, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(jobs))
	jobCh := make(chan int)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-jobCh:
					if !ok {
						return
					}
					fast, err := c.Compare(jobs[idx], a)
					results[idx] = Result{Job: jobs[idx], Fast: fast, Err: err}
					if err != nil {
						errOnce.Do(func() {
							firstErr = errors.E(err, "session.CompareAll", jobs[idx].TableSeq, jobs[idx].CompSeq)
							cancel()
						})
					}
				}
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case jobCh <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()

	if firstErr != nil {
		log.Error.Printf("session.CompareAll: aborting after first failure: %v", firstErr)
		return nil, firstErr
	}
	return results, nil
}
