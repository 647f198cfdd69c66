// Package loadtest replays prediction requests against a running service.
package loadtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// KellyBody is a single passenger from the test set, sent as a column batch.
const KellyBody = `{"PassengerId":[892],"Pclass":[3],"Name":["Kelly, Mr. James"],"Sex":["male"],"Age":[34.5],"SibSp":[0],"Fare":[7.8292],"Embarked":["S"]}`

type StressOptions struct {
	URL  string
	Body []byte

	// Zero runs until ctx is done
	Requests    int
	Concurrency int
	// Pause after every response, per worker
	Think time.Duration
	// Requests per second across all workers, zero is unlimited
	Rate float64

	Client *http.Client
}

type Summary struct {
	Requests int
	Errors   int
	Elapsed  time.Duration
	Mean     time.Duration
	P50      time.Duration
	P99      time.Duration
	Max      time.Duration
}

func (s *Summary) String() string {
	return fmt.Sprintf("requests=%d errors=%d elapsed=%s mean=%s p50=%s p99=%s max=%s",
		s.Requests, s.Errors, s.Elapsed.Round(time.Millisecond), s.Mean, s.P50, s.P99, s.Max)
}

// Stress sends the same body over and over and summarizes latency. Failed
// requests are counted, not fatal.
func Stress(ctx context.Context, opts StressOptions) (*Summary, error) {
	if opts.URL == "" {
		return nil, errors.New("url is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Requests > 0 && opts.Concurrency > opts.Requests {
		opts.Concurrency = opts.Requests
	}
	if len(opts.Body) == 0 {
		opts.Body = []byte(KellyBody)
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	var issued atomic.Int64
	var failures atomic.Int64
	latencies := make([][]time.Duration, opts.Concurrency)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < opts.Concurrency; w++ {
		w := w
		g.Go(func() error {
			for {
				if opts.Requests > 0 && issued.Add(1) > int64(opts.Requests) {
					return nil
				}
				if err := waitTurn(gctx, limiter); err != nil {
					return err
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				took, err := send(gctx, opts.Client, opts.URL, opts.Body)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failures.Add(1)
				}
				latencies[w] = append(latencies[w], took)
				if opts.Think > 0 {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(opts.Think):
					}
				}
			}
		})
	}
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	var all []time.Duration
	for _, l := range latencies {
		all = append(all, l...)
	}
	summary := summarize(all)
	summary.Errors = int(failures.Load())
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// waitTurn blocks until the limiter allows another request. When the next
// slot falls after the context deadline the run is over, and the returned
// error wraps context.DeadlineExceeded so every worker stops.
func waitTurn(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return nil
}

func send(ctx context.Context, client *http.Client, url string, body []byte) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return time.Since(start), err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	took := time.Since(start)
	if res.StatusCode != http.StatusOK {
		return took, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return took, nil
}

func summarize(latencies []time.Duration) *Summary {
	s := &Summary{Requests: len(latencies)}
	if len(latencies) == 0 {
		return s
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	s.Mean = total / time.Duration(len(latencies))
	s.P50 = percentile(latencies, 50)
	s.P99 = percentile(latencies, 99)
	s.Max = latencies[len(latencies)-1]
	return s
}

// percentile uses nearest rank on an ascending slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
