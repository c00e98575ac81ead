// Package upload dispatches image uploads across a bounded worker pool,
// re-encoding oversized files first and retrying transient failures with
// jittered exponential backoff.
package upload

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-telepress/internal/imagehost"
	"github.com/alnah/go-telepress/internal/imageutil"
)

// ErrUpload indicates an image upload failed after all retry attempts.
var ErrUpload = errors.New("upload failed")

// Defaults for the upload pipeline.
const (
	DefaultWorkers       = 4
	DefaultRetries       = 3
	DefaultRetryDelay    = 1 * time.Second
	DefaultMaxRetryDelay = 30 * time.Second
)

// Result is the terminal outcome of one file's upload.
type Result struct {
	Path       string
	URL        string
	Err        error
	Compressed bool
	Attempts   int
	Elapsed    time.Duration
}

// BatchResult aggregates per-file outcomes. Results keeps the input order of
// the requested paths regardless of completion order.
type BatchResult struct {
	Results   []Result
	Succeeded int
	Failed    int
}

// SuccessRate returns the fraction of files that uploaded, 0 for an empty
// batch.
func (b BatchResult) SuccessRate() float64 {
	if len(b.Results) == 0 {
		return 0
	}
	return float64(b.Succeeded) / float64(len(b.Results))
}

// URLMap maps each successfully uploaded path to its remote URL.
func (b BatchResult) URLMap() map[string]string {
	m := make(map[string]string, b.Succeeded)
	for _, r := range b.Results {
		if r.Err == nil && r.URL != "" {
			m[r.Path] = r.URL
		}
	}
	return m
}

// FailedPaths lists the paths that did not upload, in input order.
func (b BatchResult) FailedPaths() []string {
	var failed []string
	for _, r := range b.Results {
		if r.Err != nil {
			failed = append(failed, r.Path)
		}
	}
	return failed
}

// Progress is called after each upload reaches a terminal state. The pipeline
// serializes calls even though uploads run in parallel, so implementations
// need no locking of their own.
type Progress func(completed, total int, r Result)

// Option configures an Uploader.
type Option func(*Uploader)

// WithWorkers bounds concurrent uploads during a batch.
func WithWorkers(n int) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.workers = n
		}
	}
}

// WithRetries sets the attempt ceiling per file.
func WithRetries(n int) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.retries = n
		}
	}
}

// WithRetryDelay sets the initial backoff delay and its cap.
func WithRetryDelay(initial, max time.Duration) Option {
	return func(u *Uploader) {
		if initial > 0 {
			u.retryDelay = initial
		}
		if max > 0 {
			u.maxRetryDelay = max
		}
	}
}

// WithAutoCompress toggles re-encoding of oversized images before upload.
func WithAutoCompress(on bool) Option {
	return func(u *Uploader) { u.autoCompress = on }
}

// WithMaxImageSize sets the per-image byte ceiling that triggers compression.
func WithMaxImageSize(n int64) Option {
	return func(u *Uploader) { u.maxImageSize = n }
}

// Uploader sends local images to an image host with compression and retry.
type Uploader struct {
	host          imagehost.Host
	workers       int
	retries       int
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	autoCompress  bool
	maxImageSize  int64
	compressor    *imageutil.Compressor

	// sleep and jitter are swappable in tests so backoff is observable
	// without real waiting.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// New creates an Uploader targeting host.
func New(host imagehost.Host, opts ...Option) *Uploader {
	u := &Uploader{
		host:          host,
		workers:       DefaultWorkers,
		retries:       DefaultRetries,
		retryDelay:    DefaultRetryDelay,
		maxRetryDelay: DefaultMaxRetryDelay,
		autoCompress:  true,
		sleep:         sleepContext,
		jitter:        rand.Float64,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.compressor = imageutil.NewCompressor(u.maxImageSize)
	return u
}

// Upload sends one file and returns its remote URL.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	r := u.uploadOne(ctx, path)
	if r.Err != nil {
		return "", r.Err
	}
	return r.URL, nil
}

// UploadBatch uploads paths concurrently across the worker pool and reports
// every outcome in input order. Per-file failures never abort the batch;
// cancel ctx to abandon files not yet started.
func (u *Uploader) UploadBatch(ctx context.Context, paths []string, progress Progress) BatchResult {
	if len(paths) == 0 {
		return BatchResult{}
	}

	// Hosts that transfer whole directories in one shot skip the pool.
	if batcher, ok := u.host.(imagehost.BatchHost); ok {
		return u.uploadBatchNative(ctx, batcher, paths, progress)
	}

	workers := u.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]Result, len(paths))
	jobs := make(chan int, len(paths))

	var mu sync.Mutex
	completed := 0
	report := func(r Result) {
		if progress == nil {
			return
		}
		mu.Lock()
		completed++
		progress(completed, len(paths), r)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = Result{Path: paths[idx], Err: ctx.Err()}
				} else {
					results[idx] = u.uploadOne(ctx, paths[idx])
				}
				report(results[idx])
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return tally(results)
}

// RetryFailed re-attempts only the failed subset of a prior batch. Prior
// successes are untouched.
func (u *Uploader) RetryFailed(ctx context.Context, prior BatchResult, progress Progress) BatchResult {
	failed := prior.FailedPaths()
	if len(failed) == 0 {
		return BatchResult{}
	}
	return u.UploadBatch(ctx, failed, progress)
}

// uploadOne runs the full stat-compress-retry sequence for a single file.
func (u *Uploader) uploadOne(ctx context.Context, path string) Result {
	start := time.Now()
	r := Result{Path: path}

	if _, err := os.Stat(path); err != nil {
		r.Err = fmt.Errorf("%w: %v", ErrUpload, err)
		r.Elapsed = time.Since(start)
		return r
	}

	uploadPath := path
	if u.autoCompress {
		out, compressed, err := u.compressor.Compress(path)
		if err != nil {
			r.Err = err
			r.Elapsed = time.Since(start)
			return r
		}
		if compressed {
			uploadPath = out
			r.Compressed = true
			defer os.Remove(out)
		}
	}

	url, attempts, err := u.putWithRetry(ctx, uploadPath)
	r.URL = url
	r.Attempts = attempts
	if err != nil {
		r.Err = fmt.Errorf("%w: %s after %d attempts: %v", ErrUpload, path, attempts, err)
	}
	r.Elapsed = time.Since(start)
	return r
}

// putWithRetry applies exponential backoff with jitter between attempts.
func (u *Uploader) putWithRetry(ctx context.Context, path string) (string, int, error) {
	var lastErr error
	delay := u.retryDelay

	for attempt := 1; attempt <= u.retries; attempt++ {
		url, err := u.host.Upload(ctx, path)
		if err == nil {
			return url, attempt, nil
		}
		lastErr = err

		if attempt == u.retries {
			break
		}
		wait := delay + time.Duration(u.jitter()*0.1*float64(delay))
		if wait > u.maxRetryDelay {
			wait = u.maxRetryDelay
		}
		if err := u.sleep(ctx, wait); err != nil {
			return "", attempt, errors.Join(err, lastErr)
		}
		delay *= 2
	}
	return "", u.retries, lastErr
}

// uploadBatchNative hands the whole batch to the host in one call.
// Compression still runs per file; the host sees compressed paths while
// results keep the originals. No retry here: batch transfer tools handle
// their own.
func (u *Uploader) uploadBatchNative(ctx context.Context, host imagehost.BatchHost, paths []string, progress Progress) BatchResult {
	start := time.Now()
	results := make([]Result, len(paths))
	batchPaths := make([]string, 0, len(paths))
	batchIdx := make([]int, 0, len(paths))

	for i, path := range paths {
		results[i] = Result{Path: path}
		if _, err := os.Stat(path); err != nil {
			results[i].Err = fmt.Errorf("%w: %v", ErrUpload, err)
			continue
		}

		uploadPath := path
		if u.autoCompress {
			out, compressed, err := u.compressor.Compress(path)
			if err != nil {
				results[i].Err = err
				continue
			}
			if compressed {
				uploadPath = out
				results[i].Compressed = true
				defer os.Remove(out)
			}
		}
		batchPaths = append(batchPaths, uploadPath)
		batchIdx = append(batchIdx, i)
	}

	if len(batchPaths) > 0 {
		urls, err := host.UploadBatch(ctx, batchPaths)
		for k, i := range batchIdx {
			results[i].Attempts = 1
			switch {
			case err != nil:
				results[i].Err = fmt.Errorf("%w: %v", ErrUpload, err)
			case urls[batchPaths[k]] == "":
				results[i].Err = fmt.Errorf("%w: no URL returned for %s", ErrUpload, paths[i])
			default:
				results[i].URL = urls[batchPaths[k]]
			}
		}
	}

	elapsed := time.Since(start)
	for i := range results {
		results[i].Elapsed = elapsed
		if progress != nil {
			progress(i+1, len(results), results[i])
		}
	}
	return tally(results)
}

// tally folds per-file results into aggregate counts.
func tally(results []Result) BatchResult {
	b := BatchResult{Results: results}
	for _, r := range results {
		if r.Err != nil {
			b.Failed++
		} else {
			b.Succeeded++
		}
	}
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
