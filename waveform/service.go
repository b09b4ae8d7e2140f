package waveform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"

	"ecg-viewer/metrics"
)

// ServiceConfig bounds normalization work done on behalf of request handlers.
type ServiceConfig struct {
	MaxConcurrent int64         // parallel normalizations, <= 0 means 1
	Timeout       time.Duration // per request, 0 disables
	CacheTTL      time.Duration // 0 disables result caching
}

// Service runs a Normalizer off the request goroutine with bounded concurrency, a timeout and a
// result cache. Cached results are shared and must be treated as read-only.
type Service struct {
	normalizer Normalizer
	sem        *semaphore.Weighted
	timeout    time.Duration
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     *slog.Logger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewService validates the normalizer and builds a Service. m and logger may be nil.
// When caching is enabled a cleanup goroutine runs until Close.
func NewService(n Normalizer, cfg ServiceConfig, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		normalizer: n,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout:    cfg.Timeout,
		metrics:    m,
		logger:     logger.With("component", "normalizer"),
	}
	if cfg.CacheTTL > 0 {
		// expiry sweeps run in evictExpired so Close can stop them
		s.cache = cache.New(cfg.CacheTTL, cache.NoExpiration)
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.evictExpired(cfg.CacheTTL * 2)
	}
	return s, nil
}

func (s *Service) evictExpired(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cache.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}

// Close stops the cache cleanup goroutine and drops cached results. Leads keeps working
// afterwards but expired entries are no longer swept.
func (s *Service) Close() {
	if s.cache == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.cache.Flush()
	})
}

// Normalizer returns the pipeline parameters in use.
func (s *Service) Normalizer() Normalizer {
	return s.normalizer
}

type result struct {
	leads [][]float64
	err   error
}

// Leads returns the normalized (leads, samples) array for src. Exceeding the timeout yields
// ErrTimeout; the abandoned computation still finishes in the background and fills the cache.
func (s *Service) Leads(ctx context.Context, src Source, opts Options) ([][]float64, error) {
	key := cacheKey(src, opts)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.CacheHit()
			return v.([][]float64), nil
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, contextError(src.Path, err)
	}

	format := src.Format
	if format == "" {
		format = DetectFormat(src.Path)
	}

	done := make(chan result, 1)
	start := time.Now()
	s.metrics.Started()
	go func() {
		defer s.sem.Release(1)
		defer s.metrics.Finished()

		leads, err := s.normalizer.NormalizeFile(src, opts)
		elapsed := time.Since(start)
		s.metrics.ObserveNormalization(string(format), Category(err), elapsed)
		if err == nil && s.cache != nil {
			s.cache.SetDefault(key, leads)
		}
		s.logger.Debug("waveform normalized",
			"path", src.Path,
			"format", format,
			"elapsed", elapsed,
			"error", err,
		)
		done <- result{leads: leads, err: err}
	}()

	select {
	case r := <-done:
		return r.leads, r.err
	case <-ctx.Done():
		s.logger.Warn("waveform normalization abandoned", "path", src.Path, "error", ctx.Err())
		return nil, contextError(src.Path, ctx.Err())
	}
}

func contextError(path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: "normalize", Path: path, Kind: ErrTimeout, Err: err}
	}
	return fmt.Errorf("normalize %s: %w", path, err)
}

func cacheKey(src Source, opts Options) string {
	return fmt.Sprintf("%s|%s|%g|%t|%g|%g", src.Path, src.Format, src.FS, opts.Denoise, opts.BandPass.Low, opts.BandPass.High)
}
