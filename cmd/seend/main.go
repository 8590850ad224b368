package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/haukened/rr-seen/internal/seen/common/clock"
	"github.com/haukened/rr-seen/internal/seen/common/log"
	"github.com/haukened/rr-seen/internal/seen/common/utils"
	"github.com/haukened/rr-seen/internal/seen/config"
	"github.com/haukened/rr-seen/internal/seen/domain"
	"github.com/haukened/rr-seen/internal/seen/filter"
	"github.com/haukened/rr-seen/internal/seen/infra/seeds"
	"github.com/haukened/rr-seen/internal/seen/repos/visited"
	"github.com/haukened/rr-seen/internal/seen/repos/visited/bolt"
	"github.com/haukened/rr-seen/internal/seen/repos/visited/lru"
)

const (
	version = "0.1.0-dev"
	appName = "seend"
)

// Application holds all the components of the visited-set daemon.
type Application struct {
	config *config.AppConfig
	store  visited.Store
	filter *filter.Locked
	repo   visited.Repository
	seeds  []domain.Request
	scope  string
	logger log.Logger
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":             appName,
		"version":         version,
		"env":             cfg.Env,
		"log_level":       cfg.Log.Level,
		"filter_bits":     cfg.Filter.Bits,
		"filter_hashes":   cfg.Filter.Hashes,
		"filter_expected": cfg.Filter.Expected,
		"filter_fp_rate":  cfg.Filter.FPRate,
		"store_path":      cfg.Store.Path,
		"cache_size":      cfg.Cache.Size,
		"seeds_dir":       cfg.Seeds.Dir,
		"scope_site":      cfg.Scope.Site,
	}, "Starting seend")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	runErr := app.Run(ctx, os.Stdin, os.Stdout)
	if err := app.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing visited store")
	}
	if runErr != nil {
		log.Fatal(map[string]any{"error": runErr}, "seend failed")
	}

	log.Info(nil, "seend stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	bf, err := buildFilter(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build filter: %w", err)
	}
	log.Info(map[string]any{
		"bits":   bf.NumBits(),
		"hashes": bf.HashCount(),
		"expected_fp_rate": filter.FalsePositiveRate(
			bf.NumBits(), bf.HashCount(), cfg.Filter.Expected),
	}, "Visited filter configured")

	cache, err := lru.New(cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict cache: %w", err)
	}

	var requests []domain.Request
	if cfg.Seeds.Dir != "" {
		requests, err = seeds.LoadSeedDirectory(cfg.Seeds.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed directory: %w", err)
		}
		log.Info(map[string]any{
			"seeds_dir": cfg.Seeds.Dir,
			"seeds":     len(requests),
		}, "Seed files loaded")
	}

	scope, err := scopeOrigin(cfg.Scope.Site)
	if err != nil {
		return nil, fmt.Errorf("invalid scope site: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	store, err := bolt.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open visited store: %w", err)
	}

	repo, err := visited.NewRepository(visited.Options{
		Store:  store,
		Cache:  cache,
		Filter: bf,
		Clock:  &clock.RealClock{},
		Logger: logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build visited repository: %w", err)
	}

	return &Application{
		config: cfg,
		store:  store,
		filter: bf,
		repo:   repo,
		seeds:  requests,
		scope:  scope,
		logger: logger,
	}, nil
}

// scopeOrigin turns a configured site (URL or bare host) into an origin that
// utils.SameSite can compare against. Empty means unscoped.
func scopeOrigin(site string) (string, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return "", nil
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	origin, err := utils.NormalizeOrigin(site)
	if err != nil {
		return "", err
	}
	if utils.SiteOf(origin) == "" {
		return "", fmt.Errorf("%q has no host", site)
	}
	return origin, nil
}

// buildFilter uses explicit geometry when configured and sizes from the
// expected element count otherwise.
func buildFilter(cfg config.FilterConfig) (*filter.Locked, error) {
	var (
		f   *filter.Filter
		err error
	)
	if cfg.Explicit() {
		f, err = filter.New(cfg.Bits, cfg.Hashes)
	} else {
		f, err = filter.NewWithEstimates(cfg.Expected, cfg.FPRate)
	}
	if err != nil {
		return nil, err
	}
	return filter.NewLocked(f), nil
}

// Run warms the filter from the store, visits the seeds, then streams
// candidate requests from in. Each line is either a URL or "METHOD URL";
// lines that name a never-visited request are written to out as canonical
// URLs. Run returns nil when in is exhausted or ctx is cancelled.
func (app *Application) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	warmed, err := app.repo.Warm()
	if err != nil {
		return fmt.Errorf("failed to warm filter: %w", err)
	}
	app.logger.Info(map[string]any{
		"keys":       warmed,
		"fill_ratio": app.filter.FillRatio(),
	}, "Visited filter warmed")

	w := bufio.NewWriter(out)
	defer w.Flush()

	for _, req := range app.seeds {
		if err := app.emit(w, req); err != nil {
			return err
		}
	}

	// Scan blocks until in yields a line or closes; on cancellation a
	// closable reader is closed so the scanning goroutine can exit.
	if c, ok := in.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			app.logStats()
			return nil
		case line, ok := <-lines:
			if !ok {
				app.logStats()
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed reading input: %w", err)
					}
				default:
				}
				return nil
			}
			req, err := parseLine(line)
			if err != nil {
				app.logger.Warn(map[string]any{"line": line, "error": err}, "Skipping invalid input line")
				continue
			}
			if req.URL == "" {
				continue
			}
			if app.scope != "" && !utils.SameSite(app.scope, req.URL) {
				app.logger.Debug(map[string]any{"url": req.URL, "scope": app.scope}, "Skipping off-site candidate")
				continue
			}
			if err := app.emit(w, req); err != nil {
				return err
			}
		}
	}
}

// emit visits req and writes its URL if it was new. Store failures are logged
// and the request is skipped.
func (app *Application) emit(w *bufio.Writer, req domain.Request) error {
	isNew, err := app.repo.Visit(req.Fingerprint())
	if err != nil {
		app.logger.Error(map[string]any{"url": req.URL, "error": err}, "Failed to record visit")
		return nil
	}
	if !isNew {
		fields := map[string]any{"url": req.URL}
		if ts, ok, err := app.store.VisitedAt(req.Fingerprint()); err == nil && ok {
			fields["first_visit"] = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		app.logger.Debug(fields, "Already visited")
		return nil
	}
	if _, err := fmt.Fprintln(w, req.URL); err != nil {
		return fmt.Errorf("failed writing output: %w", err)
	}
	return w.Flush()
}

// parseLine turns "URL" or "METHOD URL" into a canonical Request. Blank lines
// yield a zero Request and no error.
func parseLine(line string) (domain.Request, error) {
	fields := strings.Fields(line)
	var method, raw string
	switch len(fields) {
	case 0:
		return domain.Request{}, nil
	case 1:
		raw = fields[0]
	case 2:
		method, raw = fields[0], fields[1]
	default:
		return domain.Request{}, fmt.Errorf("expected \"URL\" or \"METHOD URL\", got %d fields", len(fields))
	}
	canonical, err := utils.CanonicalURL(raw)
	if err != nil {
		return domain.Request{}, err
	}
	return domain.NewRequest(canonical, method, nil)
}

func (app *Application) logStats() {
	s := app.repo.RepoStats()
	app.logger.Info(map[string]any{
		"checks":           s.Checks,
		"filter_negatives": s.FilterNegatives,
		"cache_hits":       s.CacheHits,
		"cache_misses":     s.CacheMisses,
		"cache_evictions":  s.CacheEvictions,
		"store_errors":     s.StoreErrors,
		"visited":          s.Visited,
		"store_keys":       s.Store.Keys,
		"fill_ratio":       app.filter.FillRatio(),
	}, "Visited set statistics")
}

// Close releases the visited store.
func (app *Application) Close() error {
	return app.store.Close()
}
