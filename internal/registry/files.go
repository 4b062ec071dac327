package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/locator"
	"github.com/jward/phpreflect/internal/observability"
)

// Parser turns a source file into declarations.
type Parser interface {
	Parse(ctx context.Context, res locator.Resource) ([]declaration.Declaration, error)
}

// Cache persists declarations between sessions. Get must not return
// declarations of files that changed since they were stored.
type Cache interface {
	Get(ctx context.Context, sym id.ID) (declaration.Declaration, bool, error)
	Put(ctx context.Context, path string, code []byte, decls []declaration.Declaration) error
}

// FileParser parses each file at most once per session and writes the
// results through to the cache.
type FileParser struct {
	parser  Parser
	cache   Cache
	metrics *observability.Metrics
	logger  *slog.Logger
	parsed  map[string]bool
}

func newFileParser(p Parser, cache Cache, metrics *observability.Metrics, logger *slog.Logger) *FileParser {
	return &FileParser{parser: p, cache: cache, metrics: metrics, logger: logger, parsed: make(map[string]bool)}
}

// Parsed reports whether path was parsed in this session.
func (f *FileParser) Parsed(path string) bool { return f.parsed[path] }

// Parse returns the declarations of res, or nil if the file was already
// parsed.
func (f *FileParser) Parse(ctx context.Context, res locator.Resource) (decls []declaration.Declaration, err error) {
	if f.parsed[res.Path] {
		return nil, nil
	}
	ctx, span := observability.StartSpan(ctx, "registry.FileParser.Parse", attribute.String("path", res.Path))
	defer func() { observability.EndSpan(span, err) }()

	code, err := res.Read()
	if err != nil {
		return nil, errs.Unreadable(res.Path, err)
	}
	start := time.Now()
	decls, err = f.parser.Parse(ctx, locator.Source(res.Path, code))
	if err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", res.Path, err)
	}
	elapsed := time.Since(start)
	f.parsed[res.Path] = true
	f.metrics.FilesParsed.Inc()
	f.metrics.ParseSeconds.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("declarations", len(decls)))
	f.logger.Debug("parsed file", "path", res.Path, "declarations", len(decls), "elapsed", elapsed)

	if f.cache != nil && !res.InMemory() {
		if err := f.cache.Put(ctx, res.Path, code, decls); err != nil {
			f.logger.Warn("failed to cache declarations", "path", res.Path, "error", err)
		}
	}
	return decls, nil
}

func (f *FileParser) cached(ctx context.Context, sym id.ID) (declaration.Declaration, bool) {
	if f.cache == nil {
		return nil, false
	}
	d, ok, err := f.cache.Get(ctx, sym)
	if err != nil {
		f.logger.Warn("declaration cache lookup failed", "symbol", sym.Describe(), "error", err)
		return nil, false
	}
	if !ok {
		f.metrics.CacheRequests.WithLabelValues(observability.CacheMiss).Inc()
		return nil, false
	}
	f.metrics.CacheRequests.WithLabelValues(observability.CacheHit).Inc()
	f.logger.Debug("declaration cache hit", "symbol", sym.Describe())
	return d, true
}
