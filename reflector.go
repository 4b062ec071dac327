package phpreflect

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jward/phpreflect/internal/builtin"
	"github.com/jward/phpreflect/internal/expr"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/locator"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/observability"
	"github.com/jward/phpreflect/internal/parser"
	"github.com/jward/phpreflect/internal/phpdoc"
	"github.com/jward/phpreflect/internal/registry"
	"github.com/jward/phpreflect/internal/store"
)

type CacheStats = store.Stats

// Option configures a Reflector.
type Option func(*options)

type options struct {
	paths     []string
	include   []string
	exclude   []string
	composer  string
	psr4      map[string][]string
	code      []locator.Resource
	cachePath string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// WithPaths scans directories for PHP files.
func WithPaths(paths ...string) Option {
	return func(o *options) { o.paths = append(o.paths, paths...) }
}

// WithInclude sets the glob patterns a scanned file must match, relative to
// its root. Defaults to "**.php".
func WithInclude(patterns ...string) Option {
	return func(o *options) { o.include = patterns }
}

func WithExclude(patterns ...string) Option {
	return func(o *options) { o.exclude = patterns }
}

// WithComposer honours the autoload sections of root/composer.json.
func WithComposer(root string) Option {
	return func(o *options) { o.composer = root }
}

// WithPsr4 maps namespace prefixes to directories.
func WithPsr4(mapping map[string][]string) Option {
	return func(o *options) { o.psr4 = mapping }
}

// WithCode serves code for path from memory. In-memory sources are asked
// before anything on disk.
func WithCode(path string, code []byte) Option {
	return func(o *options) { o.code = append(o.code, locator.Source(path, code)) }
}

// WithCachePath keeps parsed declarations in a SQLite database at path.
func WithCachePath(path string) Option {
	return func(o *options) { o.cachePath = path }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Reflector answers reflection queries for one PHP code base. It is safe for
// concurrent use; queries are serialised.
type Reflector struct {
	mu *sync.Mutex

	parser   *parser.Parser
	locators locator.Locators
	dirs     []*locator.Directory
	store    *store.Store
	host     *builtin.Environment
	parsers  metadata.Parsers
	metrics  *observability.Metrics
	logger   *slog.Logger

	preload []locator.Resource
	session *registry.Session
	owner   bool
}

// New builds a Reflector. Directory and composer sources are scanned
// eagerly; everything else is parsed on first use.
func New(ctx context.Context, opts ...Option) (*Reflector, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetrics()
	}

	r := &Reflector{
		mu:      &sync.Mutex{},
		parser:  parser.New(parser.WithLogger(o.logger)),
		host:    builtin.New(),
		parsers: metadata.Parsers{metadata.AttributeParser{}, phpdoc.NewParser()},
		metrics: o.metrics,
		logger:  o.logger,
		owner:   true,
	}
	if err := r.buildLocators(ctx, o); err != nil {
		return nil, err
	}
	if o.cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(o.cachePath), 0o755); err != nil {
			return nil, fmt.Errorf("phpreflect: create cache dir: %w", err)
		}
		s, err := store.NewStore(o.cachePath, store.WithLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("phpreflect: open cache: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("phpreflect: migrate cache: %w", err)
		}
		r.store = s
	}
	r.session = r.newSession()
	return r, nil
}

func (r *Reflector) buildLocators(ctx context.Context, o options) error {
	if len(o.code) > 0 {
		mem := locator.NewMemory(r.parser)
		for _, res := range o.code {
			if err := mem.Add(ctx, res.Path, res.Code); err != nil {
				return fmt.Errorf("phpreflect: index %s: %w", res.Path, err)
			}
		}
		r.locators = append(r.locators, mem)
	}

	var dirOpts []locator.DirectoryOption
	if len(o.include) > 0 {
		dirOpts = append(dirOpts, locator.WithInclude(o.include...))
	}
	if len(o.exclude) > 0 {
		dirOpts = append(dirOpts, locator.WithExclude(o.exclude...))
	}
	dirOpts = append(dirOpts, locator.WithLogger(o.logger))

	if o.composer != "" {
		ls, err := locator.NewComposer(ctx, o.composer, r.parser, dirOpts...)
		if err != nil {
			return fmt.Errorf("phpreflect: composer: %w", err)
		}
		for _, l := range ls {
			if d, ok := l.(*locator.Directory); ok {
				r.dirs = append(r.dirs, d)
			}
		}
		r.locators = append(r.locators, ls...)
	}
	if len(o.psr4) > 0 {
		r.locators = append(r.locators, locator.NewPsr4(o.psr4))
	}
	if len(o.paths) > 0 {
		d, err := locator.NewDirectory(ctx, o.paths, r.parser, dirOpts...)
		if err != nil {
			return fmt.Errorf("phpreflect: scan: %w", err)
		}
		r.dirs = append(r.dirs, d)
		r.locators = append(r.locators, d)
	}
	return nil
}

func (r *Reflector) newSession() *registry.Session {
	opts := []registry.Option{
		registry.WithLocator(r.locators),
		registry.WithHost(r.host),
		registry.WithMetadataParsers(r.parsers),
		registry.WithMetrics(r.metrics),
		registry.WithLogger(r.logger),
	}
	if r.store != nil {
		opts = append(opts, registry.WithCache(r.store))
	}
	return registry.New(r.parser, opts...)
}

func (r *Reflector) ReflectClass(ctx context.Context, name string) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ReflectClass(ctx, name)
}

// ReflectAnonymousClass reflects the anonymous class declared in file at
// line. A column of 0 accepts the only anonymous class on the line; when
// there are several the error lists their columns.
func (r *Reflector) ReflectAnonymousClass(ctx context.Context, file string, line, column int) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ReflectAnonymousClass(ctx, file, line, column)
}

// AnonymousColumns lists the columns of the anonymous classes on a line.
func (r *Reflector) AnonymousColumns(ctx context.Context, file string, line int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.AnonymousColumns(ctx, file, line)
}

func (r *Reflector) ReflectFunction(ctx context.Context, name string) (*Function, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ReflectFunction(ctx, name)
}

func (r *Reflector) ReflectConstant(ctx context.Context, name string) (*Constant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ReflectConstant(ctx, name)
}

// EvaluationContext resolves the constants that expressions reference
// through this Reflector. It follows Invalidate: after a reset, lookups go
// to the new session.
func (r *Reflector) EvaluationContext(ctx context.Context) EvaluationContext {
	return lockedContext{r: r, ctx: ctx}
}

type lockedContext struct {
	r   *Reflector
	ctx context.Context
}

func (c lockedContext) Constant(k id.Constant) (expr.Value, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	return c.r.session.EvaluationContext(c.ctx).Constant(k)
}

func (c lockedContext) ClassConstant(k id.ClassConstant) (expr.Value, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	return c.r.session.EvaluationContext(c.ctx).ClassConstant(k)
}

// WithFile returns a Reflector sharing this one's sources and cache whose
// fresh session has already parsed path. Declarations in path take
// priority over located ones.
func (r *Reflector) WithFile(ctx context.Context, path string) (*Reflector, error) {
	return r.derive(ctx, locator.File(path))
}

// WithSource is WithFile for code held in memory.
func (r *Reflector) WithSource(ctx context.Context, path string, code []byte) (*Reflector, error) {
	return r.derive(ctx, locator.Source(path, code))
}

func (r *Reflector) derive(ctx context.Context, res locator.Resource) (*Reflector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := *r
	d.owner = false
	d.preload = append(append([]locator.Resource(nil), r.preload...), res)
	session, err := d.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	d.session = session
	return &d, nil
}

func (r *Reflector) loadSession(ctx context.Context) (*registry.Session, error) {
	s := r.newSession()
	for _, res := range r.preload {
		if err := s.AddResource(ctx, res); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Invalidate forgets everything known about paths: cached declarations,
// directory index entries and resolved models. Paths that no longer exist
// are dropped from the index; the others are re-indexed.
func (r *Reflector) Invalidate(ctx context.Context, paths ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, path := range paths {
		if r.store != nil {
			if err := r.store.InvalidatePath(ctx, path); err != nil {
				return err
			}
		}
		_, statErr := os.Stat(path)
		for _, d := range r.dirs {
			if !d.Covers(path) {
				continue
			}
			if statErr != nil {
				d.Remove(path)
				continue
			}
			if err := d.Update(ctx, path); err != nil {
				return fmt.Errorf("phpreflect: reindex %s: %w", path, err)
			}
		}
	}

	session, err := r.loadSession(ctx)
	if err != nil {
		return err
	}
	r.session = session
	r.logger.Debug("session reset", "paths", len(paths))
	return nil
}

// Roots lists the scanned directories.
func (r *Reflector) Roots() []string {
	var roots []string
	for _, d := range r.dirs {
		roots = append(roots, d.Roots()...)
	}
	return roots
}

// Covers reports whether a scanned directory would index path.
func (r *Reflector) Covers(path string) bool {
	for _, d := range r.dirs {
		if d.Covers(path) {
			return true
		}
	}
	return false
}

// CacheStats summarises the declaration cache. It fails when no cache is
// configured.
func (r *Reflector) CacheStats(ctx context.Context) (CacheStats, error) {
	if r.store == nil {
		return CacheStats{}, fmt.Errorf("phpreflect: no cache configured")
	}
	return r.store.Stats(ctx)
}

func (r *Reflector) Metrics() *Metrics { return r.metrics }

// Close releases the cache. Reflectors returned by WithFile and WithSource
// share it and do not close it.
func (r *Reflector) Close() error {
	if !r.owner || r.store == nil {
		return nil
	}
	return r.store.Close()
}

