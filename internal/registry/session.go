package registry

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/inherit"
	"github.com/jward/phpreflect/internal/locator"
	"github.com/jward/phpreflect/internal/metadata"
	"github.com/jward/phpreflect/internal/model"
	"github.com/jward/phpreflect/internal/observability"
)

// Locator finds the files that declare symbols.
type Locator interface {
	locator.ClassLocator
	locator.FunctionLocator
	locator.ConstantLocator
}

// Host supplies declarations for symbols without PHP source.
type Host interface {
	Class(name string) (*declaration.Class, bool)
	Function(name string) (*declaration.Function, bool)
	Constant(name string) (*declaration.Constant, bool)
}

type Option func(*Session)

func WithLocator(l Locator) Option {
	return func(s *Session) { s.locator = l }
}

func WithHost(h Host) Option {
	return func(s *Session) { s.host = h }
}

func WithCache(c Cache) Option {
	return func(s *Session) { s.cache = c }
}

// WithMetadataParsers sets the metadata contributors, folded in order.
func WithMetadataParsers(ps metadata.Parsers) Option {
	return func(s *Session) { s.parsers = ps }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

type anonymousLine struct {
	file string
	line int
}

// Session owns the registries of one reflection session.
type Session struct {
	parser  Parser
	locator Locator
	host    Host
	cache   Cache
	parsers metadata.Parsers
	metrics *observability.Metrics
	logger  *slog.Logger

	files      *FileParser
	engine     *inherit.Engine
	classes    *ClassRegistry
	functions  *FunctionRegistry
	constants  *ConstantRegistry
	anonymous  map[anonymousLine][]int
	evaluating map[string]bool
}

// New creates a session parsing located files with p.
func New(p Parser, opts ...Option) *Session {
	s := &Session{
		parser:     p,
		locator:    locator.Locators{},
		host:       noHost{},
		logger:     slog.Default(),
		classes:    newRegistry[*declaration.Class, *model.Class](),
		functions:  newRegistry[*declaration.Function, *model.Function](),
		constants:  newRegistry[*declaration.Constant, *model.Constant](),
		anonymous:  make(map[anonymousLine][]int),
		evaluating: make(map[string]bool),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	s.files = newFileParser(p, s.cache, s.metrics, s.logger)
	s.engine = inherit.New(s, inherit.WithLogger(s.logger))
	return s
}

func (s *Session) Metrics() *observability.Metrics { return s.metrics }
func (s *Session) Classes() *ClassRegistry         { return s.classes }
func (s *Session) Functions() *FunctionRegistry    { return s.functions }
func (s *Session) Constants() *ConstantRegistry    { return s.constants }

// AddResource parses res and registers its declarations. Declarations
// already known keep priority.
func (s *Session) AddResource(ctx context.Context, res locator.Resource) error {
	decls, err := s.files.Parse(ctx, res)
	if err != nil {
		return err
	}
	for _, d := range decls {
		s.register(d)
	}
	return nil
}

func (s *Session) register(d declaration.Declaration) {
	switch d := d.(type) {
	case *declaration.Class:
		if s.classes.declare(d.ID().Encode(), d) {
			if anon, ok := d.ID().(id.AnonymousClass); ok {
				s.addAnonymous(anon)
			}
		}
	case *declaration.Function:
		s.functions.declare(d.ID().Encode(), d)
	case *declaration.Constant:
		s.constants.declare(d.ID().Encode(), d)
	}
}

func (s *Session) addAnonymous(c id.AnonymousClass) {
	key := anonymousLine{file: c.File, line: c.Line}
	columns := s.anonymous[key]
	i := sort.SearchInts(columns, c.Column)
	if i < len(columns) && columns[i] == c.Column {
		return
	}
	columns = append(columns, 0)
	copy(columns[i+1:], columns[i:])
	columns[i] = c.Column
	s.anonymous[key] = columns
}

// AnonymousColumns lists the columns of the anonymous classes declared on a
// line, ascending. The file is parsed if needed.
func (s *Session) AnonymousColumns(ctx context.Context, file string, line int) ([]int, error) {
	if err := s.ensureFile(ctx, file); err != nil {
		return nil, err
	}
	return append([]int(nil), s.anonymous[anonymousLine{file: file, line: line}]...), nil
}

func (s *Session) ensureFile(ctx context.Context, path string) error {
	if s.files.Parsed(path) {
		return nil
	}
	res := locator.File(path)
	if fl, ok := s.locator.(locator.FileLocator); ok {
		located, found, err := fl.LocateFile(ctx, path)
		if err != nil {
			return err
		}
		if found {
			res = located
		}
	}
	return s.AddResource(ctx, res)
}

// resolve is the shared lookup: memoised model, cycle check, lazy load,
// build.
func resolve[D declaration.Declaration, M any](
	ctx context.Context,
	s *Session,
	r *Registry[D, M],
	sym id.ID,
	kind string,
	load func(context.Context) error,
	build func(context.Context, D) (M, error),
) (M, error) {
	var zero M
	e := r.entry(sym.Encode())
	if e.resolved {
		return e.model, nil
	}
	if e.resolving {
		return zero, errs.Cycle(sym)
	}
	if !e.declared {
		if err := load(ctx); err != nil {
			return zero, err
		}
		if !e.declared {
			return zero, errs.NotFound(sym)
		}
	}

	e.resolving = true
	m, err := build(ctx, e.decl)
	e.resolving = false
	if err != nil {
		return zero, err
	}
	e.model, e.resolved = m, true
	s.metrics.Resolutions.WithLabelValues(kind).Inc()
	s.logger.Debug("resolved symbol", "symbol", sym.Describe())
	return m, nil
}

// ReflectClass resolves a class-like by name. Names produced for anonymous
// classes are accepted too.
func (s *Session) ReflectClass(ctx context.Context, name string) (*model.Class, error) {
	return s.ReflectClassID(ctx, id.NamedClass{Name: name})
}

// ReflectAnonymousClass resolves the anonymous class at file:line. A zero
// column selects the only anonymous class on that line; several candidates
// make the lookup ambiguous.
func (s *Session) ReflectAnonymousClass(ctx context.Context, file string, line, column int) (*model.Class, error) {
	c := id.AnonymousClass{File: file, Line: line, Column: column}
	if c.HasColumn() {
		return s.ReflectClassID(ctx, c)
	}
	columns, err := s.AnonymousColumns(ctx, file, line)
	if err != nil {
		return nil, err
	}
	switch len(columns) {
	case 0:
		return nil, errs.NotFound(c)
	case 1:
		return s.ReflectClassID(ctx, c.WithColumn(columns[0]))
	}
	return nil, errs.Ambiguous(c, columns)
}

func (s *Session) ReflectClassID(ctx context.Context, c id.Class) (*model.Class, error) {
	if named, ok := c.(id.NamedClass); ok {
		if anon, ok := id.ParseAnonymousClassName(named.Name); ok {
			c = anon
		}
	}
	return resolve(ctx, s, s.classes, c, observability.KindClass,
		func(ctx context.Context) error { return s.loadClass(ctx, c) },
		s.buildClass)
}

func (s *Session) loadClass(ctx context.Context, c id.Class) error {
	switch c := c.(type) {
	case id.AnonymousClass:
		if !c.HasColumn() {
			return nil
		}
		return s.ensureFile(ctx, c.File)
	case id.NamedClass:
		return s.load(ctx, c,
			func() bool { return s.classes.Declared(c.Encode()) },
			func() (locator.Resource, bool, error) { return s.locator.LocateClass(ctx, c.Name) },
			func() (declaration.Declaration, bool) { return asDeclaration(s.host.Class(c.Name)) })
	}
	return nil
}

func (s *Session) buildClass(ctx context.Context, d *declaration.Class) (class *model.Class, err error) {
	ctx, span := observability.StartSpan(ctx, "registry.Session.ResolveClass", attribute.String("class", d.Name()))
	defer func() { observability.EndSpan(span, err) }()

	meta, err := s.parsers.ParseClass(d)
	if err != nil {
		return nil, err
	}
	return s.engine.Resolve(ctx, d, meta)
}

func (s *Session) ReflectFunction(ctx context.Context, name string) (*model.Function, error) {
	f := id.NamedFunction{Name: name}
	return resolve(ctx, s, s.functions, f, observability.KindFunction,
		func(ctx context.Context) error {
			return s.load(ctx, f,
				func() bool { return s.functions.Declared(f.Encode()) },
				func() (locator.Resource, bool, error) { return s.locator.LocateFunction(ctx, name) },
				func() (declaration.Declaration, bool) { return asDeclaration(s.host.Function(name)) })
		},
		func(_ context.Context, d *declaration.Function) (*model.Function, error) {
			meta, err := s.parsers.ParseFunction(d)
			if err != nil {
				return nil, err
			}
			return model.DeclareFunction(d, meta), nil
		})
}

func (s *Session) ReflectConstant(ctx context.Context, name string) (*model.Constant, error) {
	c := id.Constant{Name: name}
	return resolve(ctx, s, s.constants, c, observability.KindConstant,
		func(ctx context.Context) error {
			return s.load(ctx, c,
				func() bool { return s.constants.Declared(c.Encode()) },
				func() (locator.Resource, bool, error) { return s.locator.LocateConstant(ctx, name) },
				func() (declaration.Declaration, bool) { return asDeclaration(s.host.Constant(name)) })
		},
		func(_ context.Context, d *declaration.Constant) (*model.Constant, error) {
			meta, err := s.parsers.ParseConstant(d)
			if err != nil {
				return nil, err
			}
			return model.DeclareConstant(d, meta), nil
		})
}

// load tries the cache, then the locator, then the host until declared
// reports success.
func (s *Session) load(
	ctx context.Context,
	sym id.ID,
	declared func() bool,
	locate func() (locator.Resource, bool, error),
	host func() (declaration.Declaration, bool),
) error {
	if d, ok := s.files.cached(ctx, sym); ok {
		s.register(d)
		if declared() {
			return nil
		}
	}
	res, found, err := locate()
	if err != nil {
		return err
	}
	if found {
		if err := s.AddResource(ctx, res); err != nil {
			return err
		}
		if declared() {
			return nil
		}
		s.logger.Debug("located file does not declare symbol", "symbol", sym.Describe(), "path", res.Path)
	}
	if d, ok := host(); ok {
		s.register(d)
	}
	return nil
}

// ClassSource for the inheritance engine.
var _ inherit.ClassSource = (*Session)(nil)

func asDeclaration[D declaration.Declaration](d D, ok bool) (declaration.Declaration, bool) {
	if !ok {
		return nil, false
	}
	return d, true
}

type noHost struct{}

func (noHost) Class(string) (*declaration.Class, bool)       { return nil, false }
func (noHost) Function(string) (*declaration.Function, bool) { return nil, false }
func (noHost) Constant(string) (*declaration.Constant, bool) { return nil, false }
