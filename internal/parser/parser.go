// Package parser turns PHP source into declarations using tree-sitter.
//
// Only the declaration surface is read: namespaces, imports, class-likes,
// functions and constants, with their signatures, docblocks, attributes and
// constant expressions. Method and function bodies are scanned for yield and
// for anonymous classes but otherwise ignored.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/jward/phpreflect/internal/declaration"
	"github.com/jward/phpreflect/internal/id"
	"github.com/jward/phpreflect/internal/locator"
)

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// Parser is safe for concurrent use. Tree-sitter parsers are pooled since
// they are not.
type Parser struct {
	logger *slog.Logger
	pool   sync.Pool
}

func New(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	lang := php.GetLanguage()
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(lang)
		return sp
	}
	return p
}

var _ locator.Indexer = (*Parser)(nil)

// Parse returns every declaration in res, in source order. Anonymous classes
// are included.
func (p *Parser) Parse(ctx context.Context, res locator.Resource) ([]declaration.Declaration, error) {
	f, err := p.parse(ctx, res)
	if err != nil {
		return nil, err
	}
	return f.decls, nil
}

// Names lists the named top-level symbols of res.
func (p *Parser) Names(ctx context.Context, res locator.Resource) (locator.Names, error) {
	decls, err := p.Parse(ctx, res)
	if err != nil {
		return locator.Names{}, err
	}
	var names locator.Names
	for _, d := range decls {
		switch d := d.(type) {
		case *declaration.Class:
			if c, ok := d.Context.Self.(id.NamedClass); ok {
				names.Classes = append(names.Classes, c.Name)
			}
		case *declaration.Function:
			if fn, ok := d.Context.ID.(id.NamedFunction); ok {
				names.Functions = append(names.Functions, fn.Name)
			}
		case *declaration.Constant:
			names.Constants = append(names.Constants, d.Name)
		}
	}
	return names, nil
}

func (p *Parser) parse(ctx context.Context, res locator.Resource) (*file, error) {
	code, err := res.Read()
	if err != nil {
		return nil, err
	}
	sp := p.pool.Get().(*sitter.Parser)
	defer func() {
		sp.Reset()
		p.pool.Put(sp)
	}()

	tree, err := parseTree(ctx, sp, code)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", res.Path, err)
	}
	defer tree.Close()

	f := &file{
		logger: p.logger,
		src:    code,
		source: declaration.FileSource(res.Path),
	}
	root := tree.RootNode()
	if enums := brokenEnums(root, code); len(enums) > 0 {
		if fixed, consts := enumSources(code, enums); fixed != nil {
			fixedTree, err := parseTree(ctx, sp, fixed)
			if err != nil {
				return nil, fmt.Errorf("parser: %s: %w", res.Path, err)
			}
			defer fixedTree.Close()
			constTree, err := parseTree(ctx, sp, consts)
			if err != nil {
				return nil, fmt.Errorf("parser: %s: %w", res.Path, err)
			}
			defer constTree.Close()
			root = fixedTree.RootNode()
			f.enumConsts = classBodyConstants(constTree.RootNode())
		} else {
			p.logger.Debug("cannot recover enum constants", "path", res.Path)
		}
	}
	if root.HasError() {
		// Tree-sitter recovers from syntax errors; declarations outside the
		// broken region are still usable.
		p.logger.Debug("syntax errors in file", "path", res.Path)
	}
	if err := f.statements(root); err != nil {
		return nil, fmt.Errorf("parser: %s: %w", res.Path, err)
	}
	return f, nil
}

// parseTree checks ctx itself instead of handing it to tree-sitter, whose
// cancellation watcher can outlive the parse and leave a pooled parser
// unusable.
func parseTree(ctx context.Context, sp *sitter.Parser, code []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sp.ParseCtx(context.WithoutCancel(ctx), nil, code)
}
