// Package locator maps symbol names to the source files that declare them.
//
// Locators only point at candidate files. Whether a file really declares the
// symbol is decided after parsing, so a locator may return false positives
// (a PSR-4 path for a class that lives elsewhere) but should not miss files
// it claims to cover.
package locator

import (
	"context"
	"fmt"
	"os"
)

// Resource is a located source file. Code is set for in-memory sources; for
// everything else the file at Path is read on demand.
type Resource struct {
	Path string
	Code []byte
}

func File(path string) Resource { return Resource{Path: path} }

func Source(path string, code []byte) Resource {
	return Resource{Path: path, Code: code}
}

// InMemory reports whether the resource carries its own code.
func (r Resource) InMemory() bool { return r.Code != nil }

// Read returns the resource's code.
func (r Resource) Read() ([]byte, error) {
	if r.Code != nil {
		return r.Code, nil
	}
	code, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("locator: read %s: %w", r.Path, err)
	}
	return code, nil
}

type ClassLocator interface {
	LocateClass(ctx context.Context, name string) (Resource, bool, error)
}

type FunctionLocator interface {
	LocateFunction(ctx context.Context, name string) (Resource, bool, error)
}

type ConstantLocator interface {
	LocateConstant(ctx context.Context, name string) (Resource, bool, error)
}

// Locators chains locators, asking each in order. Entries may implement any
// subset of the locator interfaces.
type Locators []any

func (ls Locators) LocateClass(ctx context.Context, name string) (Resource, bool, error) {
	for _, l := range ls {
		cl, ok := l.(ClassLocator)
		if !ok {
			continue
		}
		res, found, err := cl.LocateClass(ctx, name)
		if err != nil || found {
			return res, found, err
		}
	}
	return Resource{}, false, nil
}

func (ls Locators) LocateFunction(ctx context.Context, name string) (Resource, bool, error) {
	for _, l := range ls {
		fl, ok := l.(FunctionLocator)
		if !ok {
			continue
		}
		res, found, err := fl.LocateFunction(ctx, name)
		if err != nil || found {
			return res, found, err
		}
	}
	return Resource{}, false, nil
}

func (ls Locators) LocateConstant(ctx context.Context, name string) (Resource, bool, error) {
	for _, l := range ls {
		cl, ok := l.(ConstantLocator)
		if !ok {
			continue
		}
		res, found, err := cl.LocateConstant(ctx, name)
		if err != nil || found {
			return res, found, err
		}
	}
	return Resource{}, false, nil
}
