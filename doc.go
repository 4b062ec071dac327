// Package phpreflect reflects PHP code without loading it.
//
// Declarations are parsed with tree-sitter and resolved lazily: asking for a
// class parses the file a locator points at, then resolves its parents,
// interfaces and traits the same way. The resulting models expose members
// with inherited and declared facts merged, types with native, tentative and
// docblock provenance, and constant expressions that evaluate on demand.
//
// # Usage
//
//	r, err := phpreflect.New(ctx,
//		phpreflect.WithPaths("src"),
//		phpreflect.WithCachePath(".phpreflect/cache.db"),
//	)
//	if err != nil { ... }
//	defer r.Close()
//
//	class, err := r.ReflectClass(ctx, `App\Model\User`)
//	limit, err := class.Constants().Get("LIMIT").Evaluate(r.EvaluationContext(ctx))
//
// # Locating code
//
// Sources are found through, in order: in-memory code added with
// [WithCode], a composer.json autoload section ([WithComposer]), explicit
// PSR-4 prefixes ([WithPsr4]) and directory scans ([WithPaths]). Symbols
// without source, such as Stringable or PHP_EOL, come from a builtin
// environment.
//
// # Caching
//
// With [WithCachePath] parsed declarations are kept in SQLite keyed by
// symbol. A cached declaration is only used while its file's content hash
// is unchanged. [Reflector.Invalidate] drops cached rows for changed files
// and starts a fresh session.
package phpreflect
