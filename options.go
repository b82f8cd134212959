package atlas

import (
	"log/slog"

	"github.com/jward/atlas/internal/score"
	"github.com/jward/atlas/internal/snapshot"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process. Files
// of other supported languages are skipped silently.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			e.languages[l] = true
		}
	}
}

// WithWorkers sets the size of the parse/extract and resolve worker pools.
// The default is the number of CPUs.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithIncludes sets glob patterns (doublestar syntax, matched against
// slash-separated paths relative to the project root) selecting which
// files to analyze. Without includes, every file with a supported
// extension is a candidate.
func WithIncludes(patterns ...string) Option {
	return func(e *Engine) {
		e.includes = append(e.includes, patterns...)
	}
}

// WithExcludes sets glob patterns removing files from the candidate set.
// Excludes win over includes.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludes = append(e.excludes, patterns...)
	}
}

// WithSourceRoots declares directories (relative to the project root) that
// package-style absolute imports resolve against, in priority order. The
// project root itself is always tried first.
func WithSourceRoots(roots ...string) Option {
	return func(e *Engine) {
		e.sourceRoots = append(e.sourceRoots, roots...)
	}
}

// WithPathAliases sets the optional prefix-mapping table for path-style
// imports (the moral equivalent of a tsconfig "paths" block): a specifier
// starting with a key is rewritten to the mapped root-relative prefix
// before resolution.
func WithPathAliases(aliases map[string]string) Option {
	return func(e *Engine) {
		e.pathAliases = aliases
	}
}

// WithScorer replaces the built-in criticality strategy. The replacement
// must be deterministic for ranking to stay reproducible.
func WithScorer(s score.Strategy) Option {
	return func(e *Engine) {
		e.strategy = s
	}
}

// WithLogger sets the structured logger. The default discards nothing and
// writes to slog's default handler.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSnapshots attaches a snapshot store. AnalyzeDocument then returns a
// cached document when the input content hash matches a previous run, and
// persists fresh runs for later reuse. The Engine does not close the store.
func WithSnapshots(s *snapshot.Store) Option {
	return func(e *Engine) {
		e.snapshots = s
	}
}
