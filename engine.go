package atlas

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jward/atlas/internal/graph"
	"github.com/jward/atlas/internal/index"
	"github.com/jward/atlas/internal/lang"
	"github.com/jward/atlas/internal/model"
	"github.com/jward/atlas/internal/resolve"
	"github.com/jward/atlas/internal/score"
	"github.com/jward/atlas/internal/snapshot"
)

// Engine orchestrates the analysis pipeline: file discovery, parallel
// parse and extraction, the global-index barrier, parallel import
// resolution, graph construction, criticality ranking, and assembly of
// the immutable project model.
type Engine struct {
	languages   map[string]bool // nil means all registered languages
	workers     int
	includes    []string
	excludes    []string
	sourceRoots []string
	pathAliases map[string]string
	strategy    score.Strategy
	logger      *slog.Logger
	snapshots   *snapshot.Store
}

// New creates an Engine. Configuration errors (malformed glob patterns,
// unknown languages) are fatal here, before any analysis starts.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		return nil, &ConfigError{Msg: fmt.Sprintf("workers must be positive, got %d", e.workers)}
	}
	for _, p := range append(append([]string(nil), e.includes...), e.excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, &ConfigError{Msg: fmt.Sprintf("malformed glob pattern %q", p)}
		}
	}
	for l := range e.languages {
		if _, ok := lang.ForLanguage(l); !ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("unknown language %q", l)}
		}
	}
	for i, root := range e.sourceRoots {
		e.sourceRoots[i] = strings.Trim(filepath.ToSlash(root), "/")
	}
	return e, nil
}

// Analyze runs the full pipeline over the tree rooted at root and returns
// the assembled project model. File-local failures (unreadable files,
// syntax errors, unresolved imports) become diagnostics on the model;
// only configuration errors, model conflicts, and context cancellation
// are fatal.
func (e *Engine) Analyze(ctx context.Context, root string) (*model.ProjectModel, error) {
	in, err := e.prepare(ctx, root)
	if err != nil {
		return nil, err
	}
	return e.build(ctx, in)
}

// AnalyzeDocument is Analyze plus serialization and the snapshot cache:
// when a snapshot store is attached and the input content hash matches a
// previous run, the stored document is returned without re-analysis.
func (e *Engine) AnalyzeDocument(ctx context.Context, root string) (*model.Document, error) {
	in, err := e.prepare(ctx, root)
	if err != nil {
		return nil, err
	}
	if e.snapshots != nil {
		doc, ok, err := e.snapshots.Get(in.hash)
		if err != nil {
			return nil, err
		}
		if ok {
			e.logger.Debug("snapshot hit", "root", in.root, "content_hash", in.hash)
			return doc, nil
		}
	}
	m, err := e.build(ctx, in)
	if err != nil {
		return nil, err
	}
	doc := model.NewDocument(m)
	if e.snapshots != nil {
		if err := e.snapshots.Put(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// inputs is the outcome of the prepare phase: the discovered file set,
// their contents and per-file digests, and the project content hash.
type inputs struct {
	root    string
	files   []string // slash-separated relative paths, sorted
	content [][]byte // nil where the read failed
	diags   []model.Diagnostic
	hash    string
}

// prepare discovers candidate files, reads them in parallel, and computes
// the project content hash. Unreadable files stay in the file list with
// nil content and an IOError diagnostic.
func (e *Engine) prepare(ctx context.Context, root string) (*inputs, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("project root %q: %v", root, err)}
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return nil, &ConfigError{Msg: fmt.Sprintf("project root %q is not a directory", root)}
	}
	for _, sr := range e.sourceRoots {
		if sr == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(absRoot, filepath.FromSlash(sr))); err != nil || !info.IsDir() {
			return nil, &ConfigError{Msg: fmt.Sprintf("source root %q does not exist under project root", sr)}
		}
	}

	in := &inputs{root: absRoot}
	if err := e.discover(absRoot, in); err != nil {
		return nil, err
	}

	in.content = make([][]byte, len(in.files))
	digests := make([]uint64, len(in.files))
	readDiags := make([]*model.Diagnostic, len(in.files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, rel := range in.files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(absRoot, filepath.FromSlash(rel)))
			if err != nil {
				readDiags[i] = &model.Diagnostic{
					File:     rel,
					Line:     1,
					Severity: model.SeverityError,
					Kind:     model.DiagReadError,
					Message:  fmt.Sprintf("read file: %v", err),
				}
				return nil
			}
			in.content[i] = data
			digests[i] = xxhash.Sum64(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, d := range readDiags {
		if d != nil {
			in.diags = append(in.diags, *d)
		}
	}

	in.hash = contentHash(in.files, digests, in.content)
	return in, nil
}

// skipDirs are directory names never descended into, on top of hidden
// directories.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"target":       true,
	"build":        true,
	"dist":         true,
}

// discover walks the project tree and fills in.files with the sorted
// candidate set. A file is a candidate when it survives the include and
// exclude patterns and a registered adapter claims its extension. Files an
// include pattern explicitly selects but no adapter supports are skipped
// with a diagnostic rather than silently.
func (e *Engine) discover(absRoot string, in *inputs) error {
	err := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != absRoot && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		included := len(e.includes) == 0
		for _, pat := range e.includes {
			if ok, _ := doublestar.Match(pat, rel); ok {
				included = true
				break
			}
		}
		if !included {
			return nil
		}
		for _, pat := range e.excludes {
			if ok, _ := doublestar.Match(pat, rel); ok {
				return nil
			}
		}

		adapter, ok := lang.ForFile(rel)
		if !ok {
			if len(e.includes) > 0 {
				in.diags = append(in.diags, model.Diagnostic{
					File:     rel,
					Line:     1,
					Severity: model.SeverityWarning,
					Kind:     model.DiagSkippedFile,
					Message:  "no language adapter for file extension",
				})
			}
			return nil
		}
		if e.languages != nil && !e.languages[adapter.Name()] {
			return nil
		}
		in.files = append(in.files, rel)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk project: %w", err)
	}
	sort.Strings(in.files)
	return nil
}

// build runs extraction, resolution, graphing, scoring, and assembly over
// prepared inputs.
func (e *Engine) build(ctx context.Context, in *inputs) (*model.ProjectModel, error) {
	start := time.Now()
	diags := append([]model.Diagnostic(nil), in.diags...)

	// Phase 1: parallel parse and extraction. Results land in per-index
	// slots, so output order is the sorted file order regardless of
	// scheduling.
	mods := make([]*model.Module, len(in.files))
	extractDiags := make([][]model.Diagnostic, len(in.files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, rel := range in.files {
		if in.content[i] == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			adapter, _ := lang.ForFile(rel)
			mod, ds, err := lang.ExtractFile(gctx, adapter, rel, in.content[i])
			if err != nil {
				return err
			}
			mods[i], extractDiags[i] = mod, ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var modules []*model.Module
	for i := range mods {
		diags = append(diags, extractDiags[i]...)
		if mods[i] != nil {
			modules = append(modules, mods[i])
		}
	}

	// Barrier: freeze the global index. Every symbol of every module is
	// visible before any import resolves.
	idx := index.Build(modules, e.sourceRoots, e.pathAliases)
	if dups := idx.Duplicates(); len(dups) > 0 {
		return nil, &ConflictError{Names: dups}
	}

	// Phase 2: parallel resolution against the read-only index.
	results := make([]resolve.Result, len(modules))
	g2, g2ctx := errgroup.WithContext(ctx)
	g2.SetLimit(e.workers)
	for i, mod := range modules {
		g2.Go(func() error {
			if err := g2ctx.Err(); err != nil {
				return err
			}
			adapter, ok := lang.ForLanguage(mod.Language)
			if !ok {
				return fmt.Errorf("no adapter for language %q", mod.Language)
			}
			results[i] = resolve.Module(mod, adapter, idx)
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return nil, err
	}

	m, err := assemble(in, modules, results, diags, e.strategy)
	if err != nil {
		return nil, err
	}

	e.logger.Info("analysis complete",
		"root", in.root,
		"files", len(in.files),
		"modules", len(m.Modules),
		"symbols", len(m.Symbols()),
		"edges", len(m.Edges),
		"diagnostics", len(m.Diagnostics),
		"duration", time.Since(start),
	)
	return m, nil
}

// Languages returns the canonical names of all supported languages,
// sorted.
func Languages() []string {
	out := lang.Languages()
	sort.Strings(out)
	return out
}

// moduleGraph builds the imports-only graph over modules, the input for
// cycle reporting. External terminals are excluded: a cycle through a
// third-party package is not a project cycle.
func moduleGraph(modules []*model.Module, results []resolve.Result) *graph.Graph {
	g := graph.New()
	for _, mod := range modules {
		g.AddNode(mod.ID)
	}
	for _, r := range results {
		for _, edge := range r.Edges {
			if edge.Kind != model.EdgeImports || !g.HasNode(edge.To) || !g.HasNode(edge.From) {
				continue
			}
			_ = g.AddEdge(edge)
		}
	}
	return g
}
