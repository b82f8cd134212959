// Package atlas builds a unified structural model of a heterogeneous
// source tree: modules, symbols, typed dependency edges, and a
// deterministic criticality ranking, built on tree-sitter.
//
// # Pipeline
//
// One analysis run has three phases:
//
//  1. Extract: every candidate file is parsed with its language's
//     tree-sitter grammar and traversed into unified symbols, raw
//     imports, and textual references. Files are independent here, so
//     extraction runs on a worker pool.
//
//  2. Index barrier: all extracted modules are frozen into a read-only
//     global index. Every symbol of every file is visible before any
//     import resolves, so resolution order can never change the result.
//
//  3. Resolve and assemble: imports and references resolve in parallel
//     against the index into typed edges (calls, imports, inherits,
//     uses-type, unknown); the dependency graph, import-cycle
//     diagnostics, and criticality ranking are computed; the model is
//     ordered deterministically and frozen.
//
// # Usage
//
// Create an Engine and analyze a project root:
//
//	e, err := atlas.New(atlas.WithLanguages("python", "java"))
//	if err != nil { ... }
//
//	m, err := e.Analyze(ctx, "path/to/project")
//	doc, err := e.AnalyzeDocument(ctx, "path/to/project")
//
// Analyze returns the in-memory [ProjectModel]; AnalyzeDocument returns
// the serialized [Document] contract and, when [WithSnapshots] attaches a
// store, reuses a cached document whenever the project's content hash is
// unchanged.
//
// # Failure model
//
// File-local problems (unreadable files, syntax errors, unresolved
// imports, constructs an adapter cannot interpret) never abort a run:
// each becomes a [Diagnostic] on the model, and unresolved imports
// additionally keep an explicit unknown edge so consumers can see the
// gap. Only invalid configuration, duplicate qualified names, and
// context cancellation are fatal; in those cases no partial model is
// returned.
//
// # Determinism
//
// Two runs over identical file contents produce identical models apart
// from the generation timestamp: modules are sorted by path, symbols
// keep source order, edges and diagnostics are sorted, and ranking ties
// break on the qualified name.
package atlas
