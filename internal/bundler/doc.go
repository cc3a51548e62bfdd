// Package bundler folds a Rust crate's module tree and a binary entry point
// into a single source file.
//
// The pipeline is line oriented and never parses Rust. Module declarations
// (`mod name;`) are resolved to files and inlined as nested blocks, blocks
// whose module name contains "tests" are pruned by brace counting, and
// `crate::` paths are re-rooted through the wrapper module that holds the
// whole library.
package bundler
