// Package dipsw turns rows of DIP switch tables into normalized records.
//
// Service manuals document each switch as a table of bits. A table
// extractor upstream yields the rows as text cells; this package decides what
// each row means and emits one [Record] per (switch, bit).
//
// # Pipeline
//
// The [Assembler] folds every row of a document through these steps:
//
//  1. [Classify] rejects short rows, repeated headers and footnotes, and
//     tracks the current switch in a [State]. The switch number is printed
//     only on the first row of each switch, so it carries over blank rows,
//     tables and pages.
//  2. [ParseSettings] splits the settings cell into "0:" and "1:" meanings,
//     falling back to the whole text for non-boolean settings.
//  3. [ExpandRange] adds placeholder records for bits that a combination
//     table describes under a single row.
//  4. [ApplyPatches] swaps known-bad extractions for curated records.
//
// # Errors
//
// Malformed rows are not errors. They are skipped and counted in [Stats].
// The only errors come from reading a [Source].
//
// The package does no I/O of its own and keeps no global state.
package dipsw
