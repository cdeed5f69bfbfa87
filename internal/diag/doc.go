// Package diag defines the explanation record produced for a missed
// optimization and the helpers that rank and collect them.
//
// # Data model
//
// Result is the central record. It carries:
//
//   - the remark identity (pass, remark name, function, location);
//   - the explanation texts (short reason, root cause, optimizer intent and
//     a detailed explanation);
//   - Suggestions, a list of Fix records flagged as source-level, IR-level
//     or both;
//   - Severity and an estimated speedup;
//   - an optional pointer to the function's IR diff.
//
// Severity has five levels, Critical through Info. Ordinal 0 is the most
// severe, so an ascending sort puts the worst problems first.
//
// # Ranking
//
// Rank and Bag.Sort are stable: results of equal severity keep the order
// the remarks arrived in. Filter, Counts and HasCritical back the report
// summary and the process exit code.
//
// Package diag does no formatting beyond FormatShort; rendering lives in
// internal/diagfmt.
package diag
