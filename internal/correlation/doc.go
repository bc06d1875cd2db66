// Package correlation implements the correlation engine: pairwise Pearson
// analysis of metric series across pillars.
//
// Each run produces a fresh batch of Correlation records identified by a
// batch ID. Batches are immutable; a later run supersedes the previous one
// and downstream consumers read only the latest batch. Pairs with fewer
// than the minimum shared samples or with zero variance on either side are
// skipped silently.
package correlation
