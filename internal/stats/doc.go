// Package stats implements the small set of statistical primitives the
// intelligence pipeline needs: descriptive statistics, the Pearson
// correlation coefficient with a two-tailed Student's t p-value, and
// ordinary least squares regression.
//
// Degenerate inputs (short or zero-variance samples) are reported through
// boolean ok returns rather than errors or NaN so callers can skip the
// affected unit of work.
package stats
