// Package predict implements predictive analytics: the composite burnout
// risk score, goal-achievement forecasting by linear regression, and
// health trend projection.
//
// Predictions are recomputed wholesale on every run; a run replaces the
// user's previous predictions of the same type. Degenerate fits (flat or
// regressing progress) never extrapolate a completion date.
package predict
