// Package recommend converts insights and significant correlations into
// prioritized, actionable recommendations.
//
// Rule templates are a lookup table keyed by (pillar, metric, condition)
// rather than branching logic, so templates can be added and tested in
// isolation. A pending recommendation blocks a second one in the same
// (pillar, category) until it is dismissed or completed.
package recommend
