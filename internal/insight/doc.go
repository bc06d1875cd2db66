// Package insight implements the insight generator: anomaly, trend, and
// achievement detection over individual metric series, plus surfacing of
// significant cross-pillar correlations.
//
// Detection is per-metric and independent, so the generator fans detectors
// out across a worker pool and merges by concatenation. Insights are
// deduplicated against recent history so repeated batch runs do not flood
// the same finding.
package insight
