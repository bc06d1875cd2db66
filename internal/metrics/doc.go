// Package metrics defines the pillar/metric domain model shared by every
// stage of the intelligence pipeline: pillars, metric keys, day-aligned
// series, and the catalog of tracked metrics with their polarity and
// scoring ranges.
//
// The package also declares the Source interface, the read-only metric
// access contract implemented by the store. A Source never fails for
// missing data; it returns an empty series instead. Errors from a Source
// mean the backing pillar is unreachable, and callers degrade to partial
// output rather than aborting.
package metrics
