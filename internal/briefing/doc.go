// Package briefing synthesizes the two periodic documents: the daily
// briefing and the weekly review. Both are singleton-per-period and
// upserted by key, so regenerating a period replaces the prior document
// rather than appending history.
//
// Compilation aggregates pillar scores, unread insights, pending
// recommendations, and alerts. When a pillar source is unreachable the
// document is still produced and marked partial.
package briefing
