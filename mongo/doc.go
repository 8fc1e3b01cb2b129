// Package mongo provides MongoDB-backed sinks and cursor stores for
// ingestion workflows. Documents are upserted by a key field so re-ingested
// items update in place, keeping their first-seen time and counting visits.
package mongo
