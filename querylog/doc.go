// Package querylog tracks past search queries and their outcomes.
//
// The log serves two retrieval-time purposes: mining expansion terms for
// broadening exploratory queries, and finding related successful queries to
// seed the rewriting prompt. Entries are keyed by normalized query text,
// persisted best-effort through a storage.QueryLogRepository, and survive
// process restarts.
package querylog
