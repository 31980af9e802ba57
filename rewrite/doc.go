// Package rewrite expands search queries through a prioritized chain of
// generation backends (local first, then cloud) with a TTL cache in front.
//
// Provider failures and timeouts are swallowed: the chain advances to the
// next backend and, when all fail, the original query passes through
// unchanged. The pipeline never fails a search because of rewriting.
package rewrite
