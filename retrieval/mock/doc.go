// Package mock provides configurable test doubles for the retrieval
// interfaces. Behavior is injected through function fields (SearchFunc,
// RetrieveFunc); when unset, the doubles return their canned Results.
package mock
