package badger

import "fmt"

// Key prefixes for different data types
const (
	passagePrefix  = "pasrec"
	queryLogPrefix = "qlog"
)

// makePassageKey generates a key for a passage by its stable content key.
func makePassageKey(key string) []byte {
	return []byte(fmt.Sprintf("%s:%s", passagePrefix, key))
}

// makeQueryLogKey generates a key for a query log entry by normalized query.
func makeQueryLogKey(normalized string) []byte {
	return []byte(fmt.Sprintf("%s:%s", queryLogPrefix, normalized))
}
