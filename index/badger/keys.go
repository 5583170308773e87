package badger

import (
	"fmt"

	"github.com/poiesic/stockscope/core"
)

// Key prefix for stock entries. Namespaces share one database and are
// separated by key prefix.
const entryPrefix = "stkent"

// makeEntryKey generates a key for a stock entry within a namespace.
// Format: prefix:namespace:id
func makeEntryKey(namespace string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", entryPrefix, namespace, id))
}

// makeNamespacePrefix generates the scan prefix covering one namespace.
func makeNamespacePrefix(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", entryPrefix, namespace))
}
