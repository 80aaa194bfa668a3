package prettyorm

import (
	"sync"

	"github.com/gentledepp/prettyorm/schema"
)

// StatementKind distinguishes the cached statement flavors of one mapping.
type StatementKind uint8

const (
	KindInsert StatementKind = iota
	KindInsertOrReplace
	KindFindByRowID
)

type cacheKey struct {
	id   schema.Identity
	kind StatementKind
}

// SQLCache memoizes generated SQL text keyed by a mapping's stable identity
// (table name plus content hash), so equal-but-distinct mapping instances
// share entries and no entry keeps a mapping alive. Safe for concurrent use.
type SQLCache struct {
	entries sync.Map // cacheKey -> string
}

func NewSQLCache() *SQLCache {
	return &SQLCache{}
}

// Get returns the cached SQL for (id, kind), generating and storing it on
// first use. Concurrent first calls may both generate; one result wins.
func (c *SQLCache) Get(id schema.Identity, kind StatementKind, generate func() string) string {
	key := cacheKey{id: id, kind: kind}
	if v, ok := c.entries.Load(key); ok {
		return v.(string)
	}
	sql, _ := c.entries.LoadOrStore(key, generate())
	return sql.(string)
}

// Purge discards all entries. For owners of a descriptor registry that
// rebuild mappings with changed specifications.
func (c *SQLCache) Purge() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Len reports the number of cached statements.
func (c *SQLCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
