// Package index builds O(1) lookup structures over entity snapshots, keyed
// by canonical record id.
//
// An Index is built in one pass from an immutable snapshot and is never
// mutated afterwards; when the snapshot changes the caller rebuilds. Two
// indexes for two entity types interoperate only through canonical ids.
package index

import "feeflow/api/internal/identity"

// An Index resolves raw identifier values to entities of one type.
type Index[T any] struct {
	table string
	byID  map[string]T
	name  func(T) string
}

// New builds an index over snapshot. table is the entity's table name, used
// to qualify bare local ids at query time. id extracts the entity's
// identifier in any accepted representation; name selects the display name.
// Entities whose id does not resolve are skipped; on duplicate canonical
// ids the later entry wins, matching last-write-wins snapshot semantics.
func New[T any](table string, snapshot []T, id func(T) any, name func(T) string) *Index[T] {
	ix := &Index[T]{
		table: table,
		byID:  make(map[string]T, len(snapshot)),
		name:  name,
	}
	for _, entity := range snapshot {
		rid, ok := identity.Resolve(id(entity))
		if !ok {
			continue
		}
		ix.byID[ix.qualify(rid)] = entity
	}
	return ix
}

// ByID looks up an entity by identifier in any accepted representation.
func (ix *Index[T]) ByID(raw any) (T, bool) {
	var zero T
	rid, ok := identity.Resolve(raw)
	if !ok {
		return zero, false
	}
	entity, ok := ix.byID[ix.qualify(rid)]
	if !ok {
		return zero, false
	}
	return entity, true
}

// DisplayName is ByID composed with the index's name selector.
func (ix *Index[T]) DisplayName(raw any) (string, bool) {
	entity, ok := ix.ByID(raw)
	if !ok {
		return "", false
	}
	return ix.name(entity), true
}

// Len reports the number of distinct indexed entities.
func (ix *Index[T]) Len() int { return len(ix.byID) }

func (ix *Index[T]) qualify(rid identity.RecordID) string {
	if rid.Table == "" {
		rid.Table = ix.table
	}
	return rid.String()
}
