// Package identity normalizes the record identifier shapes produced by the
// document database into one canonical string form.
//
// Records arrive with ids in three shapes, depending on which API surface
// serialized them:
//
//  1. a plain string, either bare ("emt") or already prefixed ("company:emt"),
//  2. an object {"tb": "company", "id": "emt"},
//  3. an object {"tb": "company", "id": {"String": "emt"}}.
//
// Every identity comparison in the application goes through Canonical so
// that the three shapes compare equal.
package identity

// A RecordID is the canonical form of a record identifier: the table name
// and the local id within that table. The zero value is the absent id.
type RecordID struct {
	Table string
	Local string
}

// Absent is the defined result for nil, empty, or unparseable input.
var Absent = RecordID{}

// IsAbsent reports whether the id carries no local identifier.
func (r RecordID) IsAbsent() bool { return r.Local == "" }

// String renders the canonical "table:local" form, or "" when absent.
func (r RecordID) String() string {
	if r.Local == "" {
		return ""
	}
	if r.Table == "" {
		return r.Local
	}
	return r.Table + ":" + r.Local
}

// Resolve normalizes any accepted identifier representation. The boolean is
// false when the input matches none of the accepted shapes; Resolve never
// panics.
//
// Accepted inputs: RecordID itself, the three wire shapes described in the
// package comment, and full entity documents (maps with an "id" field, in
// which case the field is resolved).
func Resolve(value any) (RecordID, bool) {
	switch v := value.(type) {
	case nil:
		return Absent, false
	case RecordID:
		if v.IsAbsent() {
			return Absent, false
		}
		return v, true
	case string:
		return fromString(v)
	case map[string]any:
		return fromMap(v)
	}
	return Absent, false
}

// Canonical is Resolve collapsed to the canonical string; unparseable input
// yields "".
func Canonical(value any) string {
	id, ok := Resolve(value)
	if !ok {
		return ""
	}
	return id.String()
}

// LocalID strips any table prefix, for display. Unparseable input yields "".
func LocalID(value any) string {
	id, ok := Resolve(value)
	if !ok {
		return ""
	}
	return id.Local
}

func fromString(s string) (RecordID, bool) {
	if s == "" {
		return Absent, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			if i == 0 || i == len(s)-1 {
				return Absent, false
			}
			return RecordID{Table: s[:i], Local: s[i+1:]}, true
		}
	}
	return RecordID{Local: s}, true
}

func fromMap(m map[string]any) (RecordID, bool) {
	raw, hasID := m["id"]
	table, _ := m["tb"].(string)
	if table == "" {
		table, _ = m["table"].(string)
	}
	if !hasID {
		return Absent, false
	}

	// A composite id carries tb+id; a full entity document carries an id
	// field holding one of the wire shapes. When there is no table name the
	// map can only be an entity document, so recurse into the id field.
	if table == "" {
		if _, isMap := raw.(map[string]any); isMap {
			return Resolve(raw)
		}
		if s, isString := raw.(string); isString {
			return fromString(s)
		}
		return Absent, false
	}

	// The wrapped-string variant must be checked before the bare string:
	// a wrapper object is truthy but not a string.
	if wrapped, ok := raw.(map[string]any); ok {
		if s, ok := wrapped["String"].(string); ok && s != "" {
			return RecordID{Table: table, Local: s}, true
		}
		return Absent, false
	}
	if s, ok := raw.(string); ok && s != "" {
		// The local part may itself arrive prefixed; the table field wins.
		if inner, ok := fromString(s); ok {
			return RecordID{Table: table, Local: inner.Local}, true
		}
		return Absent, false
	}
	return Absent, false
}
