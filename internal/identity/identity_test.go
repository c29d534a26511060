package identity

import "testing"

func TestResolveEquivalentShapes(t *testing.T) {
	inputs := []any{
		"company:emt",
		map[string]any{"tb": "company", "id": "emt"},
		map[string]any{"table": "company", "id": "emt"},
		map[string]any{"tb": "company", "id": map[string]any{"String": "emt"}},
		RecordID{Table: "company", Local: "emt"},
	}
	for _, in := range inputs {
		id, ok := Resolve(in)
		if !ok {
			t.Fatalf("Resolve(%v) not ok", in)
		}
		if got := id.String(); got != "company:emt" {
			t.Fatalf("Resolve(%v) = %q, want company:emt", in, got)
		}
	}
}

func TestResolveBareString(t *testing.T) {
	id, ok := Resolve("emt")
	if !ok || id.Table != "" || id.Local != "emt" {
		t.Fatalf("Resolve(emt) = %v, %v", id, ok)
	}
	if id.String() != "emt" {
		t.Fatalf("String() = %q", id.String())
	}
}

func TestResolveEntityDocument(t *testing.T) {
	doc := map[string]any{
		"id":   map[string]any{"tb": "projects", "id": map[string]any{"String": "22_96601"}},
		"name": "Museum of the Future",
	}
	if got := Canonical(doc); got != "projects:22_96601" {
		t.Fatalf("Canonical(doc) = %q", got)
	}
}

func TestResolveAbsentInputs(t *testing.T) {
	cases := []any{
		nil,
		"",
		map[string]any{},
		map[string]any{"tb": "company"},
		map[string]any{"tb": "company", "id": map[string]any{}},
		map[string]any{"tb": "company", "id": 42},
		map[string]any{"id": 42},
		42,
		":",
		"company:",
		":emt",
		RecordID{},
	}
	for _, in := range cases {
		if id, ok := Resolve(in); ok || !id.IsAbsent() {
			t.Fatalf("Resolve(%#v) = %v, %v; want absent", in, id, ok)
		}
		if got := Canonical(in); got != "" {
			t.Fatalf("Canonical(%#v) = %q; want empty", in, got)
		}
	}
}

func TestResolvePrefixedLocalInsideComposite(t *testing.T) {
	in := map[string]any{"tb": "company", "id": "company:emt"}
	if got := Canonical(in); got != "company:emt" {
		t.Fatalf("Canonical = %q", got)
	}
}

func TestLocalID(t *testing.T) {
	if got := LocalID("company:emt"); got != "emt" {
		t.Fatalf("LocalID = %q", got)
	}
	if got := LocalID(map[string]any{"tb": "contacts", "id": "f0itczi"}); got != "f0itczi" {
		t.Fatalf("LocalID = %q", got)
	}
	if got := LocalID(nil); got != "" {
		t.Fatalf("LocalID(nil) = %q", got)
	}
}
