package editing

import (
	"errors"
	"testing"

	"feeflow/api/internal/numbering"
	"feeflow/api/internal/statussync"
	"feeflow/api/internal/store"
)

func fixtureSnapshots() Snapshots {
	return Snapshots{
		Projects: []store.Project{
			{ID: "projects:25_97101", Name: "Harbour Pavilion", Number: "25-97101",
				NumberYear: 25, NumberCountry: 971, NumberSeq: 1, Status: "Draft"},
			{ID: "projects:25_97104", Name: "Desert Resort", Number: "25-97104",
				NumberYear: 25, NumberCountry: 971, NumberSeq: 4, Status: "Active"},
		},
		Companies: []store.Company{
			{ID: "company:emt", Name: "Emittiv"},
		},
		Contacts: []store.Contact{
			{ID: "contacts:f0itczi", FullName: "Martin Robert", CompanyID: "company:emt"},
		},
		Proposals: []store.Proposal{
			{ID: "fee:25_97101_1", Name: "Fee Proposal", Number: "25-97101-FP",
				ProjectID: "projects:25_97101", CompanyID: "company:emt",
				ContactID: "contacts:f0itczi", Status: "Draft"},
		},
	}
}

func TestRelationResolution(t *testing.T) {
	s := NewSession(fixtureSnapshots())
	proposal, ok := s.Proposal("fee:25_97101_1")
	if !ok {
		t.Fatal("proposal missing from session")
	}

	project, ok := s.ProjectOf(proposal)
	if !ok || project.Name != "Harbour Pavilion" {
		t.Fatalf("ProjectOf = %+v, %v", project, ok)
	}
	company, ok := s.CompanyOf(proposal)
	if !ok || company.Name != "Emittiv" {
		t.Fatalf("CompanyOf = %+v, %v", company, ok)
	}
	contact, ok := s.ContactOf(proposal)
	if !ok || contact.FullName != "Martin Robert" {
		t.Fatalf("ContactOf = %+v, %v", contact, ok)
	}
	employer, ok := s.CompanyOfContact(contact)
	if !ok || employer.ID != "company:emt" {
		t.Fatalf("CompanyOfContact = %+v, %v", employer, ok)
	}
}

func TestMissingRelationIsNotFatal(t *testing.T) {
	snapshots := fixtureSnapshots()
	snapshots.Companies = nil // company deleted out from under the proposal
	s := NewSession(snapshots)
	proposal, _ := s.Proposal("fee:25_97101_1")
	if _, ok := s.CompanyOf(proposal); ok {
		t.Fatal("resolved a deleted company")
	}
	if name, ok := s.CompanyName(proposal.CompanyID); ok || name != "" {
		t.Fatalf("CompanyName = %q, %v", name, ok)
	}
}

func TestForeignKeyRepresentations(t *testing.T) {
	s := NewSession(fixtureSnapshots())
	for _, raw := range []any{
		"company:emt",
		map[string]any{"tb": "company", "id": "emt"},
		map[string]any{"tb": "company", "id": map[string]any{"String": "emt"}},
	} {
		name, ok := s.CompanyName(raw)
		if !ok || name != "Emittiv" {
			t.Fatalf("CompanyName(%v) = %q, %v", raw, name, ok)
		}
	}
	if _, ok := s.ResolveForeignKey(map[string]any{}); ok {
		t.Fatal("resolved an empty foreign key")
	}
}

func TestGenerateProjectNumberFromSnapshot(t *testing.T) {
	s := NewSession(fixtureSnapshots())
	n, err := s.GenerateProjectNumber(971, 25)
	if err != nil {
		t.Fatalf("GenerateProjectNumber: %v", err)
	}
	if n.String() != "25-97105" {
		t.Fatalf("number = %s, want 25-97105", n)
	}

	// A different country starts its own sequence.
	n, err = s.GenerateProjectNumber(966, 25)
	if err != nil {
		t.Fatalf("GenerateProjectNumber: %v", err)
	}
	if n.String() != "25-96601" {
		t.Fatalf("number = %s, want 25-96601", n)
	}
}

func TestValidateProjectNumberAgainstSnapshot(t *testing.T) {
	s := NewSession(fixtureSnapshots())
	if s.ValidateProjectNumber(numbering.ProjectNumber{Year: 25, Country: 971, Seq: 4}) {
		t.Fatal("accepted an existing number")
	}
	if !s.ValidateProjectNumber(numbering.ProjectNumber{Year: 25, Country: 971, Seq: 5}) {
		t.Fatal("rejected a fresh number")
	}
}

func TestGenerateProjectNumberOverflow(t *testing.T) {
	snapshots := fixtureSnapshots()
	snapshots.Projects = append(snapshots.Projects, store.Project{
		ID: "projects:25_97199", NumberYear: 25, NumberCountry: 971, NumberSeq: 99,
	})
	s := NewSession(snapshots)
	if _, err := s.GenerateProjectNumber(971, 25); !errors.Is(err, numbering.ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestPlanStatusSync(t *testing.T) {
	s := NewSession(fixtureSnapshots())
	plan := s.PlanStatusSync("Draft", "Sent")
	if plan.Action != statussync.ProjectStatusWouldChange || plan.Target != statussync.ProjectRFP {
		t.Fatalf("plan = %+v", plan)
	}
	if plan := s.PlanStatusSync("Sent", "Negotiation"); plan.Action != statussync.NoActionNeeded {
		t.Fatalf("plan = %+v, want no action", plan)
	}
}

func TestReloadReplacesSnapshotWholesale(t *testing.T) {
	s := NewSession(fixtureSnapshots())
	refreshed := fixtureSnapshots()
	refreshed.Projects = append(refreshed.Projects, store.Project{
		ID: "projects:25_97105", Name: "Marina Tower",
		NumberYear: 25, NumberCountry: 971, NumberSeq: 5,
	})
	s.Reload(refreshed)

	if _, ok := s.ProjectName("projects:25_97105"); !ok {
		t.Fatal("reload did not pick up the new project")
	}
	n, err := s.GenerateProjectNumber(971, 25)
	if err != nil {
		t.Fatalf("GenerateProjectNumber: %v", err)
	}
	if n.Seq != 6 {
		t.Fatalf("seq = %d, want 6 after reload", n.Seq)
	}
}
