package statussync

import "testing"

func fixtureMapping() Mapping {
	return Mapping{
		ProposalSent:        ProjectRFP,
		ProposalNegotiation: ProjectRFP,
		ProposalAwarded:     "Awarded",
	}
}

func TestPlanSyncUnchangedStatus(t *testing.T) {
	plan := PlanSync(ProposalDraft, ProposalDraft, fixtureMapping())
	if plan.Action != NoActionNeeded {
		t.Fatalf("plan = %+v, want NoActionNeeded", plan)
	}
}

func TestPlanSyncTriggersOnFirstMappedTransition(t *testing.T) {
	// Draft has no mapping entry, so it maps to itself; Sent maps to RFP.
	plan := PlanSync(ProposalDraft, ProposalSent, fixtureMapping())
	if plan.Action != ProjectStatusWouldChange {
		t.Fatalf("plan = %+v, want ProjectStatusWouldChange", plan)
	}
	if plan.Target != ProjectRFP {
		t.Fatalf("target = %q, want RFP", plan.Target)
	}
}

func TestPlanSyncNoopWhenMappedTargetUnchanged(t *testing.T) {
	// Sent and Negotiation both map to RFP: the raw status changed but the
	// project-side target did not.
	plan := PlanSync(ProposalSent, ProposalNegotiation, fixtureMapping())
	if plan.Action != NoActionNeeded {
		t.Fatalf("plan = %+v, want NoActionNeeded", plan)
	}
}

func TestPlanSyncUnmappedNewStatusNeverTriggers(t *testing.T) {
	plan := PlanSync(ProposalSent, ProposalLost, fixtureMapping())
	if plan.Action != NoActionNeeded {
		t.Fatalf("plan = %+v, want NoActionNeeded", plan)
	}
}

func TestPlanSyncAward(t *testing.T) {
	plan := PlanSync(ProposalNegotiation, ProposalAwarded, fixtureMapping())
	if plan.Action != ProjectStatusWouldChange || plan.Target != "Awarded" {
		t.Fatalf("plan = %+v, want change to Awarded", plan)
	}
}

func TestDefaultMapping(t *testing.T) {
	m := DefaultMapping()
	if m[ProposalSent] != ProjectRFP || m[ProposalNegotiation] != ProjectRFP {
		t.Fatalf("issue/negotiation must map to RFP: %v", m)
	}
	if m[ProposalAwarded] != ProjectActive {
		t.Fatalf("award must activate the project: %v", m)
	}
	if _, ok := m[ProposalDraft]; ok {
		t.Fatal("Draft must be unmapped")
	}
	if _, ok := m[ProposalLost]; ok {
		t.Fatal("Lost must be unmapped")
	}
}
