// Package statussync decides whether a fee-proposal status edit should also
// move the parent project's status.
//
// A fixed mapping relates proposal statuses to project statuses. Statuses
// with no mapping entry are incompatible with synchronization and never
// trigger a project update. The engine only produces a decision; obtaining
// user confirmation and applying both updates is the caller's two-phase
// responsibility.
package statussync

// ProposalStatus is the closed lifecycle enumeration for fee proposals.
type ProposalStatus string

const (
	ProposalDraft       ProposalStatus = "Draft"
	ProposalActive      ProposalStatus = "Active"
	ProposalSent        ProposalStatus = "Sent"
	ProposalNegotiation ProposalStatus = "Negotiation"
	ProposalAwarded     ProposalStatus = "Awarded"
	ProposalLost        ProposalStatus = "Lost"
	ProposalCancelled   ProposalStatus = "Cancelled"
)

// ProjectStatus is the closed lifecycle enumeration for projects.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "Draft"
	ProjectRFP       ProjectStatus = "RFP"
	ProjectActive    ProjectStatus = "Active"
	ProjectOnHold    ProjectStatus = "On Hold"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectCancelled ProjectStatus = "Cancelled"
)

// Mapping is the total decision table from proposal statuses to project
// statuses. Entries absent from the map are incompatible.
type Mapping map[ProposalStatus]ProjectStatus

// DefaultMapping reflects the business rule: issuing or negotiating a
// proposal puts the project out to RFP, winning it awards the project.
func DefaultMapping() Mapping {
	return Mapping{
		ProposalSent:        ProjectRFP,
		ProposalNegotiation: ProjectRFP,
		ProposalAwarded:     ProjectActive,
	}
}

// Action enumerates the possible sync decisions.
type Action int

const (
	// NoActionNeeded means the edit requires no project-side update.
	NoActionNeeded Action = iota
	// ProjectStatusWouldChange means the caller must confirm, then apply
	// the project update alongside the proposal update.
	ProjectStatusWouldChange
)

// Plan is the decision produced for one save attempt.
type Plan struct {
	Action Action
	// Target is the project status to apply; meaningful only when Action
	// is ProjectStatusWouldChange.
	Target ProjectStatus
}

// PlanSync computes the decision for an edit from oldStatus to newStatus.
//
// A project update is proposed only when the status actually changed, the
// new status has a mapping entry, and that entry differs from what the old
// status mapped to. An unmapped old status is treated as mapping to itself,
// so the first transition into a mapped status always proposes a change.
func PlanSync(oldStatus, newStatus ProposalStatus, mapping Mapping) Plan {
	if oldStatus == newStatus {
		return Plan{Action: NoActionNeeded}
	}
	mappedNew, ok := mapping[newStatus]
	if !ok {
		return Plan{Action: NoActionNeeded}
	}
	mappedOld, ok := mapping[oldStatus]
	if !ok {
		mappedOld = ProjectStatus(oldStatus)
	}
	if mappedOld == mappedNew {
		return Plan{Action: NoActionNeeded}
	}
	return Plan{Action: ProjectStatusWouldChange, Target: mappedNew}
}
