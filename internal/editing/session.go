// Package editing holds the per-edit-session facade the UI layer drives.
//
// A Session is constructed for one create/edit operation from point-in-time
// entity snapshots and discarded after save or cancel. It owns no
// persistence: it derives values (resolved foreign keys, display names,
// project numbers, sync plans) from the snapshots and leaves every write to
// the caller. Snapshots are replaced wholesale on reload, never mutated.
package editing

import (
	"feeflow/api/internal/identity"
	"feeflow/api/internal/index"
	"feeflow/api/internal/numbering"
	"feeflow/api/internal/statussync"
	"feeflow/api/internal/store"
)

// Snapshots is one point-in-time read of the four entity tables.
type Snapshots struct {
	Projects  []store.Project
	Companies []store.Company
	Contacts  []store.Contact
	Proposals []store.Proposal
}

// Session indexes one set of snapshots.
type Session struct {
	snapshots Snapshots
	projects  *index.Index[store.Project]
	companies *index.Index[store.Company]
	contacts  *index.Index[store.Contact]
	proposals *index.Index[store.Proposal]
	mapping   statussync.Mapping
}

// NewSession builds a session with the default status mapping.
func NewSession(snapshots Snapshots) *Session {
	s := &Session{mapping: statussync.DefaultMapping()}
	s.Reload(snapshots)
	return s
}

// Reload replaces the snapshots and rebuilds every index. Callers reload
// after each mutating repository call to stay read-your-writes consistent.
func (s *Session) Reload(snapshots Snapshots) {
	s.snapshots = snapshots
	s.projects = index.New(store.TableProject, snapshots.Projects,
		func(p store.Project) any { return p.ID },
		func(p store.Project) string { return p.Name })
	s.companies = index.New(store.TableCompany, snapshots.Companies,
		func(c store.Company) any { return c.ID },
		func(c store.Company) string { return c.Name })
	s.contacts = index.New(store.TableContact, snapshots.Contacts,
		func(c store.Contact) any { return c.ID },
		func(c store.Contact) string { return c.FullName })
	s.proposals = index.New(store.TableProposal, snapshots.Proposals,
		func(p store.Proposal) any { return p.ID },
		func(p store.Proposal) string { return p.Name })
}

// ResolveForeignKey normalizes any accepted identifier representation.
func (s *Session) ResolveForeignKey(raw any) (identity.RecordID, bool) {
	return identity.Resolve(raw)
}

// ProjectOf resolves a proposal's project reference against the snapshot.
// A false result means the relation is missing: either the key did not
// resolve or the project is gone from the snapshot.
func (s *Session) ProjectOf(p store.Proposal) (store.Project, bool) {
	return s.projects.ByID(p.ProjectID)
}

// CompanyOf resolves a proposal's company reference.
func (s *Session) CompanyOf(p store.Proposal) (store.Company, bool) {
	return s.companies.ByID(p.CompanyID)
}

// ContactOf resolves a proposal's contact reference.
func (s *Session) ContactOf(p store.Proposal) (store.Contact, bool) {
	return s.contacts.ByID(p.ContactID)
}

// CompanyOfContact resolves a contact's employer.
func (s *Session) CompanyOfContact(c store.Contact) (store.Company, bool) {
	return s.companies.ByID(c.CompanyID)
}

// Proposal looks a proposal up by id in any representation.
func (s *Session) Proposal(raw any) (store.Proposal, bool) {
	return s.proposals.ByID(raw)
}

// CompanyName is the display-name convenience used by pickers and lists.
func (s *Session) CompanyName(raw any) (string, bool) {
	return s.companies.DisplayName(raw)
}

// ContactName returns the contact's computed full name.
func (s *Session) ContactName(raw any) (string, bool) {
	return s.contacts.DisplayName(raw)
}

// ProjectName returns the project's display name.
func (s *Session) ProjectName(raw any) (string, bool) {
	return s.projects.DisplayName(raw)
}

// ProposalsOfProject returns the proposals referencing a project, matching
// the stored foreign key in any representation.
func (s *Session) ProposalsOfProject(projectID string) []store.Proposal {
	return s.proposalsWhere(func(p store.Proposal) string { return p.ProjectID }, projectID)
}

// ProposalsOfCompany returns the proposals addressed to a company.
func (s *Session) ProposalsOfCompany(companyID string) []store.Proposal {
	return s.proposalsWhere(func(p store.Proposal) string { return p.CompanyID }, companyID)
}

// ProposalsOfContact returns the proposals addressed to a contact.
func (s *Session) ProposalsOfContact(contactID string) []store.Proposal {
	return s.proposalsWhere(func(p store.Proposal) string { return p.ContactID }, contactID)
}

// ContactsOfCompany returns a company's contacts.
func (s *Session) ContactsOfCompany(companyID string) []store.Contact {
	target := identity.LocalID(companyID)
	matches := make([]store.Contact, 0)
	for _, c := range s.snapshots.Contacts {
		if identity.LocalID(c.CompanyID) == target {
			matches = append(matches, c)
		}
	}
	return matches
}

func (s *Session) proposalsWhere(key func(store.Proposal) string, id string) []store.Proposal {
	target := identity.LocalID(id)
	matches := make([]store.Proposal, 0)
	for _, p := range s.snapshots.Proposals {
		if identity.LocalID(key(p)) == target {
			matches = append(matches, p)
		}
	}
	return matches
}

// GenerateProjectNumber computes the next number for (country, year) from
// the session's project snapshot and re-validates it before returning.
// The snapshot may be stale; callers must treat a later collision as
// retryable rather than fatal.
func (s *Session) GenerateProjectNumber(country, year int) (numbering.ProjectNumber, error) {
	existing := s.projectNumbers()
	next, err := numbering.Next(country, year, existing)
	if err != nil {
		return numbering.ProjectNumber{}, err
	}
	if !numbering.Validate(next, existing) {
		// Unreachable from a consistent snapshot; guards the race where a
		// concurrent create landed between read and generation.
		return numbering.ProjectNumber{}, numbering.CollisionError(next)
	}
	return next, nil
}

// ValidateProjectNumber re-checks a candidate against the current snapshot.
func (s *Session) ValidateProjectNumber(candidate numbering.ProjectNumber) bool {
	return numbering.Validate(candidate, s.projectNumbers())
}

// PlanStatusSync decides whether saving a proposal with newStatus requires
// a confirmed project-side update.
func (s *Session) PlanStatusSync(oldStatus, newStatus string) statussync.Plan {
	return statussync.PlanSync(statussync.ProposalStatus(oldStatus), statussync.ProposalStatus(newStatus), s.mapping)
}

func (s *Session) projectNumbers() []numbering.ProjectNumber {
	numbers := make([]numbering.ProjectNumber, 0, len(s.snapshots.Projects))
	for _, p := range s.snapshots.Projects {
		numbers = append(numbers, numbering.ProjectNumber{
			Year:    p.NumberYear,
			Country: p.NumberCountry,
			Seq:     p.NumberSeq,
		})
	}
	return numbers
}
