package app

import (
	"context"

	"feeflow/api/internal/export"
	"feeflow/api/internal/identity"
	"feeflow/api/internal/store"
)

// exportStore adapts the data store to the export renderer. Foreign keys
// are stored canonically, so every lookup strips the table prefix first.
// Absent company and contact references render as empty blocks rather than
// failing the export.
type exportStore struct {
	store dataStore
}

func newExportStore(store dataStore) *exportStore {
	return &exportStore{store: store}
}

// NewExportStore adapts the Postgres store for the export renderer; the
// composition root hands it to export.NewService.
func NewExportStore(st *store.PostgresStore) export.DataStore {
	return newExportStore(st)
}

func (e *exportStore) GetProposalInfo(ctx context.Context, id string) (export.ProposalInfo, error) {
	p, err := e.store.GetProposal(ctx, id)
	if err != nil {
		return export.ProposalInfo{}, err
	}
	return export.ProposalInfo{
		ID:        p.ID,
		Name:      p.Name,
		Number:    p.Number,
		Status:    p.Status,
		Stage:     p.Stage,
		IssueDate: p.IssueDate,
		Activity:  p.Activity,
		Package:   p.Package,
		StrapLine: p.StrapLine,
		StaffName: p.StaffName,
		Rev:       p.Rev,
		ProjectID: identity.LocalID(p.ProjectID),
		CompanyID: identity.LocalID(p.CompanyID),
		ContactID: identity.LocalID(p.ContactID),
	}, nil
}

func (e *exportStore) GetProjectInfo(ctx context.Context, id string) (export.ProjectInfo, error) {
	p, err := e.store.GetProject(ctx, identity.LocalID(id))
	if err != nil {
		return export.ProjectInfo{}, err
	}
	return export.ProjectInfo{
		Name:    p.Name,
		Number:  p.Number,
		City:    p.City,
		Country: p.Country,
	}, nil
}

func (e *exportStore) GetCompanyInfo(ctx context.Context, id string) (export.CompanyInfo, error) {
	local := identity.LocalID(id)
	if local == "" {
		return export.CompanyInfo{}, nil
	}
	c, err := e.store.GetCompany(ctx, local)
	if err != nil {
		if store.IsNotFound(err) {
			return export.CompanyInfo{}, nil
		}
		return export.CompanyInfo{}, err
	}
	return export.CompanyInfo{Name: c.Name, City: c.City}, nil
}

func (e *exportStore) GetContactInfo(ctx context.Context, id string) (export.ContactInfo, error) {
	local := identity.LocalID(id)
	if local == "" {
		return export.ContactInfo{}, nil
	}
	c, err := e.store.GetContact(ctx, local)
	if err != nil {
		if store.IsNotFound(err) {
			return export.ContactInfo{}, nil
		}
		return export.ContactInfo{}, err
	}
	return export.ContactInfo{FullName: c.FullName, Email: c.Email, Position: c.Position}, nil
}

func (e *exportStore) ListRevisionInfo(ctx context.Context, proposalID string) ([]export.RevisionInfo, error) {
	revisions, err := e.store.ListRevisions(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	infos := make([]export.RevisionInfo, 0, len(revisions))
	for _, r := range revisions {
		infos = append(infos, export.RevisionInfo{
			Number:     r.RevisionNumber,
			Date:       r.RevisionDate,
			AuthorName: r.AuthorName,
			Notes:      r.Notes,
		})
	}
	return infos, nil
}
