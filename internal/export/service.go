package export

import (
	"context"
	"fmt"
	"time"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetProposalInfo(ctx context.Context, id string) (ProposalInfo, error)
	GetProjectInfo(ctx context.Context, id string) (ProjectInfo, error)
	GetCompanyInfo(ctx context.Context, id string) (CompanyInfo, error)
	GetContactInfo(ctx context.Context, id string) (ContactInfo, error)
	ListRevisionInfo(ctx context.Context, proposalID string) ([]RevisionInfo, error)
}

// Service renders proposals for download or delivery.
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	html, proposal, err := s.render(ctx, req)
	if err != nil {
		return nil, err
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, proposal.Number+" "+proposal.Name)
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(proposal.Number+" "+proposal.Name) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

// RenderHTML returns the rendered document without conversion, for preview
// and email delivery.
func (s *Service) RenderHTML(ctx context.Context, req Request) (string, error) {
	html, _, err := s.render(ctx, req)
	return html, err
}

func (s *Service) render(ctx context.Context, req Request) (string, ProposalInfo, error) {
	proposal, err := s.store.GetProposalInfo(ctx, req.ProposalID)
	if err != nil {
		return "", ProposalInfo{}, fmt.Errorf("get proposal: %w", err)
	}
	project, err := s.store.GetProjectInfo(ctx, proposal.ProjectID)
	if err != nil {
		return "", ProposalInfo{}, fmt.Errorf("get project: %w", err)
	}
	company, err := s.store.GetCompanyInfo(ctx, proposal.CompanyID)
	if err != nil {
		return "", ProposalInfo{}, fmt.Errorf("get company: %w", err)
	}
	contact, err := s.store.GetContactInfo(ctx, proposal.ContactID)
	if err != nil {
		return "", ProposalInfo{}, fmt.Errorf("get contact: %w", err)
	}

	data := TemplateData{
		Proposal:  proposal,
		Project:   project,
		Company:   company,
		Contact:   contact,
		Generated: time.Now(),
	}

	if req.IncludeRevisions {
		revisions, err := s.store.ListRevisionInfo(ctx, req.ProposalID)
		if err != nil {
			return "", ProposalInfo{}, fmt.Errorf("list revisions: %w", err)
		}
		data.Revisions = revisions
	}

	html, err := RenderProposalHTML(data)
	if err != nil {
		return "", ProposalInfo{}, fmt.Errorf("render template: %w", err)
	}
	return html, proposal, nil
}
