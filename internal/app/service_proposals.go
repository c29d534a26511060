package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feeflow/api/internal/docrepo"
	"feeflow/api/internal/editing"
	"feeflow/api/internal/email"
	"feeflow/api/internal/export"
	"feeflow/api/internal/identity"
	"feeflow/api/internal/statussync"
	"feeflow/api/internal/store"
	"feeflow/api/internal/util"
)

// ProposalInput is the write payload for fee proposals. The three foreign
// keys accept any identifier representation; ConfirmSync acknowledges a
// previously returned SYNC_CONFIRMATION_REQUIRED response.
type ProposalInput struct {
	Name          string `json:"name"`
	ProjectID     any    `json:"projectId"`
	CompanyID     any    `json:"companyId"`
	ContactID     any    `json:"contactId"`
	Status        string `json:"status"`
	Stage         string `json:"stage"`
	Activity      string `json:"activity"`
	Package       string `json:"package"`
	StrapLine     string `json:"strapLine"`
	StaffName     string `json:"staffName"`
	StaffEmail    string `json:"staffEmail"`
	StaffPhone    string `json:"staffPhone"`
	StaffPosition string `json:"staffPosition"`
	Notes         string `json:"notes"`
	ConfirmSync   bool   `json:"confirmSync"`
}

// IssueInput drives the issue operation.
type IssueInput struct {
	Notes     string `json:"notes"`
	SendEmail bool   `json:"sendEmail"`
	EmailTo   string `json:"emailTo"`
}

func (s *Service) ListProposals(ctx context.Context) ([]map[string]any, error) {
	proposals, err := s.store.ListProposals(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(proposals))
	s.withEditing(func(session *editing.Session) {
		for _, p := range proposals {
			items = append(items, proposalPayload(p, session))
		}
	})
	return items, nil
}

func (s *Service) GetProposal(ctx context.Context, id string) (map[string]any, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	revisions, err := s.store.ListRevisions(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = proposalPayload(proposal, session)
	})
	payload["revisions"] = revisionPayloads(revisions)
	return payload, nil
}

func (s *Service) CreateProposal(ctx context.Context, input ProposalInput, author string) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationError("Proposal name is required")
	}
	if input.ProjectID == nil {
		return nil, validationError("Proposal project is required")
	}

	projectID, err := s.resolveRelation(input.ProjectID, "project")
	if err != nil {
		return nil, err
	}
	companyID, err := s.resolveRelation(input.CompanyID, "company")
	if err != nil {
		return nil, err
	}
	contactID, err := s.resolveRelation(input.ContactID, "contact")
	if err != nil {
		return nil, err
	}

	project, err := s.store.GetProject(ctx, identity.LocalID(projectID))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, missingRelation("project", projectID)
		}
		return nil, err
	}

	now := time.Now()
	proposal := store.Proposal{
		ID:            util.NewID("fee"),
		Name:          strings.TrimSpace(input.Name),
		Number:        project.Number + "-FP",
		ProjectID:     projectID,
		CompanyID:     companyID,
		ContactID:     contactID,
		Status:        firstNonBlank(input.Status, "Draft"),
		Stage:         input.Stage,
		Activity:      firstNonBlank(input.Activity, project.Activity),
		Package:       firstNonBlank(input.Package, project.Package),
		StrapLine:     input.StrapLine,
		StaffName:     input.StaffName,
		StaffEmail:    input.StaffEmail,
		StaffPhone:    input.StaffPhone,
		StaffPosition: input.StaffPosition,
		Rev:           0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.InsertProposal(ctx, proposal); err != nil {
		return nil, err
	}
	if s.docs != nil {
		logBackgroundError("init proposal repo",
			s.docs.EnsureRepo(proposal.ID, snapshotOf(proposal, input.Notes), author))
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = proposalPayload(proposal, session)
	})
	return payload, nil
}

// UpdateProposal saves a proposal edit. When the status change maps to a
// project status change, the save is rejected with SYNC_CONFIRMATION_REQUIRED
// until the client resubmits with ConfirmSync. The proposal write and the
// project write are two separate statements; a failure between them surfaces
// as PARTIAL_SYNC_FAILURE so the caller knows the proposal half landed.
func (s *Service) UpdateProposal(ctx context.Context, id string, input ProposalInput, author string) (map[string]any, error) {
	existing, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationError("Proposal name is required")
	}

	updated := existing
	updated.Name = strings.TrimSpace(input.Name)
	updated.Status = firstNonBlank(input.Status, existing.Status)
	updated.Stage = input.Stage
	updated.Activity = input.Activity
	updated.Package = input.Package
	updated.StrapLine = input.StrapLine
	updated.StaffName = input.StaffName
	updated.StaffEmail = input.StaffEmail
	updated.StaffPhone = input.StaffPhone
	updated.StaffPosition = input.StaffPosition
	updated.UpdatedAt = time.Now()

	if input.ProjectID != nil {
		projectID, err := s.resolveRelation(input.ProjectID, "project")
		if err != nil {
			return nil, err
		}
		if identity.LocalID(projectID) != identity.LocalID(existing.ProjectID) {
			return nil, validationError("Proposal cannot move to another project")
		}
	}
	if input.CompanyID != nil {
		if updated.CompanyID, err = s.resolveRelation(input.CompanyID, "company"); err != nil {
			return nil, err
		}
	}
	if input.ContactID != nil {
		if updated.ContactID, err = s.resolveRelation(input.ContactID, "contact"); err != nil {
			return nil, err
		}
	}

	plan := s.planSync(existing.Status, updated.Status)
	if plan.Action == statussync.ProjectStatusWouldChange && !input.ConfirmSync {
		return nil, domainError(http.StatusConflict, "SYNC_CONFIRMATION_REQUIRED",
			"Saving this status also changes the project status; resubmit with confirmSync",
			map[string]any{
				"projectId":     identity.LocalID(existing.ProjectID),
				"projectStatus": string(plan.Target),
				"oldStatus":     existing.Status,
				"newStatus":     updated.Status,
			})
	}

	if err := s.store.UpdateProposal(ctx, updated); err != nil {
		return nil, err
	}
	if plan.Action == statussync.ProjectStatusWouldChange {
		projectLocal := identity.LocalID(existing.ProjectID)
		if err := s.store.UpdateProjectStatus(ctx, projectLocal, string(plan.Target)); err != nil {
			return nil, partialSyncFailure(updated.ID, string(plan.Target), err)
		}
		s.withEditing(func(session *editing.Session) {
			if project, ok := session.ProjectOf(updated); ok && s.search != nil {
				project.Status = string(plan.Target)
				s.search.IndexProject(projectSearchRecord(project))
			}
		})
	}

	if s.docs != nil {
		_, commitErr := s.docs.CommitSnapshot(updated.ID, snapshotOf(updated, input.Notes), author, "Update proposal")
		logBackgroundError("commit proposal snapshot", commitErr)
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = proposalPayload(updated, session)
	})
	return payload, nil
}

// IssueProposal bumps the revision, stamps the issue date, moves the
// proposal to Sent, and records the revision in both the log table and the
// proposal's document repository. Issuing implies the project sync; no
// confirmation round-trip here.
func (s *Service) IssueProposal(ctx context.Context, id string, input IssueInput, author string) (map[string]any, error) {
	existing, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updated := existing
	updated.Rev = existing.Rev + 1
	updated.IssueDate = now.Format("060102")
	updated.Status = "Sent"
	updated.UpdatedAt = now

	plan := s.planSync(existing.Status, updated.Status)

	if err := s.store.UpdateProposal(ctx, updated); err != nil {
		return nil, err
	}
	if plan.Action == statussync.ProjectStatusWouldChange {
		projectLocal := identity.LocalID(existing.ProjectID)
		if err := s.store.UpdateProjectStatus(ctx, projectLocal, string(plan.Target)); err != nil {
			return nil, partialSyncFailure(updated.ID, string(plan.Target), err)
		}
	}

	revision := store.Revision{
		ProposalID:     updated.ID,
		RevisionNumber: updated.Rev,
		RevisionDate:   now,
		AuthorName:     author,
		Notes:          input.Notes,
	}
	if err := s.store.InsertRevision(ctx, revision); err != nil {
		return nil, err
	}

	if s.docs != nil {
		message := fmt.Sprintf("Issue rev %d", updated.Rev)
		commit, commitErr := s.docs.CommitSnapshot(updated.ID, snapshotOf(updated, input.Notes), author, message)
		if commitErr != nil {
			logBackgroundError("commit issue snapshot", commitErr)
		} else {
			logBackgroundError("tag revision", s.docs.TagRevision(updated.ID, commit.Hash, updated.Rev))
		}
	}

	emailSent := false
	if input.SendEmail {
		emailSent = s.sendIssueEmail(ctx, updated, input.EmailTo, author)
	}

	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = proposalPayload(updated, session)
	})
	payload["emailSent"] = emailSent
	return payload, nil
}

// PlanProposalSync previews the project-side effect of a status edit
// without saving anything, so the UI can ask for confirmation up front.
func (s *Service) PlanProposalSync(ctx context.Context, id, newStatus string) (map[string]any, error) {
	proposal, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := s.planSync(proposal.Status, newStatus)
	payload := map[string]any{
		"oldStatus":           proposal.Status,
		"newStatus":           newStatus,
		"projectStatusChange": plan.Action == statussync.ProjectStatusWouldChange,
	}
	if plan.Action == statussync.ProjectStatusWouldChange {
		payload["projectId"] = identity.LocalID(proposal.ProjectID)
		payload["projectStatus"] = string(plan.Target)
	}
	return payload, nil
}

// sendIssueEmail delivers the issued proposal to the addressee. The PDF
// attachment is best effort: if rendering fails the notification still goes
// out without it.
func (s *Service) sendIssueEmail(ctx context.Context, proposal store.Proposal, to, author string) bool {
	if s.mail == nil || !s.mail.IsConfigured() {
		return false
	}

	contactName := ""
	s.withEditing(func(session *editing.Session) {
		if contact, ok := session.ContactOf(proposal); ok {
			contactName = contact.FullName
			if to == "" {
				to = contact.Email
			}
		}
	})
	if to == "" {
		return false
	}

	var pdf []byte
	var filename string
	if s.exporter != nil {
		if result, err := s.exporter.Export(ctx, export.Request{ProposalID: proposal.ID, Format: export.FormatPDF}); err != nil {
			logBackgroundError("render proposal pdf", err)
		} else {
			pdf = result.Data
			filename = result.Filename
		}
	}

	err := s.mail.SendProposal(to, email.ProposalData{
		AppName:      "Feeflow",
		ContactName:  contactName,
		ProposalName: proposal.Name,
		Number:       proposal.Number,
		Rev:          proposal.Rev,
		StaffName:    firstNonBlank(proposal.StaffName, author),
	}, pdf, filename)
	if err != nil {
		logBackgroundError("send proposal email", err)
		return false
	}
	return true
}

func (s *Service) DeleteProposal(ctx context.Context, id string) error {
	found, err := s.store.DeleteProposal(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("proposal %s: %w", id, store.ErrNotFound)
	}
	return s.refreshEditing(ctx)
}

func (s *Service) ProposalRevisions(ctx context.Context, id string) ([]map[string]any, error) {
	if _, err := s.store.GetProposal(ctx, id); err != nil {
		return nil, err
	}
	revisions, err := s.store.ListRevisions(ctx, id)
	if err != nil {
		return nil, err
	}
	return revisionPayloads(revisions), nil
}

// ProposalHistory lists the proposal's document-repository commits, newest
// first.
func (s *Service) ProposalHistory(ctx context.Context, id string, limit int) ([]map[string]any, error) {
	if _, err := s.store.GetProposal(ctx, id); err != nil {
		return nil, err
	}
	if s.docs == nil {
		return []map[string]any{}, nil
	}
	commits, err := s.docs.History(id, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(commits))
	for _, c := range commits {
		items = append(items, map[string]any{
			"hash":      c.Hash,
			"message":   c.Message,
			"author":    c.Author,
			"createdAt": c.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) ExportProposal(ctx context.Context, id, format string, includeRevisions bool) (*export.Result, error) {
	if _, err := s.store.GetProposal(ctx, id); err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE",
			"Export is not configured", nil)
	}

	var f export.Format
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "pdf":
		f = export.FormatPDF
	case "html":
		f = export.FormatHTML
	default:
		return nil, validationError(fmt.Sprintf("Unsupported export format %q", format))
	}

	result, err := s.exporter.Export(ctx, export.Request{
		ProposalID:       id,
		Format:           f,
		IncludeRevisions: includeRevisions,
	})
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE",
				"No PDF renderer is available on this host", nil)
		}
		return nil, err
	}
	return result, nil
}

// resolveRelation canonicalizes a foreign-key input and checks it against
// the editing snapshot. nil means the relation is intentionally absent.
func (s *Service) resolveRelation(raw any, kind string) (string, error) {
	if raw == nil {
		return "", nil
	}
	id, ok := identity.Resolve(raw)
	if !ok {
		return "", invalidIdentifier(raw)
	}
	var known bool
	s.withEditing(func(session *editing.Session) {
		switch kind {
		case "project":
			_, known = session.ProjectName(id)
		case "company":
			_, known = session.CompanyName(id)
		case "contact":
			_, known = session.ContactName(id)
		}
	})
	if !known {
		return "", missingRelation(kind, id.String())
	}
	return id.String(), nil
}

func (s *Service) planSync(oldStatus, newStatus string) statussync.Plan {
	var plan statussync.Plan
	s.withEditing(func(session *editing.Session) {
		plan = session.PlanStatusSync(oldStatus, newStatus)
	})
	return plan
}

// proposalPayload renders a proposal with its related display names. A
// relation missing from the snapshot yields a null name instead of failing:
// listing must survive dangling references.
func proposalPayload(p store.Proposal, session *editing.Session) map[string]any {
	payload := map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"number":        p.Number,
		"projectId":     identity.LocalID(p.ProjectID),
		"companyId":     identity.LocalID(p.CompanyID),
		"contactId":     identity.LocalID(p.ContactID),
		"projectName":   nil,
		"companyName":   nil,
		"contactName":   nil,
		"status":        p.Status,
		"stage":         p.Stage,
		"issueDate":     p.IssueDate,
		"activity":      p.Activity,
		"package":       p.Package,
		"strapLine":     p.StrapLine,
		"staffName":     p.StaffName,
		"staffEmail":    p.StaffEmail,
		"staffPhone":    p.StaffPhone,
		"staffPosition": p.StaffPosition,
		"rev":           p.Rev,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
	if name, ok := session.ProjectName(p.ProjectID); ok {
		payload["projectName"] = name
	}
	if name, ok := session.CompanyName(p.CompanyID); ok {
		payload["companyName"] = name
	}
	if name, ok := session.ContactName(p.ContactID); ok {
		payload["contactName"] = name
	}
	return payload
}

func revisionPayloads(revisions []store.Revision) []map[string]any {
	items := make([]map[string]any, 0, len(revisions))
	for _, r := range revisions {
		items = append(items, map[string]any{
			"rev":        r.RevisionNumber,
			"date":       r.RevisionDate,
			"authorName": r.AuthorName,
			"notes":      r.Notes,
		})
	}
	return items
}

func snapshotOf(p store.Proposal, notes string) docrepo.Snapshot {
	return docrepo.Snapshot{
		Name:      p.Name,
		Number:    p.Number,
		Status:    p.Status,
		Stage:     p.Stage,
		IssueDate: p.IssueDate,
		Activity:  p.Activity,
		Package:   p.Package,
		StrapLine: p.StrapLine,
		Rev:       p.Rev,
		Notes:     notes,
	}
}
