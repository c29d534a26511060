package export

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25-97105 Coastal Tower", "25-97105-Coastal-Tower"},
		{"Fee Proposal v1.2", "Fee-Proposal-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "proposal"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderProposalHTML(t *testing.T) {
	data := TemplateData{
		Proposal: ProposalInfo{
			Name:      "Coastal Tower Fee Proposal",
			Number:    "25-97105-FP",
			Status:    "Sent",
			IssueDate: "250825",
			Activity:  "Structural Engineering",
			Package:   "Concept Design",
			StrapLine: "Concept to completion",
			StaffName: "Martin Robert",
			Rev:       2,
		},
		Project: ProjectInfo{Name: "Coastal Tower", Number: "25-97105", City: "Hamburg", Country: "Germany"},
		Company: CompanyInfo{Name: "Harbour Development GmbH", City: "Hamburg"},
		Contact: ContactInfo{FullName: "Greta Lang", Email: "greta@harbour.example", Position: "Director"},
		Revisions: []RevisionInfo{
			{Number: 1, Date: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), AuthorName: "Martin Robert", Notes: "First issue"},
		},
		Generated: time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC),
	}

	html, err := RenderProposalHTML(data)
	if err != nil {
		t.Fatalf("RenderProposalHTML() error = %v", err)
	}

	for _, want := range []string{
		"25-97105-FP",
		"Coastal Tower Fee Proposal",
		"Harbour Development GmbH",
		"Greta Lang",
		"Structural Engineering",
		"Revision History",
		"First issue",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

type fakeExportStore struct {
	proposal ProposalInfo
	project  ProjectInfo
	company  CompanyInfo
	contact  ContactInfo
	revs     []RevisionInfo
}

func (f *fakeExportStore) GetProposalInfo(context.Context, string) (ProposalInfo, error) {
	return f.proposal, nil
}
func (f *fakeExportStore) GetProjectInfo(context.Context, string) (ProjectInfo, error) {
	return f.project, nil
}
func (f *fakeExportStore) GetCompanyInfo(context.Context, string) (CompanyInfo, error) {
	return f.company, nil
}
func (f *fakeExportStore) GetContactInfo(context.Context, string) (ContactInfo, error) {
	return f.contact, nil
}
func (f *fakeExportStore) ListRevisionInfo(context.Context, string) ([]RevisionInfo, error) {
	return f.revs, nil
}

func TestExportHTMLFormat(t *testing.T) {
	svc := NewService(&fakeExportStore{
		proposal: ProposalInfo{Name: "Fee Proposal", Number: "25-97105-FP", ProjectID: "p1", CompanyID: "c1", ContactID: "ct1"},
		project:  ProjectInfo{Name: "Coastal Tower", Number: "25-97105"},
		company:  CompanyInfo{Name: "Harbour Development GmbH"},
		contact:  ContactInfo{FullName: "Greta Lang"},
	})

	result, err := svc.Export(context.Background(), Request{ProposalID: "fee-1", Format: FormatHTML})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.MimeType != "text/html; charset=utf-8" {
		t.Errorf("MimeType = %q", result.MimeType)
	}
	if !strings.HasSuffix(result.Filename, ".html") {
		t.Errorf("Filename = %q", result.Filename)
	}
	if !strings.Contains(string(result.Data), "25-97105-FP") {
		t.Error("exported HTML missing proposal number")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewService(&fakeExportStore{})
	if _, err := svc.Export(context.Background(), Request{ProposalID: "fee-1", Format: "docx"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
