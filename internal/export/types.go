// Package export renders fee proposals as printable documents.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// Request contains parameters for an export operation
type Request struct {
	ProposalID       string
	Format           Format
	IncludeRevisions bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ProposalInfo holds the proposal fields rendered into the document.
type ProposalInfo struct {
	ID        string
	Name      string
	Number    string
	Status    string
	Stage     string
	IssueDate string
	Activity  string
	Package   string
	StrapLine string
	StaffName string
	Rev       int
	ProjectID string
	CompanyID string
	ContactID string
}

// ProjectInfo holds the project header fields.
type ProjectInfo struct {
	Name    string
	Number  string
	City    string
	Country string
}

// CompanyInfo holds the addressee company fields.
type CompanyInfo struct {
	Name string
	City string
}

// ContactInfo holds the addressee contact fields.
type ContactInfo struct {
	FullName string
	Email    string
	Position string
}

// RevisionInfo holds one row of the revision table.
type RevisionInfo struct {
	Number     int
	Date       time.Time
	AuthorName string
	Notes      string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
