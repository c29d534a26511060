package store

import "time"

// Table names as used in canonical record ids ("projects:22_96601"). They
// mirror the upstream document-database tables, which is why two of them are
// plural and two are not.
const (
	TableProject  = "projects"
	TableCompany  = "company"
	TableContact  = "contacts"
	TableProposal = "fee"
	TableCountry  = "country"
	TableCurrency = "currency"
)

type Project struct {
	ID            string
	Name          string
	NameShort     string
	Activity      string
	Package       string
	Status        string
	Stage         string
	Area          string
	City          string
	Country       string
	Folder        string
	Number        string // rendered YY-CCCNN
	NumberYear    int
	NumberCountry int
	NumberSeq     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Proposal is a fee proposal. The three foreign keys are stored as
// canonical record ids.
type Proposal struct {
	ID            string
	Name          string
	Number        string // "<project number>-FP"
	ProjectID     string
	CompanyID     string
	ContactID     string
	Status        string
	Stage         string
	IssueDate     string // YYMMDD
	Activity      string
	Package       string
	StrapLine     string
	StaffName     string
	StaffEmail    string
	StaffPhone    string
	StaffPosition string
	Rev           int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Revision is one entry of a proposal's revision log.
type Revision struct {
	ProposalID     string
	RevisionNumber int
	RevisionDate   time.Time
	AuthorName     string
	AuthorEmail    string
	Notes          string
}

type Company struct {
	ID           string
	Name         string
	NameShort    string
	Abbreviation string
	City         string
	Country      string
	RegNo        *string
	TaxNo        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Contact struct {
	ID        string
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Phone     string
	Position  string
	CompanyID string // canonical record id
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Country is reference data; DialCode feeds project numbering.
type Country struct {
	ID           string
	Name         string
	NameFormal   string
	NameOfficial string
	Code         string
	CodeAlt      string
	DialCode     int
	CurrencyCode string
}

type Currency struct {
	ID   string
	Code string
	Name string
}

type User struct {
	ID            string
	DisplayName   string
	Email         string
	PasswordHash  string
	Role          string
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SummaryCounts feeds the dashboard.
type SummaryCounts struct {
	Projects        int
	Companies       int
	Contacts        int
	Proposals       int
	ActiveProposals int // proposals not Lost or Cancelled
}
