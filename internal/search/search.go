package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultCompany ResultType = "company"
	ResultContact ResultType = "contact"
	ResultProject ResultType = "project"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Country string     `json:"country,omitempty"`
	Status  string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Country    string
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// CompanyRecord is the data indexed per company.
type CompanyRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	NameShort    string `json:"nameShort"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// ContactRecord is the data indexed per contact.
type ContactRecord struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Position  string `json:"position"`
	CompanyID string `json:"companyId"`
}

// ProjectRecord is the data indexed per project.
type ProjectRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Number  string `json:"number"`
	City    string `json:"city"`
	Country string `json:"country"`
	Status  string `json:"status"`
}
