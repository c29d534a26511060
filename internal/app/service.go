package app

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"feeflow/api/internal/auth"
	"feeflow/api/internal/authpw"
	"feeflow/api/internal/config"
	"feeflow/api/internal/docrepo"
	"feeflow/api/internal/editing"
	"feeflow/api/internal/email"
	"feeflow/api/internal/export"
	"feeflow/api/internal/folders"
	"feeflow/api/internal/numbering"
	"feeflow/api/internal/reserve"
	"feeflow/api/internal/search"
	"feeflow/api/internal/session"
	"feeflow/api/internal/store"
	"feeflow/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	ListProjects(context.Context) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	InsertProject(context.Context, store.Project) error
	UpdateProject(context.Context, store.Project) error
	UpdateProjectStatus(context.Context, string, string) error
	DeleteProject(context.Context, string) (bool, error)
	ListProjectNumbers(context.Context) ([]numbering.ProjectNumber, error)

	ListCompanies(context.Context) ([]store.Company, error)
	GetCompany(context.Context, string) (store.Company, error)
	InsertCompany(context.Context, store.Company) error
	UpdateCompany(context.Context, store.Company) error
	DeleteCompany(context.Context, string) (bool, error)

	ListContacts(context.Context) ([]store.Contact, error)
	GetContact(context.Context, string) (store.Contact, error)
	InsertContact(context.Context, store.Contact) error
	UpdateContact(context.Context, store.Contact) error
	DeleteContact(context.Context, string) (bool, error)

	ListProposals(context.Context) ([]store.Proposal, error)
	GetProposal(context.Context, string) (store.Proposal, error)
	InsertProposal(context.Context, store.Proposal) error
	UpdateProposal(context.Context, store.Proposal) error
	UpdateProposalStatus(context.Context, string, string, string) error
	DeleteProposal(context.Context, string) (bool, error)

	ListRevisions(context.Context, string) ([]store.Revision, error)
	InsertRevision(context.Context, store.Revision) error

	ListCountries(context.Context) ([]store.Country, error)
	GetCountryByName(context.Context, string) (store.Country, error)
	InsertCountry(context.Context, store.Country) error
	Summary(context.Context) (store.SummaryCounts, error)
	CountProposalsByStatus(context.Context) (map[string]int, error)

	GetUserByID(context.Context, string) (store.User, error)

	Ping(context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

type numberReserver interface {
	Reserve(ctx context.Context, country, year, seq int, owner string) error
	Release(ctx context.Context, country, year, seq int, owner string) error
}

type docService interface {
	EnsureRepo(proposalID string, initial docrepo.Snapshot, author string) error
	CommitSnapshot(proposalID string, snapshot docrepo.Snapshot, author, message string) (docrepo.CommitInfo, error)
	TagRevision(proposalID, hash string, rev int) error
	History(proposalID string, limit int) ([]docrepo.CommitInfo, error)
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexCompany(c search.CompanyRecord)
	IndexContact(c search.ContactRecord)
	IndexProject(p search.ProjectRecord)
	DeleteCompany(id string)
	DeleteContact(id string)
	DeleteProject(id string)
	ReindexAllFromPG(ctx context.Context)
}

type folderService interface {
	Provision(ctx context.Context, number, projectName string) (string, error)
}

type mailer interface {
	IsConfigured() bool
	SendProposal(to string, data email.ProposalData, pdf []byte, pdfFilename string) error
}

type exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	reserver numberReserver
	docs     docService
	search   searchIndex
	folders  folderService
	mail     mailer
	exporter exporter
	authpw   *authpw.Service

	mu      sync.RWMutex
	editing *editing.Session
}

// New wires the service. reserver, foldersSvc, and mail are optional; the
// rest are required.
func New(
	cfg config.Config,
	dataStore *store.PostgresStore,
	sessions *session.RedisStore,
	reserver *reserve.Reserver,
	docs *docrepo.Service,
	searchSvc *search.Service,
	foldersSvc *folders.Service,
	mail *email.Service,
	exportSvc *export.Service,
) *Service {
	s := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		docs:     docs,
		search:   searchSvc,
		exporter: exportSvc,
		authpw:   authpw.NewService(dataStore),
		editing:  editing.NewSession(editing.Snapshots{}),
	}
	if reserver != nil {
		s.reserver = reserver
	}
	if foldersSvc != nil {
		s.folders = foldersSvc
	}
	if mail != nil {
		s.mail = mail
	}
	return s
}

// Bootstrap seeds reference data on an empty database, loads the editing
// snapshots, and pushes everything into the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	countries, err := s.store.ListCountries(ctx)
	if err != nil {
		return err
	}
	if len(countries) == 0 {
		seeds := []store.Country{
			{ID: util.NewID("cty"), Name: "United Arab Emirates", Code: "AE", CodeAlt: "ARE", DialCode: 971, CurrencyCode: "AED"},
			{ID: util.NewID("cty"), Name: "Saudi Arabia", Code: "SA", CodeAlt: "SAU", DialCode: 966, CurrencyCode: "SAR"},
			{ID: util.NewID("cty"), Name: "Qatar", Code: "QA", CodeAlt: "QAT", DialCode: 974, CurrencyCode: "QAR"},
			{ID: util.NewID("cty"), Name: "Oman", Code: "OM", CodeAlt: "OMN", DialCode: 968, CurrencyCode: "OMR"},
			{ID: util.NewID("cty"), Name: "United Kingdom", Code: "GB", CodeAlt: "GBR", DialCode: 44, CurrencyCode: "GBP"},
			{ID: util.NewID("cty"), Name: "Germany", Code: "DE", CodeAlt: "DEU", DialCode: 49, CurrencyCode: "EUR"},
		}
		for _, seed := range seeds {
			if err := s.store.InsertCountry(ctx, seed); err != nil {
				return err
			}
		}
	}

	if err := s.refreshEditing(ctx); err != nil {
		return err
	}
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}

// refreshEditing replaces the facade's snapshots with a fresh read of the
// four entity tables. Called after every mutation.
func (s *Service) refreshEditing(ctx context.Context) error {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return err
	}
	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return err
	}
	proposals, err := s.store.ListProposals(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing.Reload(editing.Snapshots{
		Projects:  projects,
		Companies: companies,
		Contacts:  contacts,
		Proposals: proposals,
	})
	return nil
}

func (s *Service) withEditing(fn func(session *editing.Session)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.editing)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ── Auth ──

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	user, err := s.authpw.SignUp(ctx, authpw.SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.Issue([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.Parse([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	return s.authpw.ChangePassword(ctx, userID, current, next)
}

// CanWrite reports whether a role may mutate data. Viewers are read-only;
// everybody else (editor, admin) can write.
func (s *Service) CanWrite(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "viewer", "":
		return false
	default:
		return true
	}
}

// ── Search ──

func (s *Service) Search(ctx context.Context, q, filterType, country string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q}, nil
	}
	return s.search.Search(search.Query{
		Text:       q,
		FilterType: search.ResultType(filterType),
		Country:    country,
		Limit:      limit,
		Offset:     offset,
	}), nil
}

// ── Reference data and summary ──

func (s *Service) Countries(ctx context.Context) ([]map[string]any, error) {
	countries, err := s.store.ListCountries(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(countries))
	for _, c := range countries {
		items = append(items, map[string]any{
			"id":           c.ID,
			"name":         c.Name,
			"code":         c.Code,
			"dialCode":     c.DialCode,
			"currencyCode": c.CurrencyCode,
		})
	}
	return items, nil
}

func (s *Service) Summary(ctx context.Context) (map[string]any, error) {
	counts, err := s.store.Summary(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.store.CountProposalsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"projects":          counts.Projects,
		"companies":         counts.Companies,
		"contacts":          counts.Contacts,
		"proposals":         counts.Proposals,
		"activeProposals":   counts.ActiveProposals,
		"proposalsByStatus": byStatus,
	}, nil
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func logBackgroundError(operation string, err error) {
	if err != nil {
		log.Printf("%s: %v", operation, err)
	}
}
