package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"feeflow/api/internal/numbering"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- projects ----

const projectColumns = `id, name, name_short, activity, package, status, stage, area, city, country, folder,
	number, number_year, number_country, number_seq, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.NameShort, &p.Activity, &p.Package, &p.Status, &p.Stage,
		&p.Area, &p.City, &p.Country, &p.Folder,
		&p.Number, &p.NumberYear, &p.NumberCountry, &p.NumberSeq, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY number DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	return scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, projectID))
}

func (s *PostgresStore) InsertProject(ctx context.Context, p Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, name_short, activity, package, status, stage, area, city, country, folder,
			number, number_year, number_country, number_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.Name, p.NameShort, p.Activity, p.Package, p.Status, p.Stage, p.Area, p.City, p.Country, p.Folder,
		p.Number, p.NumberYear, p.NumberCountry, p.NumberSeq)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p Project) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name=$2, name_short=$3, activity=$4, package=$5, status=$6, stage=$7, area=$8, city=$9,
			country=$10, folder=$11, updated_at=NOW()
		WHERE id=$1
	`, p.ID, p.Name, p.NameShort, p.Activity, p.Package, p.Status, p.Stage, p.Area, p.City, p.Country, p.Folder)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(result, "project", p.ID)
}

func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, projectID, status string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE projects SET status=$2, updated_at=NOW() WHERE id=$1`, projectID, status)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return requireRow(result, "project", projectID)
}

func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, projectID)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return affected > 0, nil
}

// ListProjectNumbers returns the numbering snapshot used by generation and
// the pre-create validation re-check.
func (s *PostgresStore) ListProjectNumbers(ctx context.Context) ([]numbering.ProjectNumber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT number_year, number_country, number_seq FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("list project numbers: %w", err)
	}
	defer rows.Close()

	numbers := make([]numbering.ProjectNumber, 0)
	for rows.Next() {
		var n numbering.ProjectNumber
		if err := rows.Scan(&n.Year, &n.Country, &n.Seq); err != nil {
			return nil, fmt.Errorf("scan project number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project numbers: %w", err)
	}
	return numbers, nil
}

// ---- companies ----

const companyColumns = `id, name, name_short, abbreviation, city, country, reg_no, tax_no, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.NameShort, &c.Abbreviation, &c.City, &c.Country,
		&c.RegNo, &c.TaxNo, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	items := make([]Company, 0)
	for rows.Next() {
		item, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, companyID string) (Company, error) {
	return scanCompany(s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, companyID))
}

func (s *PostgresStore) InsertCompany(ctx context.Context, c Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, name_short, abbreviation, city, country, reg_no, tax_no)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.NameShort, c.Abbreviation, c.City, c.Country, c.RegNo, c.TaxNo)
	if err != nil {
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c Company) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET name=$2, name_short=$3, abbreviation=$4, city=$5, country=$6, reg_no=$7, tax_no=$8, updated_at=NOW()
		WHERE id=$1
	`, c.ID, c.Name, c.NameShort, c.Abbreviation, c.City, c.Country, c.RegNo, c.TaxNo)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return requireRow(result, "company", c.ID)
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, companyID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id=$1`, companyID)
	if err != nil {
		return false, fmt.Errorf("delete company: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete company: %w", err)
	}
	return affected > 0, nil
}

// ---- contacts ----

const contactColumns = `id, first_name, last_name, full_name, email, phone, position, company_id, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.FullName, &c.Email, &c.Phone,
		&c.Position, &c.CompanyID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) ListContacts(ctx context.Context) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY full_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	items := make([]Contact, 0)
	for rows.Next() {
		item, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetContact(ctx context.Context, contactID string) (Contact, error) {
	return scanContact(s.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id=$1`, contactID))
}

func (s *PostgresStore) InsertContact(ctx context.Context, c Contact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, first_name, last_name, full_name, email, phone, position, company_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.FirstName, c.LastName, c.FullName, c.Email, c.Phone, c.Position, c.CompanyID)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateContact(ctx context.Context, c Contact) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET first_name=$2, last_name=$3, full_name=$4, email=$5, phone=$6, position=$7, company_id=$8, updated_at=NOW()
		WHERE id=$1
	`, c.ID, c.FirstName, c.LastName, c.FullName, c.Email, c.Phone, c.Position, c.CompanyID)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return requireRow(result, "contact", c.ID)
}

func (s *PostgresStore) DeleteContact(ctx context.Context, contactID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1`, contactID)
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete contact: %w", err)
	}
	return affected > 0, nil
}

// ---- proposals ----

const proposalColumns = `id, name, number, project_id, company_id, contact_id, status, stage, issue_date,
	activity, package, strap_line, staff_name, staff_email, staff_phone, staff_position, rev, created_at, updated_at`

func scanProposal(row interface{ Scan(...any) error }) (Proposal, error) {
	var p Proposal
	err := row.Scan(&p.ID, &p.Name, &p.Number, &p.ProjectID, &p.CompanyID, &p.ContactID,
		&p.Status, &p.Stage, &p.IssueDate, &p.Activity, &p.Package, &p.StrapLine,
		&p.StaffName, &p.StaffEmail, &p.StaffPhone, &p.StaffPosition, &p.Rev, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) ListProposals(ctx context.Context) ([]Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+proposalColumns+` FROM proposals ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	items := make([]Proposal, 0)
	for rows.Next() {
		item, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProposal(ctx context.Context, proposalID string) (Proposal, error) {
	return scanProposal(s.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id=$1`, proposalID))
}

func (s *PostgresStore) InsertProposal(ctx context.Context, p Proposal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (id, name, number, project_id, company_id, contact_id, status, stage, issue_date,
			activity, package, strap_line, staff_name, staff_email, staff_phone, staff_position, rev)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, p.ID, p.Name, p.Number, p.ProjectID, p.CompanyID, p.ContactID, p.Status, p.Stage, p.IssueDate,
		p.Activity, p.Package, p.StrapLine, p.StaffName, p.StaffEmail, p.StaffPhone, p.StaffPosition, p.Rev)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProposal(ctx context.Context, p Proposal) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE proposals
		SET name=$2, project_id=$3, company_id=$4, contact_id=$5, status=$6, stage=$7, issue_date=$8,
			activity=$9, package=$10, strap_line=$11, staff_name=$12, staff_email=$13, staff_phone=$14,
			staff_position=$15, rev=$16, updated_at=NOW()
		WHERE id=$1
	`, p.ID, p.Name, p.ProjectID, p.CompanyID, p.ContactID, p.Status, p.Stage, p.IssueDate,
		p.Activity, p.Package, p.StrapLine, p.StaffName, p.StaffEmail, p.StaffPhone, p.StaffPosition, p.Rev)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return requireRow(result, "proposal", p.ID)
}

func (s *PostgresStore) UpdateProposalStatus(ctx context.Context, proposalID, status, stage string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE proposals SET status=$2, stage=$3, updated_at=NOW() WHERE id=$1
	`, proposalID, status, stage)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	return requireRow(result, "proposal", proposalID)
}

func (s *PostgresStore) DeleteProposal(ctx context.Context, proposalID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id=$1`, proposalID)
	if err != nil {
		return false, fmt.Errorf("delete proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete proposal: %w", err)
	}
	return affected > 0, nil
}

// ---- revisions ----

func (s *PostgresStore) ListRevisions(ctx context.Context, proposalID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT proposal_id, revision_number, revision_date, author_name, author_email, notes
		FROM proposal_revisions
		WHERE proposal_id=$1
		ORDER BY revision_number ASC
	`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	items := make([]Revision, 0)
	for rows.Next() {
		var item Revision
		if err := rows.Scan(&item.ProposalID, &item.RevisionNumber, &item.RevisionDate,
			&item.AuthorName, &item.AuthorEmail, &item.Notes); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertRevision(ctx context.Context, r Revision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposal_revisions (proposal_id, revision_number, revision_date, author_name, author_email, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ProposalID, r.RevisionNumber, r.RevisionDate, r.AuthorName, r.AuthorEmail, r.Notes)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// ---- countries ----

const countryColumns = `id, name, name_formal, name_official, code, code_alt, dial_code, currency_code`

func (s *PostgresStore) ListCountries(ctx context.Context) ([]Country, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+countryColumns+` FROM countries ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	items := make([]Country, 0)
	for rows.Next() {
		var item Country
		if err := rows.Scan(&item.ID, &item.Name, &item.NameFormal, &item.NameOfficial,
			&item.Code, &item.CodeAlt, &item.DialCode, &item.CurrencyCode); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertCountry(ctx context.Context, c Country) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO countries (`+countryColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.Name, c.NameFormal, c.NameOfficial, c.Code, c.CodeAlt, c.DialCode, c.CurrencyCode)
	if err != nil {
		return fmt.Errorf("insert country: %w", err)
	}
	return nil
}

// GetCountryByName resolves a country by its common, formal, or official
// name; numbering needs its dial code.
func (s *PostgresStore) GetCountryByName(ctx context.Context, name string) (Country, error) {
	var item Country
	err := s.db.QueryRowContext(ctx, `
		SELECT `+countryColumns+`
		FROM countries
		WHERE name=$1 OR name_formal=$1 OR name_official=$1
		LIMIT 1
	`, name).Scan(&item.ID, &item.Name, &item.NameFormal, &item.NameOfficial,
		&item.Code, &item.CodeAlt, &item.DialCode, &item.CurrencyCode)
	if err != nil {
		return Country{}, err
	}
	return item, nil
}

// ---- summary ----

func (s *PostgresStore) Summary(ctx context.Context) (SummaryCounts, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM projects),
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM contacts),
			(SELECT COUNT(*) FROM proposals),
			(SELECT COUNT(*) FROM proposals WHERE status NOT IN ('Lost', 'Cancelled'))
	`
	var counts SummaryCounts
	err := s.db.QueryRowContext(ctx, query).Scan(&counts.Projects, &counts.Companies,
		&counts.Contacts, &counts.Proposals, &counts.ActiveProposals)
	if err != nil {
		return SummaryCounts{}, fmt.Errorf("summary counts: %w", err)
	}
	return counts, nil
}

// CountProposalsByStatus feeds the dashboard status breakdown.
func (s *PostgresStore) CountProposalsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM proposals GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count proposals by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// ---- users ----

const userColumns = `id, display_name, email, password_hash, role, deactivated_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.PasswordHash, &u.Role,
		&u.DeactivatedAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1 AND deactivated_at IS NULL`, email))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID))
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) error {
	role := u.Role
	if role == "" {
		role = "editor"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.DisplayName, u.Email, u.PasswordHash, role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(result, "user", userID)
}

// ---- shared ----

// ErrNotFound reports an update against a missing row; callers translate it
// to their own not-found error.
var ErrNotFound = errors.New("record not found")

func requireRow(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// IsNotFound covers both missing reads and missing writes.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally restricted to one named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
