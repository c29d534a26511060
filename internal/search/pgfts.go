package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across companies, contacts, and projects
// using plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultCompany {
		companyWhere := "co.fts @@ " + tsQuery
		if q.Country != "" {
			companyWhere += fmt.Sprintf(" AND co.country = $%d", argN)
			args = append(args, q.Country)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'company'::text AS type, co.id, co.name AS title,
				ts_headline('english', coalesce(co.city, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				co.country, ''::text AS status,
				ts_rank(co.fts, %s) AS rank
			FROM companies co
			WHERE %s`, tsQuery, tsQuery, companyWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultContact {
		contactWhere := "ct.fts @@ " + tsQuery
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'contact'::text AS type, ct.id, ct.full_name AS title,
				ts_headline('english', coalesce(ct.email, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS country, ''::text AS status,
				ts_rank(ct.fts, %s) AS rank
			FROM contacts ct
			WHERE %s`, tsQuery, tsQuery, contactWhere))
	}

	if q.FilterType == "" || q.FilterType == ResultProject {
		projectWhere := "pr.fts @@ " + tsQuery
		if q.Country != "" {
			projectWhere += fmt.Sprintf(" AND pr.country = $%d", argN)
			args = append(args, q.Country)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'project'::text AS type, pr.id, pr.name AS title,
				ts_headline('english', coalesce(pr.number, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				pr.country, pr.status,
				ts_rank(pr.fts, %s) AS rank
			FROM projects pr
			WHERE %s`, tsQuery, tsQuery, projectWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, country, status
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Country, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]CompanyRecord, []ContactRecord, []ProjectRecord, error) {
	companyRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, name_short, abbreviation, city, country
		FROM companies
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load companies: %w", err)
	}
	defer companyRows.Close()

	companies := make([]CompanyRecord, 0)
	for companyRows.Next() {
		var c CompanyRecord
		if err := companyRows.Scan(&c.ID, &c.Name, &c.NameShort, &c.Abbreviation, &c.City, &c.Country); err != nil {
			return nil, nil, nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := companyRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate companies: %w", err)
	}

	contactRows, err := p.db.QueryContext(ctx, `
		SELECT id, full_name, email, position, company_id
		FROM contacts
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load contacts: %w", err)
	}
	defer contactRows.Close()

	contacts := make([]ContactRecord, 0)
	for contactRows.Next() {
		var c ContactRecord
		if err := contactRows.Scan(&c.ID, &c.FullName, &c.Email, &c.Position, &c.CompanyID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := contactRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate contacts: %w", err)
	}

	projectRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, number, city, country, status
		FROM projects
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load projects: %w", err)
	}
	defer projectRows.Close()

	projects := make([]ProjectRecord, 0)
	for projectRows.Next() {
		var p ProjectRecord
		if err := projectRows.Scan(&p.ID, &p.Name, &p.Number, &p.City, &p.Country, &p.Status); err != nil {
			return nil, nil, nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := projectRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate projects: %w", err)
	}

	return companies, contacts, projects, nil
}
