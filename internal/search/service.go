package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexCompany indexes a company (fire-and-forget to Meilisearch).
func (s *Service) IndexCompany(c CompanyRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexCompany(c); err != nil {
			log.Printf("search: index company %s: %v", c.ID, err)
		}
	}()
}

// IndexContact indexes a contact (fire-and-forget to Meilisearch).
func (s *Service) IndexContact(c ContactRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexContact(c); err != nil {
			log.Printf("search: index contact %s: %v", c.ID, err)
		}
	}()
}

// IndexProject indexes a project (fire-and-forget to Meilisearch).
func (s *Service) IndexProject(p ProjectRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexProject(p); err != nil {
			log.Printf("search: index project %s: %v", p.ID, err)
		}
	}()
}

// DeleteCompany removes a company from the search index (fire-and-forget).
func (s *Service) DeleteCompany(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteCompany(id); err != nil {
			log.Printf("search: delete company %s: %v", id, err)
		}
	}()
}

// DeleteContact removes a contact from the search index (fire-and-forget).
func (s *Service) DeleteContact(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteContact(id); err != nil {
			log.Printf("search: delete contact %s: %v", id, err)
		}
	}()
}

// DeleteProject removes a project from the search index (fire-and-forget).
func (s *Service) DeleteProject(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteProject(id); err != nil {
			log.Printf("search: delete project %s: %v", id, err)
		}
	}()
}

// ReindexAll pushes the given records to Meilisearch.
func (s *Service) ReindexAll(companies []CompanyRecord, contacts []ContactRecord, projects []ProjectRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if len(companies) > 0 {
		if err := s.meili.IndexCompanies(companies); err != nil {
			log.Printf("search: reindex companies: %v", err)
		}
	}
	if len(contacts) > 0 {
		if err := s.meili.IndexContacts(contacts); err != nil {
			log.Printf("search: reindex contacts: %v", err)
		}
	}
	if len(projects) > 0 {
		if err := s.meili.IndexProjects(projects); err != nil {
			log.Printf("search: reindex projects: %v", err)
		}
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into Meilisearch.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	companies, contacts, projects, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(companies, contacts, projects)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
