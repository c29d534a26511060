package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feeflow/api/internal/editing"
	"feeflow/api/internal/identity"
	"feeflow/api/internal/search"
	"feeflow/api/internal/store"
	"feeflow/api/internal/util"
)

type CompanyInput struct {
	Name         string  `json:"name"`
	NameShort    string  `json:"nameShort"`
	Abbreviation string  `json:"abbreviation"`
	City         string  `json:"city"`
	Country      string  `json:"country"`
	RegNo        *string `json:"regNo"`
	TaxNo        *string `json:"taxNo"`
}

// ContactInput accepts the company reference in any identifier
// representation the upstream clients produce.
type ContactInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Position  string `json:"position"`
	CompanyID any    `json:"companyId"`
}

// ── Companies ──

func (s *Service) ListCompanies(ctx context.Context) ([]map[string]any, error) {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(companies))
	s.withEditing(func(session *editing.Session) {
		for _, c := range companies {
			items = append(items, companyPayload(c, len(session.ContactsOfCompany(c.ID))))
		}
	})
	return items, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (map[string]any, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	var contacts []map[string]any
	s.withEditing(func(session *editing.Session) {
		for _, c := range session.ContactsOfCompany(company.ID) {
			contacts = append(contacts, map[string]any{
				"id":       c.ID,
				"fullName": c.FullName,
				"email":    c.Email,
				"position": c.Position,
			})
		}
	})

	payload := companyPayload(company, len(contacts))
	payload["contacts"] = contacts
	return payload, nil
}

func (s *Service) CreateCompany(ctx context.Context, input CompanyInput) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationError("Company name is required")
	}

	now := time.Now()
	company := store.Company{
		ID:           util.NewID("com"),
		Name:         strings.TrimSpace(input.Name),
		NameShort:    input.NameShort,
		Abbreviation: input.Abbreviation,
		City:         input.City,
		Country:      input.Country,
		RegNo:        input.RegNo,
		TaxNo:        input.TaxNo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertCompany(ctx, company); err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexCompany(companySearchRecord(company))
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}
	return companyPayload(company, 0), nil
}

func (s *Service) UpdateCompany(ctx context.Context, id string, input CompanyInput) (map[string]any, error) {
	company, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationError("Company name is required")
	}

	company.Name = strings.TrimSpace(input.Name)
	company.NameShort = input.NameShort
	company.Abbreviation = input.Abbreviation
	company.City = input.City
	company.Country = input.Country
	company.RegNo = input.RegNo
	company.TaxNo = input.TaxNo
	company.UpdatedAt = time.Now()

	if err := s.store.UpdateCompany(ctx, company); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexCompany(companySearchRecord(company))
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var count int
	s.withEditing(func(session *editing.Session) {
		count = len(session.ContactsOfCompany(company.ID))
	})
	return companyPayload(company, count), nil
}

func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	var contacts, proposals int
	s.withEditing(func(session *editing.Session) {
		contacts = len(session.ContactsOfCompany(id))
		proposals = len(session.ProposalsOfCompany(id))
	})
	if contacts > 0 || proposals > 0 {
		return domainError(http.StatusConflict, "COMPANY_IN_USE",
			"Company still has contacts or proposals attached",
			map[string]any{"contacts": contacts, "proposals": proposals})
	}

	found, err := s.store.DeleteCompany(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("company %s: %w", id, store.ErrNotFound)
	}
	if s.search != nil {
		s.search.DeleteCompany(id)
	}
	return s.refreshEditing(ctx)
}

// ── Contacts ──

func (s *Service) ListContacts(ctx context.Context) ([]map[string]any, error) {
	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(contacts))
	s.withEditing(func(session *editing.Session) {
		for _, c := range contacts {
			items = append(items, contactPayload(c, session))
		}
	})
	return items, nil
}

func (s *Service) GetContact(ctx context.Context, id string) (map[string]any, error) {
	contact, err := s.store.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = contactPayload(contact, session)
	})
	return payload, nil
}

func (s *Service) CreateContact(ctx context.Context, input ContactInput) (map[string]any, error) {
	contact, err := s.contactFromInput(store.Contact{ID: util.NewID("cnt")}, input)
	if err != nil {
		return nil, err
	}
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt

	if err := s.store.InsertContact(ctx, contact); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexContact(contactSearchRecord(contact))
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = contactPayload(contact, session)
	})
	return payload, nil
}

func (s *Service) UpdateContact(ctx context.Context, id string, input ContactInput) (map[string]any, error) {
	existing, err := s.store.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	contact, err := s.contactFromInput(existing, input)
	if err != nil {
		return nil, err
	}
	contact.UpdatedAt = time.Now()

	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexContact(contactSearchRecord(contact))
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var payload map[string]any
	s.withEditing(func(session *editing.Session) {
		payload = contactPayload(contact, session)
	})
	return payload, nil
}

func (s *Service) DeleteContact(ctx context.Context, id string) error {
	var proposals int
	s.withEditing(func(session *editing.Session) {
		proposals = len(session.ProposalsOfContact(id))
	})
	if proposals > 0 {
		return domainError(http.StatusConflict, "CONTACT_IN_USE",
			"Contact still has proposals attached", map[string]any{"proposals": proposals})
	}

	found, err := s.store.DeleteContact(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("contact %s: %w", id, store.ErrNotFound)
	}
	if s.search != nil {
		s.search.DeleteContact(id)
	}
	return s.refreshEditing(ctx)
}

// contactFromInput applies the input on top of an existing record and
// resolves the company reference. A reference that is present but does not
// resolve is an invalid identifier; one that resolves to a company missing
// from the snapshot is a missing relation.
func (s *Service) contactFromInput(base store.Contact, input ContactInput) (store.Contact, error) {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" && last == "" {
		return store.Contact{}, validationError("Contact name is required")
	}

	base.FirstName = first
	base.LastName = last
	base.FullName = strings.TrimSpace(first + " " + last)
	base.Email = input.Email
	base.Phone = input.Phone
	base.Position = input.Position

	if input.CompanyID == nil {
		base.CompanyID = ""
		return base, nil
	}
	id, ok := identity.Resolve(input.CompanyID)
	if !ok {
		return store.Contact{}, invalidIdentifier(input.CompanyID)
	}
	var known bool
	s.withEditing(func(session *editing.Session) {
		_, known = session.CompanyName(id)
	})
	if !known {
		return store.Contact{}, missingRelation("company", id.String())
	}
	base.CompanyID = id.String()
	return base, nil
}

func companyPayload(c store.Company, contactCount int) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"name":         c.Name,
		"nameShort":    c.NameShort,
		"abbreviation": c.Abbreviation,
		"city":         c.City,
		"country":      c.Country,
		"regNo":        c.RegNo,
		"taxNo":        c.TaxNo,
		"contactCount": contactCount,
		"createdAt":    c.CreatedAt,
		"updatedAt":    c.UpdatedAt,
	}
}

func contactPayload(c store.Contact, session *editing.Session) map[string]any {
	payload := map[string]any{
		"id":        c.ID,
		"firstName": c.FirstName,
		"lastName":  c.LastName,
		"fullName":  c.FullName,
		"email":     c.Email,
		"phone":     c.Phone,
		"position":  c.Position,
		"companyId": identity.LocalID(c.CompanyID),
	}
	if name, ok := session.CompanyName(c.CompanyID); ok {
		payload["companyName"] = name
	}
	return payload
}

func companySearchRecord(c store.Company) search.CompanyRecord {
	return search.CompanyRecord{
		ID:           c.ID,
		Name:         c.Name,
		NameShort:    c.NameShort,
		Abbreviation: c.Abbreviation,
		City:         c.City,
		Country:      c.Country,
	}
}

func contactSearchRecord(c store.Contact) search.ContactRecord {
	return search.ContactRecord{
		ID:        c.ID,
		FullName:  c.FullName,
		Email:     c.Email,
		Position:  c.Position,
		CompanyID: identity.LocalID(c.CompanyID),
	}
}
