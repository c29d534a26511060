package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feeflow/api/internal/editing"
	"feeflow/api/internal/folders"
	"feeflow/api/internal/numbering"
	"feeflow/api/internal/reserve"
	"feeflow/api/internal/search"
	"feeflow/api/internal/store"
	"feeflow/api/internal/util"
)

// ProjectInput is the write payload for projects. The number is never part
// of the input: it is generated on create and immutable afterwards.
type ProjectInput struct {
	Name      string `json:"name"`
	NameShort string `json:"nameShort"`
	Activity  string `json:"activity"`
	Package   string `json:"package"`
	Status    string `json:"status"`
	Stage     string `json:"stage"`
	Area      string `json:"area"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Year      int    `json:"year"`
}

func (s *Service) ListProjects(ctx context.Context) ([]map[string]any, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(projects))
	s.withEditing(func(session *editing.Session) {
		for _, p := range projects {
			items = append(items, projectPayload(p, len(session.ProposalsOfProject(p.ID))))
		}
	})
	return items, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	var proposals []map[string]any
	s.withEditing(func(session *editing.Session) {
		for _, p := range session.ProposalsOfProject(project.ID) {
			proposals = append(proposals, map[string]any{
				"id":     p.ID,
				"name":   p.Name,
				"number": p.Number,
				"status": p.Status,
				"rev":    p.Rev,
			})
		}
	})

	payload := projectPayload(project, len(proposals))
	payload["proposals"] = proposals
	return payload, nil
}

// CreateProject generates the next project number for the target country,
// reserves it, and inserts the project. The reservation narrows the race
// window between concurrent creates; the unique index on the rendered
// number is the hard backstop, and a violation there surfaces as the same
// collision error after the reservation is released.
func (s *Service) CreateProject(ctx context.Context, input ProjectInput, ownerName string) (map[string]any, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationError("Project name is required")
	}
	if strings.TrimSpace(input.Country) == "" {
		return nil, validationError("Project country is required")
	}

	country, err := s.store.GetCountryByName(ctx, input.Country)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, missingRelation("country", input.Country)
		}
		return nil, err
	}

	year := input.Year
	if year == 0 {
		year = time.Now().Year()
	}
	if year >= 100 {
		year %= 100
	}

	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var number numbering.ProjectNumber
	var genErr error
	s.withEditing(func(session *editing.Session) {
		number, genErr = session.GenerateProjectNumber(country.DialCode, year)
	})
	if genErr != nil {
		if errors.Is(genErr, numbering.ErrOverflow) {
			return nil, numberOverflow(country.DialCode, year)
		}
		if errors.Is(genErr, numbering.ErrCollision) {
			return nil, numberCollision(number.String())
		}
		return nil, genErr
	}

	if s.reserver != nil {
		if err := s.reserver.Reserve(ctx, number.Country, number.Year, number.Seq, ownerName); err != nil {
			if errors.Is(err, reserve.ErrSlotTaken) {
				return nil, numberCollision(number.String())
			}
			return nil, err
		}
	}

	now := time.Now()
	project := store.Project{
		ID:            util.NewID("prj"),
		Name:          strings.TrimSpace(input.Name),
		NameShort:     input.NameShort,
		Activity:      input.Activity,
		Package:       input.Package,
		Status:        firstNonBlank(input.Status, "RFP"),
		Stage:         input.Stage,
		Area:          input.Area,
		City:          input.City,
		Country:       country.Name,
		Number:        number.String(),
		NumberYear:    number.Year,
		NumberCountry: number.Country,
		NumberSeq:     number.Seq,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	project.Folder = folders.FolderName(project.Number, project.Name)

	if err := s.store.InsertProject(ctx, project); err != nil {
		if s.reserver != nil {
			logBackgroundError("release number reservation",
				s.reserver.Release(ctx, number.Country, number.Year, number.Seq, ownerName))
		}
		if store.IsUniqueViolation(err, "projects_number_unique") {
			return nil, numberCollision(project.Number)
		}
		return nil, err
	}

	if s.folders != nil {
		go func(number, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_, err := s.folders.Provision(ctx, number, name)
			logBackgroundError("provision project folders", err)
		}(project.Number, project.Name)
	}
	if s.search != nil {
		s.search.IndexProject(projectSearchRecord(project))
	}

	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}
	return projectPayload(project, 0), nil
}

func (s *Service) UpdateProject(ctx context.Context, id string, input ProjectInput) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, validationError("Project name is required")
	}

	project.Name = strings.TrimSpace(input.Name)
	project.NameShort = input.NameShort
	project.Activity = input.Activity
	project.Package = input.Package
	project.Status = firstNonBlank(input.Status, project.Status)
	project.Stage = input.Stage
	project.Area = input.Area
	project.City = input.City
	if strings.TrimSpace(input.Country) != "" {
		project.Country = input.Country
	}
	project.UpdatedAt = time.Now()

	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexProject(projectSearchRecord(project))
	}
	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var count int
	s.withEditing(func(session *editing.Session) {
		count = len(session.ProposalsOfProject(project.ID))
	})
	return projectPayload(project, count), nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	var inUse int
	s.withEditing(func(session *editing.Session) {
		inUse = len(session.ProposalsOfProject(id))
	})
	if inUse > 0 {
		return domainError(http.StatusConflict, "PROJECT_IN_USE",
			"Project still has proposals attached", map[string]any{"proposals": inUse})
	}

	found, err := s.store.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("project %s: %w", id, store.ErrNotFound)
	}
	if s.search != nil {
		s.search.DeleteProject(id)
	}
	return s.refreshEditing(ctx)
}

// PreviewProjectNumber computes the number the next create would get
// without reserving or persisting anything.
func (s *Service) PreviewProjectNumber(ctx context.Context, countryName string, year int) (map[string]any, error) {
	country, err := s.store.GetCountryByName(ctx, countryName)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, missingRelation("country", countryName)
		}
		return nil, err
	}
	if year == 0 {
		year = time.Now().Year()
	}
	if year >= 100 {
		year %= 100
	}

	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var number numbering.ProjectNumber
	var genErr error
	s.withEditing(func(session *editing.Session) {
		number, genErr = session.GenerateProjectNumber(country.DialCode, year)
	})
	if genErr != nil {
		if errors.Is(genErr, numbering.ErrOverflow) {
			return nil, numberOverflow(country.DialCode, year)
		}
		return nil, genErr
	}

	return map[string]any{
		"number":  number.String(),
		"year":    number.Year,
		"country": number.Country,
		"seq":     number.Seq,
	}, nil
}

// ValidateProjectNumber checks a candidate against the current snapshot.
// A malformed candidate is a validation error; a well-formed but taken one
// reports valid=false rather than failing, so the editing UI can show the
// state inline.
func (s *Service) ValidateProjectNumber(ctx context.Context, candidate string) (map[string]any, error) {
	number, err := numbering.Parse(candidate)
	if err != nil {
		return nil, validationError(fmt.Sprintf("Malformed project number %q", candidate))
	}

	if err := s.refreshEditing(ctx); err != nil {
		return nil, err
	}

	var available bool
	s.withEditing(func(session *editing.Session) {
		available = session.ValidateProjectNumber(number)
	})

	payload := map[string]any{
		"number": number.String(),
		"valid":  available,
	}
	if !available {
		payload["reason"] = "NUMBER_COLLISION"
	}
	return payload, nil
}

func projectPayload(p store.Project, proposalCount int) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"nameShort":     p.NameShort,
		"activity":      p.Activity,
		"package":       p.Package,
		"status":        p.Status,
		"stage":         p.Stage,
		"area":          p.Area,
		"city":          p.City,
		"country":       p.Country,
		"folder":        p.Folder,
		"number":        p.Number,
		"proposalCount": proposalCount,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}

func projectSearchRecord(p store.Project) search.ProjectRecord {
	return search.ProjectRecord{
		ID:      p.ID,
		Name:    p.Name,
		Number:  p.Number,
		City:    p.City,
		Country: p.Country,
		Status:  p.Status,
	}
}
