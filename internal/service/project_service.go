package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/domain"
	"folio/internal/mapper"
)

const maxListLimit = 500

// ProjectService lista y edita proyectos y arma la pagina publica de un usuario.
type ProjectService struct {
	logger     *zap.Logger
	docs       backend.Documents
	writer     *SchemaWriter
	profiles   *ProfileService
	media      *MediaService
	cache      *ListingCache
	validator  *InputValidator
	collection string
}

func NewProjectService(
	logger *zap.Logger,
	docs backend.Documents,
	writer *SchemaWriter,
	profiles *ProfileService,
	media *MediaService,
	collection string,
) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collection == "" {
		collection = "projects"
	}
	return &ProjectService{
		logger:     logger,
		docs:       docs,
		writer:     writer,
		profiles:   profiles,
		media:      media,
		cache:      NewListingCache(DefaultListingTTL, DefaultListingMaxEntries),
		validator:  NewInputValidator(),
		collection: collection,
	}
}

// List trae del backend los proyectos del alcance y los devuelve en orden de visualizacion.
func (s *ProjectService) List(ctx context.Context, scope ListScope) ([]domain.Project, error) {
	if s.docs == nil {
		return nil, ErrNotConfigured
	}
	query := backend.Query{
		Sorts: []backend.Sort{
			{Field: domain.AttrDisplayOrder},
			{Field: backend.AttrCreatedAt, Desc: true},
		},
		Limit: maxListLimit,
	}
	if scope.Public() {
		query.Filters = append(query.Filters, backend.Filter{Field: domain.AttrIsPublic, Value: true})
	} else {
		query.Filters = append(query.Filters, backend.Filter{Field: domain.AttrUserID, Value: strings.TrimSpace(scope.OwnerID)})
	}

	records, err := s.docs.List(ctx, s.collection, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(records))
	for _, p := range mapper.ProjectsFromRecords(records) {
		if scope.InScope(p) {
			projects = append(projects, p)
		}
	}
	projects = SortProjects(projects)
	s.cache.Put(scope, projects)
	return projects, nil
}

// UseListingCache reemplaza el cache de listados; se llama al armar el servicio, antes de atender requests.
func (s *ProjectService) UseListingCache(cache *ListingCache) *ProjectService {
	if cache != nil {
		s.cache = cache
	}
	return s
}

// ListCached sirve el listado en memoria mientras siga vigente; si no hay uno, lo trae del backend.
func (s *ProjectService) ListCached(ctx context.Context, scope ListScope) ([]domain.Project, error) {
	if projects, ok := s.cache.Get(scope); ok {
		return projects, nil
	}
	return s.List(ctx, scope)
}

// Cached devuelve el ultimo listado obtenido para el alcance, sin ir al backend.
func (s *ProjectService) Cached(scope ListScope) ([]domain.Project, bool) {
	return s.cache.Get(scope)
}

// Forget descarta el listado en memoria de un dueno.
func (s *ProjectService) Forget(ownerID string) {
	s.cache.Invalidate(ListScope{OwnerID: ownerID})
}

// Get devuelve un proyecto visible para viewerID: los privados solo para su dueno.
func (s *ProjectService) Get(ctx context.Context, viewerID, id string) (domain.Project, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if !p.IsPublic && p.UserID != viewerID {
		return domain.Project{}, ErrNotFound
	}
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, ownerID string, in domain.ProjectInput) (domain.Project, error) {
	if s.writer == nil {
		return domain.Project{}, ErrNotConfigured
	}
	if strings.TrimSpace(ownerID) == "" {
		return domain.Project{}, ErrUnauthorized
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validator.Validate(in); err != nil {
		return domain.Project{}, err
	}

	rec, err := s.writer.Create(ctx, s.collection, uuid.NewString(), mapper.ProjectPayload(ownerID, in))
	if err != nil {
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}
	project := mapper.ProjectFromRecord(rec)
	s.cache.Invalidate(ListScope{OwnerID: ownerID})
	if project.IsPublic {
		s.cache.Invalidate(ListScope{})
	}
	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("user_id", ownerID))
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (domain.Project, error) {
	if s.writer == nil {
		return domain.Project{}, ErrNotConfigured
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
	}
	if err := s.validator.Validate(patch); err != nil {
		return domain.Project{}, err
	}
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return domain.Project{}, err
	}
	payload := mapper.ProjectPatch(patch)
	if len(payload) == 0 {
		return current, nil
	}

	rec, err := s.writer.Update(ctx, s.collection, id, payload)
	if err != nil {
		if backend.IsNotFound(err) {
			return domain.Project{}, ErrNotFound
		}
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	project := mapper.ProjectFromRecord(rec)
	s.cache.Invalidate(ListScope{OwnerID: ownerID})
	if project.IsPublic || current.IsPublic {
		s.cache.Invalidate(ListScope{})
	}
	return project, nil
}

// Delete borra el proyecto, lo quita en el acto de los listados en memoria y libera su media.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	if s.docs == nil {
		return ErrNotConfigured
	}
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, s.collection, id); err != nil {
		if backend.IsNotFound(err) {
			s.cache.Remove(id)
			return ErrNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	s.cache.Remove(id)
	s.media.DeleteRefs(ctx, current.MediaRefs())
	s.logger.Info("project deleted", zap.String("project_id", id), zap.String("user_id", ownerID))
	return nil
}

// Reorder asigna displayOrder 0..n-1 segun el orden de ids y devuelve el listado resultante.
func (s *ProjectService) Reorder(ctx context.Context, ownerID string, ids []string) ([]domain.Project, error) {
	if s.writer == nil {
		return nil, ErrNotConfigured
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || strings.TrimSpace(id) == "" {
			return nil, &ValidationError{Field: "ids", Message: "must be unique and non-empty"}
		}
		seen[id] = struct{}{}
	}
	// Toda la lista se valida antes de la primera escritura.
	current := make([]domain.Project, 0, len(ids))
	for _, id := range ids {
		p, err := s.owned(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		current = append(current, p)
	}
	for i, p := range current {
		if p.DisplayOrder == i {
			continue
		}
		id := p.ID
		if _, err := s.writer.Update(ctx, s.collection, id, backend.Record{domain.AttrDisplayOrder: i}); err != nil {
			return nil, fmt.Errorf("reorder project %s: %w", id, err)
		}
	}
	s.cache.Invalidate(ListScope{})
	return s.List(ctx, ListScope{OwnerID: ownerID})
}

// PublicPortfolio es la pagina compartible: perfil y proyectos publicos del usuario.
// Un perfil inexistente no es un error; found es false.
func (s *ProjectService) PublicPortfolio(ctx context.Context, userID string) (domain.User, []domain.Project, bool, error) {
	if s.profiles == nil {
		return domain.User{}, nil, false, ErrNotConfigured
	}
	user, found, err := s.profiles.Get(ctx, userID)
	if err != nil || !found {
		return domain.User{}, []domain.Project{}, false, err
	}
	owned, err := s.ListCached(ctx, ListScope{OwnerID: user.ID})
	if err != nil {
		return domain.User{}, nil, false, err
	}
	public := make([]domain.Project, 0, len(owned))
	for _, p := range owned {
		if p.IsPublic {
			public = append(public, p)
		}
	}
	// El email no forma parte de la pagina publica.
	user.Email = ""
	return user, public, true, nil
}

func (s *ProjectService) get(ctx context.Context, id string) (domain.Project, error) {
	if s.docs == nil {
		return domain.Project{}, ErrNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return domain.Project{}, ErrNotFound
	}
	rec, err := s.docs.Get(ctx, s.collection, id)
	if err != nil {
		if backend.IsNotFound(err) {
			return domain.Project{}, ErrNotFound
		}
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return mapper.ProjectFromRecord(rec), nil
}

func (s *ProjectService) owned(ctx context.Context, ownerID, id string) (domain.Project, error) {
	if strings.TrimSpace(ownerID) == "" {
		return domain.Project{}, ErrUnauthorized
	}
	p, err := s.get(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if p.UserID != ownerID {
		return domain.Project{}, ErrForbidden
	}
	return p, nil
}
