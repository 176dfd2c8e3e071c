package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/domain"
	"folio/internal/mapper"
)

// ProfileService lee y escribe documentos de perfil. El id del documento es el id de la identidad.
type ProfileService struct {
	logger     *zap.Logger
	docs       backend.Documents
	writer     *SchemaWriter
	validator  *InputValidator
	collection string
}

func NewProfileService(logger *zap.Logger, docs backend.Documents, writer *SchemaWriter, collection string) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collection == "" {
		collection = "users"
	}
	return &ProfileService{
		logger:     logger,
		docs:       docs,
		writer:     writer,
		validator:  NewInputValidator(),
		collection: collection,
	}
}

// Get devuelve el perfil; found es false si el documento no existe.
func (s *ProfileService) Get(ctx context.Context, id string) (domain.User, bool, error) {
	if s.docs == nil {
		return domain.User{}, false, ErrNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, false, nil
	}
	rec, err := s.docs.Get(ctx, s.collection, id)
	if err != nil {
		if backend.IsNotFound(err) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, fmt.Errorf("get profile: %w", err)
	}
	return mapper.UserFromRecord(rec), true, nil
}

// Ensure devuelve el perfil de la identidad, creandolo a partir de ella si no existe.
func (s *ProfileService) Ensure(ctx context.Context, identity backend.Identity) (domain.User, error) {
	user, found, err := s.Get(ctx, identity.ID)
	if err != nil {
		return domain.User{}, err
	}
	if found {
		return user, nil
	}
	if s.writer == nil {
		return domain.User{}, ErrNotConfigured
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = defaultName(identity.Email)
	}
	payload := mapper.UserPayload(domain.User{
		Name:   name,
		Email:  identity.Email,
		UserID: identity.ID,
	})
	rec, err := s.writer.Create(ctx, s.collection, identity.ID, payload)
	if err != nil {
		if backend.IsConflict(err) {
			// Otra sesion creo el perfil entre la lectura y la escritura.
			user, found, getErr := s.Get(ctx, identity.ID)
			if getErr == nil && found {
				return user, nil
			}
		}
		return domain.User{}, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.String("user_id", identity.ID))
	return mapper.UserFromRecord(rec), nil
}

// Update aplica el patch sobre el perfil existente.
func (s *ProfileService) Update(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	if s.writer == nil {
		return domain.User{}, ErrNotConfigured
	}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	if err := s.validator.Validate(patch); err != nil {
		return domain.User{}, err
	}
	if patch.Empty() {
		user, found, err := s.Get(ctx, id)
		if err != nil {
			return domain.User{}, err
		}
		if !found {
			return domain.User{}, ErrNotFound
		}
		return user, nil
	}
	rec, err := s.writer.Update(ctx, s.collection, id, mapper.ProfilePatch(patch))
	if err != nil {
		if backend.IsNotFound(err) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return mapper.UserFromRecord(rec), nil
}

func defaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "user"
	}
	return local
}
