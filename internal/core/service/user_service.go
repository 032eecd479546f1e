package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/pkg/metrics"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// UserService is the user directory: CRUD over accounts plus the password
// and API key lifecycles.
type UserService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	cipher ports.KeyCipher
	keys   ports.KeyGenerator
	bounds domain.PageBounds
	logger zerolog.Logger
}

func NewUserService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	cipher ports.KeyCipher,
	keys ports.KeyGenerator,
	bounds domain.PageBounds,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		cipher: cipher,
		keys:   keys,
		bounds: bounds,
		logger: logger,
	}
}

// Create registers a new account. Conflicts are checked up front so the
// violated field can be reported; the store's unique indexes still catch
// concurrent sign-ups and yield the same *domain.ConflictError.
func (s *UserService) Create(ctx context.Context, input domain.NewUser) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	username := domain.NormalizeUsername(input.Username)

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	field, err := s.repo.FindConflict(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if field != "" {
		value := email
		if field == domain.FieldUsername {
			value = username
		}
		return nil, &domain.ConflictError{Field: field, Value: value}
	}

	rawKey := input.APIKey
	if rawKey == "" {
		if rawKey, err = s.keys.Generate(); err != nil {
			return nil, err
		}
	}
	secret, err := s.cipher.Encrypt(rawKey)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		Name:         input.Name,
		Role:         role,
		PasswordHash: hash,
		APIKeySecret: secret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var ce *domain.ConflictError
		if errors.As(err, &ce) {
			s.logger.Info().Str("field", ce.Field).Msg("user create lost uniqueness race")
		} else {
			s.logger.Error().Err(err).Msg("failed to create user")
		}
		return nil, err
	}

	metrics.UsersCreatedTotal.WithLabelValues(string(role)).Inc()
	s.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user created")
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, id string) (*domain.UserView, error) {
	return s.repo.FindViewByID(ctx, id)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
}

func (s *UserService) FindByEmailSafe(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// FindByAPIKey encrypts rawKey with the deterministic cipher and looks the
// ciphertext up.
func (s *UserService) FindByAPIKey(ctx context.Context, rawKey string) (*domain.User, error) {
	secret, err := s.cipher.Encrypt(rawKey)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByAPIKeySecret(ctx, secret)
}

func (s *UserService) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if patch.Username != nil {
		username := domain.NormalizeUsername(*patch.Username)
		patch.Username = &username
	}
	if patch.Empty() {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *UserService) ChangeRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id).Str("role", string(role)).Msg("user role changed")
	return user, nil
}

func (s *UserService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("user removed")
	return nil
}

// ChangePassword re-hashes newPassword only after currentPassword verified;
// on mismatch the stored hash is left untouched.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, currentPassword)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("stored password hash unusable")
		return domain.ErrWrongPassword
	}
	if !ok {
		return domain.ErrWrongPassword
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, id, hash)
}

func (s *UserService) ListPage(ctx context.Context, req domain.PageRequest) (*domain.Page[*domain.UserView], error) {
	req = s.bounds.Normalize(req)
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return domain.NewPage(items, total, req), nil
}

// RevealAPIKey decrypts the caller's stored key.
func (s *UserService) RevealAPIKey(ctx context.Context, id string) (string, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	raw, err := s.cipher.Decrypt(user.APIKeySecret)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("stored api key cannot be decrypted")
		return "", domain.ErrInvalidAPIKey
	}
	return raw, nil
}

// RotateAPIKey replaces the caller's key; the old key stops working at once.
func (s *UserService) RotateAPIKey(ctx context.Context, id string) (string, error) {
	raw, err := s.keys.Generate()
	if err != nil {
		return "", err
	}
	secret, err := s.cipher.Encrypt(raw)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateAPIKeySecret(ctx, id, secret); err != nil {
		return "", err
	}
	s.logger.Info().Str("user_id", id).Msg("api key rotated")
	return raw, nil
}
