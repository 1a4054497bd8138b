package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ariefcatur/go-seller-marketplace/internal/apperr"
	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/ariefcatur/go-seller-marketplace/internal/media"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type Service struct {
	repo     Repository
	hasher   auth.Hasher
	tokens   *auth.Tokens
	uploader media.Uploader
}

func NewService(repo Repository, hasher auth.Hasher, tokens *auth.Tokens, uploader media.Uploader) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens, uploader: uploader}
}

// Signup registers a seller. Sellers cannot log in until an admin approves them.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return User{}, apperr.Validation("field %s failed on %s", verrs[0].Field(), verrs[0].Tag())
		}
		return User{}, apperr.Validation("invalid signup payload")
	}

	identity, err := s.uploader.Upload(ctx, in.Identity, "identity")
	if err != nil {
		if errors.Is(err, media.ErrInvalidImage) {
			return User{}, apperr.Validation("identity must be an image")
		}
		return User{}, fmt.Errorf("upload identity: %w", err)
	}
	profile := ""
	if in.Profile != "" {
		if profile, err = s.uploader.Upload(ctx, in.Profile, "profile"); err != nil {
			return User{}, apperr.Validation("profile must be an image")
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        in.Phone,
		ShopName:     in.ShopName,
		Identity:     identity,
		Profile:      profile,
		Role:         auth.RoleSeller,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return User{}, apperr.Conflict("user already exists")
		}
		return User{}, err
	}
	slog.InfoContext(ctx, "seller signed up", "user_id", u.ID)
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}
	if u.Role == auth.RoleSeller && !u.Approved {
		return LoginResult{}, apperr.Forbidden("account pending approval")
	}
	token, err := s.tokens.Issue(u.Actor())
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.NotFound("user")
	}
	return u, err
}

// GetForActor lets sellers read only their own record.
func (s *Service) GetForActor(ctx context.Context, id string, actor auth.Actor) (User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return User{}, apperr.Forbidden("access denied")
	}
	return s.Get(ctx, id)
}

func (s *Service) ListSellers(ctx context.Context, actor auth.Actor) ([]User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admin can list sellers")
	}
	return s.repo.ListByRole(ctx, auth.RoleSeller)
}

func (s *Service) SetApproved(ctx context.Context, id string, approved bool, actor auth.Actor) (User, error) {
	if !actor.IsAdmin() {
		return User{}, apperr.Forbidden("only admin can approve sellers")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u.Role != auth.RoleSeller {
		return User{}, apperr.Validation("only sellers require approval")
	}
	if err := s.repo.SetApproved(ctx, id, approved); err != nil {
		return User{}, err
	}
	u.Approved = approved
	slog.InfoContext(ctx, "seller approval changed", "user_id", id, "approved", approved)
	return u, nil
}

// Verify reloads the account behind a token. Deleted accounts are unauthorized, sellers whose
// approval was revoked are forbidden, and the role is taken from the record rather than the token.
func (s *Service) Verify(ctx context.Context, a auth.Actor) (auth.Actor, error) {
	u, err := s.repo.GetByID(ctx, a.ID)
	if errors.Is(err, ErrNotFound) {
		return auth.Actor{}, apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return auth.Actor{}, err
	}
	if u.Role == auth.RoleSeller && !u.Approved {
		return auth.Actor{}, apperr.Forbidden("account is not approved")
	}
	return u.Actor(), nil
}

// FindAdmin resolves the singleton admin account.
func (s *Service) FindAdmin(ctx context.Context) (User, error) {
	u, err := s.repo.FindAdmin(ctx)
	if errors.Is(err, ErrNotFound) {
		return User{}, apperr.NotFound("admin")
	}
	return u, err
}

// EnsureAdmin creates the admin account on first boot.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (User, error) {
	if u, err := s.repo.FindAdmin(ctx); err == nil {
		return u, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if password == "" {
		return User{}, fmt.Errorf("no admin account and ADMIN_PASSWORD is empty")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        strings.ToLower(email),
		Role:         auth.RoleAdmin,
		Approved:     true,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return User{}, fmt.Errorf("create admin: %w", err)
	}
	slog.InfoContext(ctx, "admin account created", "user_id", u.ID)
	return u, nil
}
