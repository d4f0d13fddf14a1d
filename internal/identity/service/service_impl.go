package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	"github.com/musichub/musichub/internal/clock"
	"github.com/musichub/musichub/internal/identity/domain"
	"github.com/musichub/musichub/internal/identity/password"
	"github.com/musichub/musichub/internal/identity/token"
	pkgdb "github.com/musichub/musichub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	GenID  *snowflake.Node
	Repo   domain.Repository
	Issuer *token.Issuer
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	repo   domain.Repository
	genID  *snowflake.Node
	issuer *token.Issuer
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("identity.service"),
		clock:  p.Clock,
		repo:   p.Repo,
		genID:  p.GenID,
		issuer: p.Issuer,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	if len(req.Password) < 6 {
		return nil, domain.ErrInvalidPassword
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleArtist {
		return nil, domain.ErrInvalidRole
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	if role == domain.RoleArtist {
		return s.registerArtist(ctx, name, email, hashed, req.Genres)
	}
	return s.registerUser(ctx, name, email, hashed)
}

func (s *Service) registerUser(ctx context.Context, name, email, hashed string) (*domain.AuthResponse, error) {
	existing, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	now := s.clock.Now()
	user := &catalogdomain.User{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertUser(ctx, s.db, user); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(domain.Principal{SubjectID: user.ID, Email: user.Email, Role: domain.RoleUser}, user.Name)
}

func (s *Service) registerArtist(ctx context.Context, name, email, hashed string, genres []string) (*domain.AuthResponse, error) {
	existing, err := s.repo.FindArtistByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	if genres == nil {
		genres = []string{}
	}

	now := s.clock.Now()
	artist := &catalogdomain.Artist{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Email:     email,
		Password:  hashed,
		Genres:    genres,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertArtist(ctx, s.db, artist); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(domain.Principal{SubjectID: artist.ID, Email: artist.Email, Role: domain.RoleArtist}, artist.Name)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, domain.ErrInvalidEmail
	}
	if req.Password == "" {
		return nil, domain.ErrInvalidPassword
	}

	user, err := s.repo.FindUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if !password.Verify(req.Password, user.Password) {
			return nil, domain.ErrInvalidCredentials
		}
		return s.issue(domain.Principal{SubjectID: user.ID, Email: user.Email, Role: domain.RoleUser}, user.Name)
	}

	artist, err := s.repo.FindArtistByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if artist != nil {
		if !password.Verify(req.Password, artist.Password) {
			return nil, domain.ErrInvalidCredentials
		}
		return s.issue(domain.Principal{SubjectID: artist.ID, Email: artist.Email, Role: domain.RoleArtist}, artist.Name)
	}

	return nil, domain.ErrInvalidCredentials
}

func (s *Service) Verify(ctx context.Context, raw string) (*domain.Principal, error) {
	_ = ctx
	return s.issuer.Verify(raw)
}

func (s *Service) issue(principal domain.Principal, name string) (*domain.AuthResponse, error) {
	signed, expiresAt, err := s.issuer.Sign(principal)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		ID:        principal.SubjectID.String(),
		Name:      name,
		Email:     principal.Email,
		Role:      principal.Role,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}
