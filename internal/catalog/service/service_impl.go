package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/musichub/musichub/internal/catalog/domain"
	"github.com/musichub/musichub/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		clock: p.Clock,
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) CreateSong(ctx context.Context, req domain.CreateSongRequest) (*domain.SongResponse, error) {
	artistID, err := domain.ParseID(strings.TrimSpace(req.ArtistID))
	if err != nil || artistID == 0 {
		return nil, domain.ErrInvalidArtist
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}

	artist, err := s.repo.FindArtistByID(ctx, s.db, artistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, domain.ErrArtistNotFound
	}

	now := s.clock.Now()
	song := &domain.Song{
		ID:        s.genID.Generate(),
		ArtistID:  artistID,
		Title:     title,
		Slug:      slug.Make(title),
		Genre:     strings.TrimSpace(req.Genre),
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertSong(ctx, s.db, song); err != nil {
		return nil, err
	}

	return s.toSongResponse(song), nil
}

func (s *Service) GetSong(ctx context.Context, id string) (*domain.SongResponse, error) {
	songID, err := domain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	song, err := s.repo.FindSongByID(ctx, s.db, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, domain.ErrSongNotFound
	}

	return s.toSongResponse(song), nil
}

func (s *Service) GetArtist(ctx context.Context, id string) (*domain.ArtistResponse, error) {
	artistID, err := domain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	artist, err := s.repo.FindArtistByID(ctx, s.db, artistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, domain.ErrArtistNotFound
	}

	return &domain.ArtistResponse{
		ID:           artist.ID.String(),
		Name:         artist.Name,
		Slug:         artist.Slug,
		Genres:       artist.Genres,
		TotalStreams: artist.TotalStreams,
		TotalSales:   artist.TotalSales,
		CreatedAt:    artist.CreatedAt,
	}, nil
}

// ListSongs returns the catalog, scoped to one artist when artistID is set.
func (s *Service) ListSongs(ctx context.Context, artistID string) ([]domain.SongResponse, error) {
	var (
		songs []domain.Song
		err   error
	)
	if trimmed := strings.TrimSpace(artistID); trimmed != "" {
		id, parseErr := domain.ParseID(trimmed)
		if parseErr != nil || id == 0 {
			return nil, domain.ErrInvalidArtist
		}
		songs, err = s.repo.ListSongsByArtist(ctx, s.db, id)
	} else {
		songs, err = s.repo.ListSongs(ctx, s.db)
	}
	if err != nil {
		return nil, err
	}

	resp := make([]domain.SongResponse, 0, len(songs))
	for i := range songs {
		resp = append(resp, *s.toSongResponse(&songs[i]))
	}

	return resp, nil
}

// SongTitles resolves song ids to titles. Missing ids are absent from the
// result map rather than errors, so callers can fall back to a placeholder.
func (s *Service) SongTitles(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	songs, err := s.repo.FindSongsByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	titles := make(map[snowflake.ID]string, len(songs))
	for i := range songs {
		titles[songs[i].ID] = songs[i].Title
	}

	return titles, nil
}

func (s *Service) Library(ctx context.Context, userID string) ([]domain.LibraryItem, error) {
	id, err := domain.ParseID(strings.TrimSpace(userID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidUser
	}

	entries, err := s.repo.ListLibrary(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	items := make([]domain.LibraryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, domain.LibraryItem{
			SongID:     entry.SongID.String(),
			Title:      entry.Title,
			ArtistID:   entry.ArtistID.String(),
			ArtistName: entry.ArtistName,
			Price:      entry.Price,
			AddedAt:    entry.AddedAt,
		})
	}

	return items, nil
}

func (s *Service) toSongResponse(song *domain.Song) *domain.SongResponse {
	return &domain.SongResponse{
		ID:        song.ID.String(),
		ArtistID:  song.ArtistID.String(),
		Title:     song.Title,
		Slug:      song.Slug,
		Genre:     song.Genre,
		Price:     song.Price,
		Streams:   song.Streams,
		Purchases: song.Purchases,
		CreatedAt: song.CreatedAt,
	}
}
