package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"harmonia/api/internal/ids"
	"harmonia/api/internal/media/sniffer"
	"harmonia/api/internal/models"
)

type CatalogService struct {
	categories  CategoryStore
	instruments InstrumentStore
	media       *MediaService
	log         zerolog.Logger
}

func NewCatalogService(categories CategoryStore, instruments InstrumentStore, media *MediaService, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		categories:  categories,
		instruments: instruments,
		media:       media,
		log:         log,
	}
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string, description string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, invalid("name", "is required")
	}
	return s.categories.Create(ctx, models.Category{
		ID:          ids.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
	})
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	out, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Category{}
	}
	return out, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, name string, description string) (models.Category, error) {
	current, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if name = strings.TrimSpace(name); name != "" {
		current.Name = name
	}
	current.Description = strings.TrimSpace(description)
	return s.categories.Update(ctx, current)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

type InstrumentInput struct {
	Name                 string
	Description          string
	HistoricalBackground string
	CategoryIDs          []string
	Image                *MediaUpload
	Video                *MediaUpload
	Audio                *MediaUpload
}

func (s *CatalogService) CreateInstrument(ctx context.Context, in InstrumentInput) (models.Instrument, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if in.Image == nil {
		fields["image"] = "is required"
	}
	if len(fields) > 0 {
		return models.Instrument{}, &ValidationError{Fields: fields}
	}

	instrument := models.Instrument{
		ID:                   ids.New(),
		Name:                 strings.TrimSpace(in.Name),
		Description:          strings.TrimSpace(in.Description),
		HistoricalBackground: strings.TrimSpace(in.HistoricalBackground),
		CategoryIDs:          normalizeIDs(in.CategoryIDs),
	}

	keys, err := s.attachMedia(ctx, &instrument, in)
	if err != nil {
		return models.Instrument{}, err
	}

	created, err := s.instruments.Create(ctx, instrument)
	if err != nil {
		s.media.Discard(context.WithoutCancel(ctx), keys...)
		return models.Instrument{}, err
	}
	return created, nil
}

// UpdateInstrument replaces the text fields that are set and any media supplied.
func (s *CatalogService) UpdateInstrument(ctx context.Context, id string, in InstrumentInput) (models.Instrument, error) {
	instrument, err := s.instruments.GetByID(ctx, id)
	if err != nil {
		return models.Instrument{}, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		instrument.Name = name
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		instrument.Description = v
	}
	if v := strings.TrimSpace(in.HistoricalBackground); v != "" {
		instrument.HistoricalBackground = v
	}
	if in.CategoryIDs != nil {
		instrument.CategoryIDs = normalizeIDs(in.CategoryIDs)
	}

	if _, err := s.attachMedia(ctx, &instrument, in); err != nil {
		return models.Instrument{}, err
	}
	return s.instruments.Update(ctx, instrument)
}

// attachMedia uploads the supplied files in parallel and records their URLs on
// instrument. On failure every object already written is removed again.
func (s *CatalogService) attachMedia(ctx context.Context, instrument *models.Instrument, in InstrumentInput) ([]string, error) {
	type slot struct {
		field  string
		kind   sniffer.Kind
		upload *MediaUpload
		apply  func(url string)
	}
	slots := []slot{
		{"image", sniffer.KindImage, in.Image, func(url string) { instrument.ImageURL = url }},
		{"video", sniffer.KindVideo, in.Video, func(url string) { instrument.VideoURL = &url }},
		{"audio", sniffer.KindAudio, in.Audio, func(url string) { instrument.AudioURL = &url }},
	}

	var (
		mu     sync.Mutex
		stored = make(map[string]StoredMedia, len(slots))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sl := range slots {
		if sl.upload == nil {
			continue
		}
		sl := sl
		g.Go(func() error {
			media, err := s.media.Store(gctx, sl.field, sl.kind, instrument.ID, *sl.upload)
			if err != nil {
				return err
			}
			mu.Lock()
			stored[sl.field] = media
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	keys := make([]string, 0, len(stored))
	for _, media := range stored {
		keys = append(keys, media.Key)
	}
	if err != nil {
		s.media.Discard(context.WithoutCancel(ctx), keys...)
		return nil, err
	}

	for _, sl := range slots {
		if media, ok := stored[sl.field]; ok {
			sl.apply(media.URL)
		}
	}
	return keys, nil
}

func (s *CatalogService) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	out, err := s.instruments.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Instrument{}
	}
	return out, nil
}

func (s *CatalogService) GetInstrument(ctx context.Context, id string) (models.Instrument, error) {
	return s.instruments.GetByID(ctx, id)
}

func (s *CatalogService) DeleteInstrument(ctx context.Context, id string) error {
	return s.instruments.Delete(ctx, id)
}

func normalizeIDs(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
