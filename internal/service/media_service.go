package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"harmonia/api/internal/media/sniffer"
	"harmonia/api/internal/media/svg"
)

// MediaUpload is one uploaded file. DeclaredType is the client's Content-Type and
// is only used as a cross-check against the sniffed type.
type MediaUpload struct {
	Data         []byte
	DeclaredType string
}

type StoredMedia struct {
	Key string
	URL string
}

type MediaService struct {
	store ObjectStore
	log   zerolog.Logger
}

func NewMediaService(store ObjectStore, log zerolog.Logger) *MediaService {
	return &MediaService{store: store, log: log}
}

// Store sniffs upload, checks that it is of the expected kind and writes it under
// instruments/<kind>s/<ownerID>.<ext>.
func (s *MediaService) Store(ctx context.Context, field string, kind sniffer.Kind, ownerID string, upload MediaUpload) (StoredMedia, error) {
	data := upload.Data
	if len(data) == 0 {
		return StoredMedia{}, invalid(field, "file is empty")
	}

	result, err := sniffer.DetectHead(head(data))
	if errors.Is(err, sniffer.ErrUnknownType) {
		return StoredMedia{}, invalid(field, "unsupported media type")
	}
	if err != nil {
		return StoredMedia{}, fmt.Errorf("detect type: %w", err)
	}
	if result.Kind != kind {
		return StoredMedia{}, invalid(field, fmt.Sprintf("expected %s, got %s", kind, result.MIME))
	}
	if declared := upload.DeclaredType; declared != "" && declared != "application/octet-stream" &&
		!strings.HasPrefix(declared, string(kind)+"/") {
		return StoredMedia{}, invalid(field, fmt.Sprintf("content type mismatch: declared %s, actual %s", declared, result.MIME))
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return StoredMedia{}, invalid(field, "malformed svg")
		}
		data = clean
	}

	key := fmt.Sprintf("instruments/%ss/%s.%s", kind, ownerID, result.Ext())
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return StoredMedia{}, err
	}

	s.log.Debug().Str("key", key).Int("size", len(data)).Msg("media stored")
	return StoredMedia{Key: key, URL: url}, nil
}

func (s *MediaService) Discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("discard media failed")
		}
	}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
