package hotspot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/prahasith1996/video-player/internal/database"
	"github.com/prahasith1996/video-player/internal/storage"
	"github.com/prahasith1996/video-player/internal/validate"
)

// ErrDocumentTooLarge is returned for a stored document over the size limit.
var ErrDocumentTooLarge = errors.New("hotspot document too large")

// Source resolves the hotspot document for a video.
type Source interface {
	Lookup(ctx context.Context, videoID string) (Document, error)
}

// ObjectReader is the subset of object storage a StorageSource needs.
type ObjectReader interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}

// DocumentKey is the object key of a video's hotspot document.
func DocumentKey(videoID string) string {
	return fmt.Sprintf("data/%s.json", videoID)
}

// StorageSource reads documents from object storage.
type StorageSource struct {
	store    ObjectReader
	maxBytes int64
}

func NewStorageSource(store ObjectReader) *StorageSource {
	return &StorageSource{store: store, maxBytes: validate.MaxDocumentBytes}
}

func (s *StorageSource) Lookup(ctx context.Context, videoID string) (Document, error) {
	body, err := s.store.GetObject(ctx, DocumentKey(videoID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch hotspot document %s: %w", videoID, err)
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read hotspot document %s: %w", videoID, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("read hotspot document %s: %w (limit %d bytes)", videoID, ErrDocumentTooLarge, s.maxBytes)
	}
	return ParseDocument(data)
}

// DBSource reads documents from the hotspot_documents table.
type DBSource struct {
	db database.DBTX
}

func NewDBSource(db database.DBTX) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) Lookup(ctx context.Context, videoID string) (Document, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT document FROM hotspot_documents WHERE video_id = $1`,
		videoID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query hotspot document %s: %w", videoID, err)
	}
	return ParseDocument(raw)
}

// FallbackSource consults secondary only when primary has no document.
type FallbackSource struct {
	primary   Source
	secondary Source
}

func NewFallbackSource(primary, secondary Source) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary}
}

func (s *FallbackSource) Lookup(ctx context.Context, videoID string) (Document, error) {
	doc, err := s.primary.Lookup(ctx, videoID)
	if errors.Is(err, ErrNotFound) {
		return s.secondary.Lookup(ctx, videoID)
	}
	return doc, err
}

// Load resolves the ordered hotspot list for one variant of a video. Any
// failure degrades to an empty list; the player then runs without auto-pause.
func Load(ctx context.Context, src Source, videoID, variant string) []Record {
	if src == nil || videoID == "" {
		return nil
	}
	doc, err := src.Lookup(ctx, videoID)
	if err != nil {
		slog.Warn("hotspot: failed to load document", "video_id", videoID, "error", err)
		return nil
	}
	records, ok := doc[variant]
	if !ok {
		slog.Warn("hotspot: document has no variant", "video_id", videoID, "variant", variant)
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
