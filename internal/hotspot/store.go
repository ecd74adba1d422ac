package hotspot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/prahasith1996/video-player/internal/database"
	"github.com/prahasith1996/video-player/internal/storage"
)

// Store persists raw hotspot documents for the admin endpoints and the CLI.
type Store interface {
	Put(ctx context.Context, videoID string, raw []byte) error
	Get(ctx context.Context, videoID string) ([]byte, error)
}

// DBStore keeps documents in the hotspot_documents table.
type DBStore struct {
	db database.DBTX
}

func NewDBStore(db database.DBTX) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Put(ctx context.Context, videoID string, raw []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO hotspot_documents (video_id, document)
		 VALUES ($1, $2)
		 ON CONFLICT (video_id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		videoID, raw,
	)
	if err != nil {
		return fmt.Errorf("upsert hotspot document %s: %w", videoID, err)
	}
	return nil
}

func (s *DBStore) Get(ctx context.Context, videoID string) ([]byte, error) {
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
	return raw, nil
}

// ObjectReadWriter is the subset of object storage an ObjectStore needs.
type ObjectReadWriter interface {
	ObjectReader
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// ObjectStore keeps documents at DocumentKey in a bucket.
type ObjectStore struct {
	objects ObjectReadWriter
}

func NewObjectStore(objects ObjectReadWriter) *ObjectStore {
	return &ObjectStore{objects: objects}
}

func (s *ObjectStore) Put(ctx context.Context, videoID string, raw []byte) error {
	return s.objects.PutObject(ctx, DocumentKey(videoID), raw, "application/json")
}

func (s *ObjectStore) Get(ctx context.Context, videoID string) ([]byte, error) {
	body, err := s.objects.GetObject(ctx, DocumentKey(videoID))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	return io.ReadAll(body)
}
