// Package attachments persists crisis alert photos in object storage and
// recovers GPS coordinates from their EXIF metadata.
package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rwcarlsen/goexif/exif"

	crisishandler "crisisnet_backend/internal/crisis/handler"
	"crisisnet_backend/internal/geo"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store keeps alert photos in a MinIO bucket, one folder per crisis.
type Store struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
	log         *logger.Logger
}

// New builds the photo store, or nil when object storage is not configured.
// The bucket is created on first use if missing.
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*Store, error) {
	if cfg.GetMinIOEndpoint() == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &Store{
		client:      client,
		bucket:      cfg.GetMinioBucketCrisisPhotos(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
		log:         log,
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Store uploads a photo under the given crisis reference and returns its
// object URL plus any GPS fix found in the image metadata. The body is
// buffered so the EXIF scan does not consume the upload stream.
func (s *Store) Store(ctx context.Context, ref, filename, contentType string, r io.Reader, size int64) (crisishandler.StoredPhoto, error) {
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return crisishandler.StoredPhoto{}, fmt.Errorf("unsupported photo content type %q", contentType)
	}
	if size > s.maxFileSize {
		return crisishandler.StoredPhoto{}, fmt.Errorf("photo exceeds %d byte limit", s.maxFileSize)
	}

	body, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return crisishandler.StoredPhoto{}, fmt.Errorf("failed to read photo: %w", err)
	}
	if int64(len(body)) > s.maxFileSize {
		return crisishandler.StoredPhoto{}, fmt.Errorf("photo exceeds %d byte limit", s.maxFileSize)
	}

	key := objectKey(ref, filename, ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return crisishandler.StoredPhoto{}, fmt.Errorf("failed to upload photo %s: %w", key, err)
	}

	return crisishandler.StoredPhoto{
		URL: s.objectURL(key),
		GPS: extractGPS(body),
	}, nil
}

// Ping verifies the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

func (s *Store) objectURL(key string) string {
	scheme := "http"
	if s.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, key)
}

// objectKey namespaces photos per crisis and suffixes a short UUID so
// repeated uploads of the same filename never overwrite each other.
func objectKey(ref, filename, ext string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	if base == "" {
		base = "photo"
	}
	return fmt.Sprintf("%s/%s_%s%s", ref, base, uuid.New().String()[:8], ext)
}

// extractGPS pulls a latitude/longitude fix from EXIF metadata. Returns nil
// when the image carries none.
func extractGPS(body []byte) *geo.Point {
	x, err := exif.Decode(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	lat, lon, err := x.LatLong()
	if err != nil {
		return nil
	}
	return &geo.Point{Lat: lat, Lon: lon}
}
