package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/storyloom-backend/internal/logger"
)

// AssetStore persists generated media and hands back a URL the frontend can
// load directly.
type AssetStore interface {
	Save(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

type AssetStoreMode string

const (
	AssetStoreModeLocal AssetStoreMode = "local"
	AssetStoreModeGCS   AssetStoreMode = "gcs"
)

type AssetStoreConfig struct {
	Mode            AssetStoreMode
	LocalDir        string
	LocalURLPrefix  string
	BucketName      string
	CredentialsFile string
}

type ErrAssetStoreBootstrap struct {
	Mode   AssetStoreMode
	Reason string
}

func (e *ErrAssetStoreBootstrap) Error() string {
	return fmt.Sprintf("asset store bootstrap failed (mode=%s): %s", e.Mode, e.Reason)
}

func NewAssetStore(ctx context.Context, log *logger.Logger, cfg AssetStoreConfig) (AssetStore, error) {
	switch cfg.Mode {
	case AssetStoreModeLocal, "":
		if cfg.LocalDir == "" {
			cfg.LocalDir = "static"
		}
		if cfg.LocalURLPrefix == "" {
			cfg.LocalURLPrefix = "/static"
		}
		if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
			return nil, &ErrAssetStoreBootstrap{Mode: AssetStoreModeLocal, Reason: err.Error()}
		}
		return &localAssetStore{
			log:       log.With("service", "AssetStore", "mode", "local"),
			dir:       cfg.LocalDir,
			urlPrefix: strings.TrimRight(cfg.LocalURLPrefix, "/"),
		}, nil

	case AssetStoreModeGCS:
		if cfg.BucketName == "" {
			return nil, &ErrAssetStoreBootstrap{Mode: AssetStoreModeGCS, Reason: "missing bucket name"}
		}
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, &ErrAssetStoreBootstrap{Mode: AssetStoreModeGCS, Reason: err.Error()}
		}
		return &gcsAssetStore{
			log:    log.With("service", "AssetStore", "mode", "gcs"),
			client: client,
			bucket: cfg.BucketName,
		}, nil

	default:
		return nil, &ErrAssetStoreBootstrap{Mode: cfg.Mode, Reason: "unknown mode"}
	}
}

type localAssetStore struct {
	log       *logger.Logger
	dir       string
	urlPrefix string
}

func (s *localAssetStore) Save(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	_ = contentType

	fullPath := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + name, nil
}

type gcsAssetStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func (s *gcsAssetStore) Save(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

// ImageObjectName derives a stable object name for raw image bytes.
func ImageObjectName(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("images/%d_%s.png", time.Now().Unix(), hex.EncodeToString(sum[:])[:8])
}

// AudioObjectName names one narration clip. The content hash keeps sibling
// paragraphs rendered within the same second from colliding.
func AudioObjectName(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("audio/scene_audio_%d_%s.mp3", time.Now().Unix(), hex.EncodeToString(sum[:])[:8])
}
