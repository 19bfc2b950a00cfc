package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestAssetStoreLocalSaveAndURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewAssetStore(context.Background(), newTestLogger(t), AssetStoreConfig{
		Mode:     AssetStoreModeLocal,
		LocalDir: dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := store.Save(context.Background(), "images/test.png", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/static/images/test.png" {
		t.Fatalf("url: want=%q got=%q", "/static/images/test.png", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "images", "test.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("payload: want=3 bytes got=%d", len(data))
	}
}

func TestAssetStoreDefaultsToLocal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewAssetStore(context.Background(), newTestLogger(t), AssetStoreConfig{
		LocalDir: dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*localAssetStore); !ok {
		t.Fatalf("empty mode should default to local, got=%T", store)
	}
}

func TestAssetStoreGCSRequiresBucket(t *testing.T) {
	_, err := NewAssetStore(context.Background(), newTestLogger(t), AssetStoreConfig{
		Mode: AssetStoreModeGCS,
	})
	var bootErr *ErrAssetStoreBootstrap
	if !errors.As(err, &bootErr) {
		t.Fatalf("want ErrAssetStoreBootstrap, got=%v", err)
	}
	if bootErr.Mode != AssetStoreModeGCS {
		t.Fatalf("mode: want=%q got=%q", AssetStoreModeGCS, bootErr.Mode)
	}
}

func TestAssetStoreUnknownMode(t *testing.T) {
	_, err := NewAssetStore(context.Background(), newTestLogger(t), AssetStoreConfig{
		Mode: AssetStoreMode("s3"),
	})
	var bootErr *ErrAssetStoreBootstrap
	if !errors.As(err, &bootErr) {
		t.Fatalf("want ErrAssetStoreBootstrap, got=%v", err)
	}
}

func TestImageObjectName(t *testing.T) {
	name := ImageObjectName([]byte("payload"))
	matched, err := regexp.MatchString(`^images/\d+_[0-9a-f]{8}\.png$`, name)
	if err != nil {
		t.Fatalf("regexp: %v", err)
	}
	if !matched {
		t.Fatalf("unexpected image name: %q", name)
	}
}

func TestAudioObjectName(t *testing.T) {
	name := AudioObjectName([]byte("clip"))
	matched, err := regexp.MatchString(`^audio/scene_audio_\d+_[0-9a-f]{8}\.mp3$`, name)
	if err != nil {
		t.Fatalf("regexp: %v", err)
	}
	if !matched {
		t.Fatalf("unexpected audio name: %q", name)
	}
}

func TestAudioObjectNameDistinguishesSiblings(t *testing.T) {
	a := AudioObjectName([]byte("first paragraph narration"))
	b := AudioObjectName([]byte("second paragraph narration"))
	if a == b {
		t.Fatalf("names for different clips must differ, both=%q", a)
	}
}
