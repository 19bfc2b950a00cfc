package services

import (
	"context"
	"strings"

	"github.com/yungbote/storyloom-backend/internal/logger"
)

// Fallback asset paths used when startup could not render and persist real
// placeholder media. They resolve under the local static mount.
const (
	DefaultPlaceholderImageURL = "/static/images/placeholder.png"
	DefaultPlaceholderAudioURL = "/static/audio/placeholder.mp3"
)

// MediaEnricher decorates generated paragraphs with an illustration and a
// narration clip. Both methods degrade instead of failing: every paragraph
// ends up with a usable image URL and a usable audio URL, placeholder or real.
type MediaEnricher interface {
	ImageFor(ctx context.Context, topic string, paragraph string) string
	AudioFor(ctx context.Context, paragraph string) string
}

type mediaEnricher struct {
	log                 *logger.Logger
	synth               ImageSynthClient
	stock               StockImageClient
	tts                 TTSClient
	store               AssetStore
	placeholderImageURL string
	placeholderAudioURL string
}

func NewMediaEnricher(log *logger.Logger, synth ImageSynthClient, stock StockImageClient, tts TTSClient, store AssetStore, placeholderImageURL string, placeholderAudioURL string) MediaEnricher {
	if placeholderImageURL == "" {
		placeholderImageURL = DefaultPlaceholderImageURL
	}
	if placeholderAudioURL == "" {
		placeholderAudioURL = DefaultPlaceholderAudioURL
	}
	return &mediaEnricher{
		log:                 log.With("service", "MediaEnricher"),
		synth:               synth,
		stock:               stock,
		tts:                 tts,
		store:               store,
		placeholderImageURL: placeholderImageURL,
		placeholderAudioURL: placeholderAudioURL,
	}
}

// ImageFor tries a stock photo search first, falls back to on-demand
// synthesis, and returns the placeholder when both fail.
func (m *mediaEnricher) ImageFor(ctx context.Context, topic string, paragraph string) string {
	if m.stock != nil {
		query := extractKeywords(paragraph)
		if query == "" {
			query = topic
		}
		if data, err := m.stock.Search(ctx, query); err == nil {
			if url, saveErr := m.store.Save(ctx, ImageObjectName(data), "image/jpeg", data); saveErr == nil {
				return url
			} else {
				m.log.Warn("Failed to save stock image", "error", saveErr.Error())
			}
		} else {
			m.log.Warn("Stock image search failed, falling back to synthesis", "query", query, "error", err.Error())
		}
	}

	if m.synth != nil {
		prompt := "An illustration for a story about " + topic + ": " + paragraph
		if data, err := m.synth.Synthesize(ctx, prompt); err == nil {
			if url, saveErr := m.store.Save(ctx, ImageObjectName(data), "image/png", data); saveErr == nil {
				return url
			} else {
				m.log.Warn("Failed to save synthesized image", "error", saveErr.Error())
			}
		} else {
			m.log.Warn("Image synthesis failed", "error", err.Error())
		}
	}

	return m.placeholderImageURL
}

func (m *mediaEnricher) AudioFor(ctx context.Context, paragraph string) string {
	if m.tts == nil {
		return m.placeholderAudioURL
	}

	data, err := m.tts.Synthesize(ctx, paragraph)
	if err != nil {
		m.log.Warn("Narration synthesis failed", "error", err.Error())
		return m.placeholderAudioURL
	}

	url, err := m.store.Save(ctx, AudioObjectName(data), "audio/mpeg", data)
	if err != nil {
		m.log.Warn("Failed to save narration clip", "error", err.Error())
		return m.placeholderAudioURL
	}
	return url
}

// extractKeywords picks the first few substantial words of a paragraph as a
// search query. Crude, but stock search only needs a rough theme.
func extractKeywords(paragraph string) string {
	words := strings.Fields(paragraph)
	picked := make([]string, 0, 5)
	for _, w := range words {
		trimmed := strings.Trim(w, ".,!?;:\"'()")
		if len(trimmed) > 5 {
			picked = append(picked, trimmed)
		}
		if len(picked) == 5 {
			break
		}
	}
	return strings.Join(picked, " ")
}
