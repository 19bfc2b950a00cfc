package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/storyloom-backend/internal/logger"
)

// StockImageClient finds a real photograph loosely matching a text query.
type StockImageClient interface {
	Search(ctx context.Context, query string) ([]byte, error)
}

// ImageSynthClient renders an image from a text prompt.
type ImageSynthClient interface {
	Synthesize(ctx context.Context, prompt string) ([]byte, error)
}

type unsplashClient struct {
	log        *logger.Logger
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

type UnsplashConfig struct {
	BaseURL   string
	AccessKey string
	Timeout   time.Duration
}

func NewUnsplashClient(log *logger.Logger, cfg UnsplashConfig) (StockImageClient, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("missing stock image access key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.unsplash.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &unsplashClient{
		log:        log.With("service", "StockImageClient"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:  cfg.AccessKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type unsplashRandomResponse struct {
	URLs struct {
		Regular string `json:"regular"`
	} `json:"urls"`
}

func (c *unsplashClient) Search(ctx context.Context, query string) ([]byte, error) {
	endpoint := c.baseURL + "/photos/random?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &providerHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var body unsplashRandomResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.URLs.Regular == "" {
		return nil, fmt.Errorf("stock image response had no url")
	}

	return c.download(ctx, body.URLs.Regular)
}

func (c *unsplashClient) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &providerHTTPError{StatusCode: resp.StatusCode, Body: "image download failed"}
	}
	return io.ReadAll(resp.Body)
}

type imageSynthClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	size       string
	httpClient *http.Client
}

type ImageSynthConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Size    string
	Timeout time.Duration
}

func NewImageSynthClient(log *logger.Logger, cfg ImageSynthConfig) (ImageSynthClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing image synth API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	if cfg.Size == "" {
		cfg.Size = "1024x1024"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &imageSynthClient{
		log:        log.With("service", "ImageSynthClient"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		size:       cfg.Size,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (c *imageSynthClient) Synthesize(ctx context.Context, prompt string) ([]byte, error) {
	payload := imageGenerationRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		ResponseFormat: "b64_json",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/images/generations", strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &providerHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var body imageGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 || body.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image synth response had no data")
	}

	decoded, err := base64.StdEncoding.DecodeString(body.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("image synth payload decode: %w", err)
	}
	return decoded, nil
}
