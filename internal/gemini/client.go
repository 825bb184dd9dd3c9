package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrClientUnavailable is returned by every call when the SDK client could not be built,
// usually because the API key is missing.
var ErrClientUnavailable = errors.New("gemini client unavailable")

type ClientConfig struct {
	APIKey      string
	BaseURL     string
	AnswerModel string
	ImageModel  string
}

// Client is the transport to the Gemini API. It knows nothing about search results.
type Client struct {
	genai       *genai.Client
	answerModel string
	imageModel  string
	initErr     error
	logger      *logrus.Logger
}

// NewClient never fails: a client without credentials is still returned so callers
// can attempt requests, which then fail with ErrClientUnavailable.
func NewClient(ctx context.Context, cfg ClientConfig, logger *logrus.Logger) *Client {
	c := &Client{
		answerModel: cfg.AnswerModel,
		imageModel:  cfg.ImageModel,
		logger:      logger,
	}

	if cfg.APIKey == "" {
		logger.Error("Gemini API key is missing from environment variables")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		logger.WithError(err).Error("Failed to create Gemini client")
		c.initErr = fmt.Errorf("%w: %v", ErrClientUnavailable, err)
		return c
	}

	c.genai = gc
	return c
}

// GroundedAnswer asks the answer model with Google Search grounding enabled
func (c *Client) GroundedAnswer(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	return c.generate(ctx, c.answerModel, prompt, config)
}

// SynthesizeImage asks the image model for a 16:9 picture
func (c *Client) SynthesizeImage(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: "16:9"},
	}
	return c.generate(ctx, c.imageModel, prompt, config)
}

// Ping fetches the answer model's metadata
func (c *Client) Ping(ctx context.Context) error {
	if c.genai == nil {
		return c.initErr
	}
	if _, err := c.genai.Models.Get(ctx, c.answerModel, nil); err != nil {
		return fmt.Errorf("model lookup failed: %w", err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c.genai == nil {
		return nil, c.initErr
	}

	c.logger.WithFields(logrus.Fields{
		"model":         model,
		"prompt_length": len(prompt),
	}).Debug("Making Gemini API request")

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("generate content with %s failed: %w", model, err)
	}

	c.logger.WithFields(logrus.Fields{
		"model":         model,
		"candidates":    len(resp.Candidates),
		"response_time": elapsed.Milliseconds(),
	}).Debug("Gemini API response received")

	return resp, nil
}
