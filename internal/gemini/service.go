package gemini

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrNoImage means the image model answered without any inline image part
var ErrNoImage = errors.New("response contained no inline image")

type generator interface {
	GroundedAnswer(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	SynthesizeImage(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
}

type Service struct {
	client generator
	logger *logrus.Logger
}

func NewService(client *Client, logger *logrus.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// FallbackResult is what a failed answer call turns into
func FallbackResult() models.SearchResult {
	return models.SearchResult{
		Answer:        FallbackAnswerText,
		Sources:       []models.Source{},
		RelatedTopics: []string{},
	}
}

// Answer performs the grounded answer call and maps the response. Callers that
// must never see an error use AnswerQuery.
func (s *Service) Answer(ctx context.Context, query string) (models.SearchResult, error) {
	resp, err := s.client.GroundedAnswer(ctx, answerPrompt(query))
	if err != nil {
		return FallbackResult(), err
	}

	text := answerText(resp)
	if text == "" {
		text = NoAnswerText
	}

	return models.SearchResult{
		Answer:        text,
		Sources:       extractSources(resp),
		RelatedTopics: RelatedTopics(query),
	}, nil
}

// AnswerQuery is total: failures are logged and become FallbackResult
func (s *Service) AnswerQuery(ctx context.Context, query string) models.SearchResult {
	result, err := s.Answer(ctx, query)
	if err != nil {
		s.logFailure(err, "Search failed", query)
	}
	return result
}

// Image performs the image call and returns the first inline image
func (s *Service) Image(ctx context.Context, prompt string) (*models.GeneratedImage, error) {
	resp, err := s.client.SynthesizeImage(ctx, imagePrompt(prompt))
	if err != nil {
		return nil, err
	}
	if img := firstInlineImage(resp); img != nil {
		return img, nil
	}
	return nil, ErrNoImage
}

// GenerateImage is total: nil means no image, for whatever reason
func (s *Service) GenerateImage(ctx context.Context, prompt string) *models.GeneratedImage {
	img, err := s.Image(ctx, prompt)
	if err != nil {
		s.logFailure(err, "Image generation failed", prompt)
		return nil
	}
	return img
}

func (s *Service) logFailure(err error, msg, query string) {
	entry := s.logger.WithError(err).WithField("query", query)
	if errors.Is(err, context.Canceled) {
		entry.Debug(msg + " (cancelled)")
		return
	}
	entry.Error(msg)
}

func answerText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func extractSources(resp *genai.GenerateContentResponse) []models.Source {
	sources := []models.Source{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return sources
	}

	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = hostTitle(chunk.Web.URI)
		}
		sources = append(sources, models.Source{URI: chunk.Web.URI, Title: title})
	}
	return sources
}

// hostTitle labels an untitled source by its host, or the raw URI when it has none
func hostTitle(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		return uri
	}
	return u.Hostname()
}

func firstInlineImage(resp *genai.GenerateContentResponse) *models.GeneratedImage {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil {
			continue
		}
		return &models.GeneratedImage{
			MIMEType: part.InlineData.MIMEType,
			Data:     part.InlineData.Data,
		}
	}
	return nil
}
