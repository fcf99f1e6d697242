package main

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	llmdomain "github.com/lexlapax/go-llms/pkg/llm/domain"
	schemadomain "github.com/lexlapax/go-llms/pkg/schema/domain"
	"github.com/stretchr/testify/assert"
)

// stubProvider plays back canned Generate replies in order; an empty reply
// string stands for an error.
type stubProvider struct {
	replies []string
	calls   int
	prompts []string
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llmdomain.Option) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if p.calls >= len(p.replies) {
		return "", errors.New("no more replies")
	}
	reply := p.replies[p.calls]
	p.calls++
	if reply == "" {
		return "", errors.New("stub failure")
	}
	return reply, nil
}

func (p *stubProvider) GenerateMessage(ctx context.Context, messages []llmdomain.Message, options ...llmdomain.Option) (llmdomain.Response, error) {
	return llmdomain.Response{}, errors.New("not implemented")
}

func (p *stubProvider) GenerateWithSchema(ctx context.Context, prompt string, schema *schemadomain.Schema, options ...llmdomain.Option) (interface{}, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) Stream(ctx context.Context, prompt string, options ...llmdomain.Option) (llmdomain.ResponseStream, error) {
	return nil, errors.New("not implemented")
}

func (p *stubProvider) StreamMessage(ctx context.Context, messages []llmdomain.Message, options ...llmdomain.Option) (llmdomain.ResponseStream, error) {
	return nil, errors.New("not implemented")
}

func testRanker(provider llmdomain.Provider) *GeminiRanker {
	return &GeminiRanker{
		provider: provider,
		models:   rankModels,
		log:      log.New(io.Discard, "", 0),
	}
}

func rankCandidates(n int) []UnsplashPhoto {
	photos := make([]UnsplashPhoto, n)
	for i := range photos {
		photos[i] = testPhoto(string(rune('a'+i)), "city view")
	}
	return photos
}

func TestRankValidResponse(t *testing.T) {
	provider := &stubProvider{replies: []string{`{"ranked_indices": [2, 0, 1]}`}}
	ranked := testRanker(provider).Rank(context.Background(), "jaipur", rankCandidates(3))
	assert.Equal(t, []int{2, 0, 1}, ranked)
	assert.Equal(t, 1, provider.calls)
}

func TestRankFencedResponse(t *testing.T) {
	provider := &stubProvider{replies: []string{"```json\n{\"ranked_indices\": [1, 0]}\n```"}}
	ranked := testRanker(provider).Rank(context.Background(), "goa", rankCandidates(2))
	assert.Equal(t, []int{1, 0}, ranked)
}

func TestRankFallsThroughModels(t *testing.T) {
	provider := &stubProvider{replies: []string{"not json at all", `{"ranked_indices": [0, 1]}`}}
	ranked := testRanker(provider).Rank(context.Background(), "goa", rankCandidates(2))
	assert.Equal(t, []int{0, 1}, ranked)
	assert.Equal(t, 2, provider.calls, "unusable output moves on to the next model")
}

func TestRankAllModelsFailIdentity(t *testing.T) {
	provider := &stubProvider{replies: []string{"", `{"ranked_indices": []}`}}
	ranked := testRanker(provider).Rank(context.Background(), "goa", rankCandidates(4))
	assert.Equal(t, []int{0, 1, 2, 3}, ranked)
}

func TestRankNilProviderIdentity(t *testing.T) {
	ranked := testRanker(nil).Rank(context.Background(), "goa", rankCandidates(3))
	assert.Equal(t, []int{0, 1, 2}, ranked)
}

func TestRankEmptyCandidates(t *testing.T) {
	provider := &stubProvider{}
	ranked := testRanker(provider).Rank(context.Background(), "goa", nil)
	assert.Empty(t, ranked)
	assert.Equal(t, 0, provider.calls, "nothing to rank means no model call")
}

func TestRankPromptCarriesCandidateInfo(t *testing.T) {
	provider := &stubProvider{replies: []string{`{"ranked_indices": [0]}`}}
	photo := testPhoto("x", "amber fort at sunset")
	photo.Tags = []UnsplashTag{{Title: "rajasthan"}}
	testRanker(provider).Rank(context.Background(), "jaipur", []UnsplashPhoto{photo})

	assert.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "jaipur")
	assert.Contains(t, provider.prompts[0], "amber fort at sunset")
	assert.Contains(t, provider.prompts[0], "rajasthan")
}
