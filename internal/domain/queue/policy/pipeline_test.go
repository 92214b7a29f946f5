package policy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountentity "github.com/vadim/villapost/internal/domain/account/entity"
	"github.com/vadim/villapost/internal/domain/queue/entity"
	"github.com/vadim/villapost/internal/domain/queue/service"
)

type testEnv struct {
	policy     *Policy
	repo       *fakeRepo
	fetcher    *fakeFetcher
	generator  *fakeGenerator
	compositor *fakeCompositor
	publisher  *fakePublisher
	imageHost  *fakeImageHost
	extracted  []string
	extractErr error
	extraCalls int
}

func newTestEnv(t *testing.T, profiles []accountentity.Profile, posts ...*entity.ScheduledPost) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:       newFakeRepo(posts...),
		fetcher:    &fakeFetcher{html: "<html><img src='a.jpg'></html>"},
		generator:  &fakeGenerator{caption: "A lovely villa by the sea", summary: "Sea views<br>3 bedrooms"},
		compositor: &fakeCompositor{url: "https://cdn.example.com/composite.png"},
		publisher:  &fakePublisher{},
		imageHost:  &fakeImageHost{url: "https://cdn.example.com/brand.png"},
		extracted:  []string{"https://site.example/a.jpg", "https://site.example/b.jpg"},
	}

	extractor := func(html, baseURL string) ([]string, error) {
		env.extraCalls++
		if env.extractErr != nil {
			return nil, env.extractErr
		}
		return env.extracted, nil
	}

	env.policy = New(
		service.New(env.repo),
		&fakeProfiles{profiles: profiles},
		env.fetcher,
		extractor,
		env.generator,
		env.compositor,
		env.publisher,
		env.imageHost,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return env
}

func testProfile() accountentity.Profile {
	return accountentity.Profile{
		ID:              "acc-1",
		Email:           "owner@example.com",
		AutoPublish:     true,
		ScheduledTime:   "14:00",
		Timezone:        "Europe/Madrid",
		Language:        "es",
		PageID:          "page-1",
		PageAccessToken: "token-1",
	}
}

func pendingPost(id string, position int) *entity.ScheduledPost {
	now := time.Now()
	return &entity.ScheduledPost{
		ID:        id,
		AccountID: "acc-1",
		URL:       "https://site.example/listing/42",
		Position:  position,
		Status:    entity.PostStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestProcessPostFullPipeline(t *testing.T) {
	profile := testProfile()
	post := pendingPost("p1", 1)
	env := newTestEnv(t, []accountentity.Profile{profile}, post)

	err := env.policy.processPost(context.Background(), post, &profile)
	require.NoError(t, err)

	assert.Equal(t, 1, env.extraCalls)
	assert.Equal(t, 1, env.generator.captionCalls)
	assert.Equal(t, 1, env.compositor.calls)
	assert.Equal(t, 1, env.publisher.calls)

	// In-memory post reflects the final state
	assert.Equal(t, entity.PostStatusPublished, post.Status)
	require.NotNil(t, post.PublishedAt)
	assert.Empty(t, post.LastError)

	// Every step was persisted
	stored := env.repo.get("p1")
	assert.Equal(t, env.extracted, stored.ImageURLs)
	assert.Equal(t, "A lovely villa by the sea", stored.Caption)
	assert.Equal(t, "Sea views<br>3 bedrooms", stored.ShortSummary)
	assert.Equal(t, "https://cdn.example.com/composite.png", stored.MarketingImageURL)
	assert.Equal(t, entity.PostStatusPublished, stored.Status)
}

func TestProcessPostResumesFromContent(t *testing.T) {
	profile := testProfile()
	post := pendingPost("p1", 1)
	post.ImageURLs = []string{"https://site.example/a.jpg"}
	env := newTestEnv(t, []accountentity.Profile{profile}, post)

	err := env.policy.processPost(context.Background(), post, &profile)
	require.NoError(t, err)

	// Extraction already done, so the extractor must not run again
	assert.Equal(t, 0, env.extraCalls)
	assert.Equal(t, 1, env.generator.captionCalls)
	assert.Equal(t, 1, env.publisher.calls)
}

func TestProcessPostResumesFromRender(t *testing.T) {
	profile := testProfile()
	post := pendingPost("p1", 1)
	post.ImageURLs = []string{"https://site.example/a.jpg"}
	post.Caption = "existing caption"
	post.ShortSummary = "existing summary"
	env := newTestEnv(t, []accountentity.Profile{profile}, post)

	err := env.policy.processPost(context.Background(), post, &profile)
	require.NoError(t, err)

	assert.Equal(t, 0, env.extraCalls)
	assert.Equal(t, 0, env.generator.captionCalls)
	assert.Equal(t, 1, env.compositor.calls)

	// Publish uses the fields that were already present
	assert.Equal(t, "existing caption", env.publisher.last.Message)
	assert.Equal(t, "existing summary", env.compositor.last.Summary)
}

func TestProcessPostFailurePreservesCompletedSteps(t *testing.T) {
	profile := testProfile()
	post := pendingPost("p1", 1)
	env := newTestEnv(t, []accountentity.Profile{profile}, post)
	env.generator.err = errors.New("model unavailable")

	err := env.policy.processPost(context.Background(), post, &profile)
	require.Error(t, err)

	assert.Equal(t, entity.PostStatusError, post.Status)
	assert.Contains(t, post.LastError, "model unavailable")

	// Images from the completed step survive the failure
	stored := env.repo.get("p1")
	assert.Equal(t, entity.PostStatusError, stored.Status)
	assert.Equal(t, env.extracted, stored.ImageURLs)
	assert.Empty(t, stored.Caption)
	assert.NotEmpty(t, stored.LastError)
}

func TestProcessPostNoImagesFails(t *testing.T) {
	profile := testProfile()
	post := pendingPost("p1", 1)
	env := newTestEnv(t, []accountentity.Profile{profile}, post)
	env.extracted = nil

	err := env.policy.processPost(context.Background(), post, &profile)
	require.ErrorIs(t, err, entity.ErrNoImagesFound)

	assert.Equal(t, entity.PostStatusError, post.Status)
	assert.Equal(t, 0, env.publisher.calls)
}

func TestProcessPostUploadsInlineBrandImage(t *testing.T) {
	profile := testProfile()
	profile.BrandImageURL = "data:image/png;base64,aGVsbG8="
	post := pendingPost("p1", 1)
	env := newTestEnv(t, []accountentity.Profile{profile}, post)

	err := env.policy.processPost(context.Background(), post, &profile)
	require.NoError(t, err)

	assert.Equal(t, 1, env.imageHost.calls)
	last := env.publisher.last.ImageURLs
	require.NotEmpty(t, last)
	assert.Equal(t, "https://cdn.example.com/brand.png", last[len(last)-1])
}

func TestProcessPostHostedBrandImagePassesThrough(t *testing.T) {
	profile := testProfile()
	profile.BrandImageURL = "https://cdn.example.com/hosted-brand.png"
	post := pendingPost("p1", 1)
	env := newTestEnv(t, []accountentity.Profile{profile}, post)

	err := env.policy.processPost(context.Background(), post, &profile)
	require.NoError(t, err)

	assert.Equal(t, 0, env.imageHost.calls)
	last := env.publisher.last.ImageURLs
	assert.Equal(t, "https://cdn.example.com/hosted-brand.png", last[len(last)-1])
}

func TestBuildCarousel(t *testing.T) {
	tests := []struct {
		name      string
		marketing string
		originals []string
		brand     string
		want      []string
	}{
		{
			name:      "caps originals at three",
			marketing: "m",
			originals: []string{"i1", "i2", "i3", "i4", "i5"},
			brand:     "b",
			want:      []string{"m", "i1", "i2", "i3", "b"},
		},
		{
			name:      "fewer than three originals",
			marketing: "m",
			originals: []string{"i1"},
			brand:     "b",
			want:      []string{"m", "i1", "b"},
		},
		{
			name:      "no brand image",
			marketing: "m",
			originals: []string{"i1", "i2"},
			brand:     "",
			want:      []string{"m", "i1", "i2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildCarousel(tt.marketing, tt.originals, tt.brand)
			assert.Equal(t, tt.want, got)
		})
	}
}
