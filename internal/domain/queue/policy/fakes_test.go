package policy

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	accountentity "github.com/vadim/villapost/internal/domain/account/entity"
	"github.com/vadim/villapost/internal/domain/queue/entity"
)

// fakeRepo is an in-memory ScheduledPostRepository for policy tests
type fakeRepo struct {
	mu    sync.Mutex
	posts map[string]*entity.ScheduledPost
}

func newFakeRepo(posts ...*entity.ScheduledPost) *fakeRepo {
	r := &fakeRepo{posts: make(map[string]*entity.ScheduledPost)}
	for _, p := range posts {
		cp := *p
		r.posts[p.ID] = &cp
	}
	return r
}

func (r *fakeRepo) get(id string) *entity.ScheduledPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[id]
}

func (r *fakeRepo) CreateBatch(ctx context.Context, posts []*entity.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range posts {
		cp := *p
		r.posts[p.ID] = &cp
	}
	return nil
}

func (r *fakeRepo) MaxPosition(ctx context.Context, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, p := range r.posts {
		if p.AccountID == accountID && p.Position > max {
			max = p.Position
		}
	}
	return max, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, entity.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) NextDue(ctx context.Context, accountID string, dayStart time.Time) (*entity.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []*entity.ScheduledPost
	for _, p := range r.posts {
		if p.AccountID != accountID || p.Status != entity.PostStatusPending {
			continue
		}
		if p.PublishedAt != nil && !p.PublishedAt.Before(dayStart) {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Position < candidates[j].Position })
	cp := *candidates[0]
	return &cp, nil
}

func (r *fakeRepo) ListByAccount(ctx context.Context, accountID string) ([]entity.ScheduledPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ScheduledPost
	for _, p := range r.posts {
		if p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeRepo) CountByStatus(ctx context.Context, accountID string) (*entity.QueueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &entity.QueueStats{}
	for _, p := range r.posts {
		if p.AccountID != accountID {
			continue
		}
		stats.Total++
		switch p.Status {
		case entity.PostStatusPending:
			stats.Pending++
		case entity.PostStatusPublished:
			stats.Published++
		case entity.PostStatusError:
			stats.Error++
		}
	}
	return stats, nil
}

func (r *fakeRepo) Delete(ctx context.Context, accountID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.AccountID != accountID {
		return entity.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakeRepo) DeletePublished(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.posts {
		if p.AccountID == accountID && p.Status == entity.PostStatusPublished {
			delete(r.posts, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) RequeueErrors(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.posts {
		if p.AccountID == accountID && p.Status == entity.PostStatusError {
			p.Status = entity.PostStatusPending
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) MarkAttempt(ctx context.Context, id string, at time.Time) error {
	return r.update(id, func(p *entity.ScheduledPost) {
		p.LastAttemptAt = &at
	})
}

func (r *fakeRepo) SaveImages(ctx context.Context, id string, urls []string) error {
	return r.update(id, func(p *entity.ScheduledPost) {
		p.ImageURLs = urls
	})
}

func (r *fakeRepo) SaveContent(ctx context.Context, id string, caption, summary string) error {
	return r.update(id, func(p *entity.ScheduledPost) {
		p.Caption = caption
		p.ShortSummary = summary
	})
}

func (r *fakeRepo) SaveMarketingImage(ctx context.Context, id string, url string) error {
	return r.update(id, func(p *entity.ScheduledPost) {
		p.MarketingImageURL = url
	})
}

func (r *fakeRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	return r.update(id, func(p *entity.ScheduledPost) {
		p.Status = entity.PostStatusPublished
		p.PublishedAt = &at
		p.LastError = ""
	})
}

func (r *fakeRepo) MarkError(ctx context.Context, id string, message string) error {
	return r.update(id, func(p *entity.ScheduledPost) {
		p.Status = entity.PostStatusError
		p.LastError = message
	})
}

func (r *fakeRepo) update(id string, fn func(*entity.ScheduledPost)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return entity.ErrPostNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now()
	return nil
}

// fakeProfiles is an in-memory ProfileProvider
type fakeProfiles struct {
	profiles []accountentity.Profile
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string) (*accountentity.Profile, error) {
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			cp := f.profiles[i]
			return &cp, nil
		}
	}
	return nil, errors.New("profile not found")
}

func (f *fakeProfiles) ListAutoPublish(ctx context.Context) ([]accountentity.Profile, error) {
	var out []accountentity.Profile
	for _, p := range f.profiles {
		if p.AutoPublish {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeFetcher returns canned HTML
type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

// fakeGenerator returns canned caption and summary
type fakeGenerator struct {
	caption      string
	summary      string
	err          error
	captionCalls int
}

func (f *fakeGenerator) GeneratePost(ctx context.Context, html, url, language string) (string, error) {
	f.captionCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.caption, nil
}

func (f *fakeGenerator) GenerateShortSummary(ctx context.Context, caption, language string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// fakeCompositor returns a canned composite URL
type fakeCompositor struct {
	url   string
	err   error
	calls int
	last  RenderInput
}

func (f *fakeCompositor) Render(ctx context.Context, in RenderInput) (string, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// fakePublisher records the publish request
type fakePublisher struct {
	err   error
	calls int
	last  PublishInput
}

func (f *fakePublisher) PublishCarousel(ctx context.Context, in PublishInput) (*PublishOutput, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &PublishOutput{PostID: "fb-post-1"}, nil
}

// fakeImageHost records uploaded data URIs
type fakeImageHost struct {
	url   string
	calls int
}

func (f *fakeImageHost) UploadDataURI(ctx context.Context, dataURI string) (string, error) {
	f.calls++
	return f.url, nil
}
