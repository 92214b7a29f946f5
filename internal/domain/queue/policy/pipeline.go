package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	accountentity "github.com/vadim/villapost/internal/domain/account/entity"
	"github.com/vadim/villapost/internal/domain/queue/entity"
)

// Per-step ceilings so one stuck upstream cannot stall a whole sweep
const (
	fetchTimeout    = 30 * time.Second
	generateTimeout = 60 * time.Second
	renderTimeout   = 60 * time.Second
	publishTimeout  = 2 * time.Minute
)

// maxOriginalImages caps the source photos attached after the marketing image,
// leaving room for the brand closing image within the platform's limits.
const maxOriginalImages = 3

// PageFetcher retrieves a listing page's HTML
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// ContentGenerator produces the caption and the derived short summary.
// These interfaces are defined here (consumer) not in the upstream packages.
type ContentGenerator interface {
	GeneratePost(ctx context.Context, html, url, language string) (string, error)
	GenerateShortSummary(ctx context.Context, caption, language string) (string, error)
}

// ImageExtractor pulls listing photo URLs from fetched HTML
type ImageExtractor func(html, baseURL string) ([]string, error)

// RenderInput represents input for rendering the marketing composite
type RenderInput struct {
	BaseImageURL string
	Summary      string
	Color1       string
	Color2       string
	LogoURL      string
}

// ImageCompositor renders the branded marketing image and returns its URL
type ImageCompositor interface {
	Render(ctx context.Context, in RenderInput) (string, error)
}

// PublishInput represents input for publishing the assembled carousel
type PublishInput struct {
	PageID      string
	AccessToken string
	ImageURLs   []string
	Message     string
}

// PublishOutput represents output from publishing
type PublishOutput struct {
	PostID string
}

// SocialPublisher publishes a carousel to the social platform
type SocialPublisher interface {
	PublishCarousel(ctx context.Context, in PublishInput) (*PublishOutput, error)
}

// ImageHost turns inline image data into a stable hosted URL
type ImageHost interface {
	UploadDataURI(ctx context.Context, dataURI string) (string, error)
}

// processPost advances one queue entry through the pipeline, resuming from the
// first step whose output field is empty. Every completed step is persisted
// before the next one starts, so a failure mid-pipeline loses nothing.
func (p *Policy) processPost(ctx context.Context, post *entity.ScheduledPost, profile *accountentity.Profile) error {
	// Step 1: extract listing images
	if post.NeedsExtraction() {
		urls, err := p.extractImages(ctx, post.URL)
		if err != nil {
			return p.fail(ctx, post, fmt.Errorf("extracting images: %w", err))
		}
		if err := p.svc.SaveImages(ctx, post.ID, urls); err != nil {
			return p.fail(ctx, post, err)
		}
		post.ImageURLs = urls
	}
	if len(post.ImageURLs) == 0 {
		return p.fail(ctx, post, entity.ErrNoImagesFound)
	}

	// Step 2: caption first, then the summary derived from it
	if post.NeedsContent() {
		caption, summary, err := p.generateContent(ctx, post.URL, profile.Language)
		if err != nil {
			return p.fail(ctx, post, fmt.Errorf("generating content: %w", err))
		}
		if err := p.svc.SaveContent(ctx, post.ID, caption, summary); err != nil {
			return p.fail(ctx, post, err)
		}
		post.Caption = caption
		post.ShortSummary = summary
	}

	// Step 3: render the branded composite
	if post.NeedsMarketingImage() {
		url, err := p.renderComposite(ctx, post, profile)
		if err != nil {
			return p.fail(ctx, post, fmt.Errorf("rendering marketing image: %w", err))
		}
		if err := p.svc.SaveMarketingImage(ctx, post.ID, url); err != nil {
			return p.fail(ctx, post, err)
		}
		post.MarketingImageURL = url
	}

	// Step 4: assemble the carousel and publish
	if err := p.publish(ctx, post, profile); err != nil {
		return p.fail(ctx, post, fmt.Errorf("publishing: %w", err))
	}

	now := p.now()
	if err := p.svc.MarkPublished(ctx, post.ID, now); err != nil {
		return err
	}
	post.Status = entity.PostStatusPublished
	post.PublishedAt = &now
	post.LastError = ""

	return nil
}

func (p *Policy) extractImages(ctx context.Context, pageURL string) ([]string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	html, err := p.fetcher.FetchPage(fetchCtx, pageURL)
	if err != nil {
		return nil, err
	}

	urls, err := p.extractor(html, pageURL)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, entity.ErrNoImagesFound
	}
	return urls, nil
}

func (p *Policy) generateContent(ctx context.Context, pageURL, language string) (caption, summary string, err error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	html, err := p.fetcher.FetchPage(fetchCtx, pageURL)
	if err != nil {
		return "", "", err
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	caption, err = p.generator.GeneratePost(genCtx, html, pageURL, language)
	if err != nil {
		return "", "", err
	}

	sumCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	summary, err = p.generator.GenerateShortSummary(sumCtx, caption, language)
	if err != nil {
		return "", "", err
	}

	return caption, summary, nil
}

func (p *Policy) renderComposite(ctx context.Context, post *entity.ScheduledPost, profile *accountentity.Profile) (string, error) {
	renderCtx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	brand := profile.BrandOrDefault()
	return p.compositor.Render(renderCtx, RenderInput{
		BaseImageURL: post.ImageURLs[0],
		Summary:      post.ShortSummary,
		Color1:       brand.Color1,
		Color2:       brand.Color2,
		LogoURL:      brand.LogoURL,
	})
}

func (p *Policy) publish(ctx context.Context, post *entity.ScheduledPost, profile *accountentity.Profile) error {
	brandImageURL, err := p.resolveBrandImage(ctx, profile.BrandImageURL)
	if err != nil {
		return fmt.Errorf("resolving brand image: %w", err)
	}

	images := buildCarousel(post.MarketingImageURL, post.ImageURLs, brandImageURL)

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err = p.publisher.PublishCarousel(publishCtx, PublishInput{
		PageID:      profile.PageID,
		AccessToken: profile.PageAccessToken,
		ImageURLs:   images,
		Message:     post.Caption,
	})
	return err
}

// resolveBrandImage returns a publishable URL for the closing image: inline
// data is uploaded first, hosted URLs pass through, empty stays empty.
func (p *Policy) resolveBrandImage(ctx context.Context, brandImage string) (string, error) {
	if brandImage == "" || !strings.HasPrefix(brandImage, "data:") {
		return brandImage, nil
	}
	return p.imageHost.UploadDataURI(ctx, brandImage)
}

// buildCarousel assembles the ordered image list for the multi-image post:
// marketing image first, then up to three originals, brand closing image last.
func buildCarousel(marketingImageURL string, imageURLs []string, brandImageURL string) []string {
	images := make([]string, 0, maxOriginalImages+2)
	images = append(images, marketingImageURL)

	originals := imageURLs
	if len(originals) > maxOriginalImages {
		originals = originals[:maxOriginalImages]
	}
	images = append(images, originals...)

	if brandImageURL != "" {
		images = append(images, brandImageURL)
	}
	return images
}

// fail records the failure on the entry and returns the original error.
// Fields persisted by completed steps are left untouched, so the next attempt
// resumes instead of redoing work.
func (p *Policy) fail(ctx context.Context, post *entity.ScheduledPost, cause error) error {
	post.Status = entity.PostStatusError
	post.LastError = cause.Error()

	if err := p.svc.MarkFailed(ctx, post.ID, cause.Error()); err != nil {
		p.logger.Error("recording pipeline failure", "post_id", post.ID, "error", err)
	}
	return cause
}
