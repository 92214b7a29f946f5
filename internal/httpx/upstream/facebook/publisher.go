package facebook

import (
	"context"
	"fmt"
)

// Publisher handles the publishing workflow for Facebook page content
type Publisher struct {
	client *Client
}

// NewPublisher creates a new Facebook publisher
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishCarouselInput represents input for publishing a multi-image post
type PublishCarouselInput struct {
	PageID      string
	AccessToken string
	ImageURLs   []string // carousel order is preserved
	Message     string
}

// PublishCarouselOutput represents output from publishing
type PublishCarouselOutput struct {
	PostID string
}

// PublishCarousel publishes a multi-image page post. Photos are staged
// unpublished first, then attached in order to a single feed post. With one
// image it falls back to a plain photo post, which renders better in feeds.
func (p *Publisher) PublishCarousel(ctx context.Context, in PublishCarouselInput) (*PublishCarouselOutput, error) {
	if len(in.ImageURLs) == 0 {
		return nil, fmt.Errorf("carousel requires at least one image")
	}

	if len(in.ImageURLs) == 1 {
		return p.publishSinglePhoto(ctx, in)
	}

	photoIDs := make([]string, len(in.ImageURLs))
	for i, imageURL := range in.ImageURLs {
		out, err := p.client.UploadPhoto(ctx, UploadPhotoInput{
			PageID:      in.PageID,
			AccessToken: in.AccessToken,
			ImageURL:    imageURL,
			Published:   false,
		})
		if err != nil {
			return nil, fmt.Errorf("staging carousel photo %d: %w", i, err)
		}
		photoIDs[i] = out.ID
	}

	feedOut, err := p.client.PublishFeed(ctx, PublishFeedInput{
		PageID:      in.PageID,
		AccessToken: in.AccessToken,
		Message:     in.Message,
		PhotoIDs:    photoIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("publishing feed post: %w", err)
	}

	return &PublishCarouselOutput{PostID: feedOut.ID}, nil
}

// publishSinglePhoto publishes one photo with the caption directly
func (p *Publisher) publishSinglePhoto(ctx context.Context, in PublishCarouselInput) (*PublishCarouselOutput, error) {
	out, err := p.client.UploadPhoto(ctx, UploadPhotoInput{
		PageID:      in.PageID,
		AccessToken: in.AccessToken,
		ImageURL:    in.ImageURLs[0],
		Message:     in.Message,
		Published:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("publishing photo: %w", err)
	}

	postID := out.PostID
	if postID == "" {
		postID = out.ID
	}
	return &PublishCarouselOutput{PostID: postID}, nil
}
