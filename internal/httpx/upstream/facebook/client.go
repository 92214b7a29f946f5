package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v23.0"
	defaultTimeout    = 30 * time.Second
)

// Client is a Facebook Graph API client for page publishing
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIVersion sets the API version
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Facebook Graph API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the Facebook Graph API
type APIError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("facebook API error: %s (code: %d, subcode: %d)", e.Message, e.Code, e.ErrorSubcode)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// UploadPhotoInput represents input for staging a photo on a page
type UploadPhotoInput struct {
	PageID      string
	AccessToken string
	ImageURL    string
	Message     string // only for directly-published single photos
	Published   bool   // false stages the photo for an attached_media feed post
}

// UploadPhotoOutput represents output from uploading a photo
type UploadPhotoOutput struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
}

// UploadPhoto posts a photo to a page. With Published=false the photo is only
// staged and its ID can be attached to a later feed post.
func (c *Client) UploadPhoto(ctx context.Context, in UploadPhotoInput) (*UploadPhotoOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/photos", c.baseURL, c.apiVersion, in.PageID)

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("url", in.ImageURL)
	if !in.Published {
		params.Set("published", "false")
	}
	if in.Message != "" {
		params.Set("message", in.Message)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out UploadPhotoOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// attachedMedia is the element shape the /feed endpoint expects
type attachedMedia struct {
	MediaFBID string `json:"media_fbid"`
}

// PublishFeedInput represents input for publishing a feed post
type PublishFeedInput struct {
	PageID      string
	AccessToken string
	Message     string
	PhotoIDs    []string // staged photo IDs, in carousel order
}

// PublishFeedOutput represents output from publishing a feed post
type PublishFeedOutput struct {
	ID string `json:"id"` // Facebook post ID
}

// PublishFeed publishes a feed post with the staged photos attached in order
func (c *Client) PublishFeed(ctx context.Context, in PublishFeedInput) (*PublishFeedOutput, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/feed", c.baseURL, c.apiVersion, in.PageID)

	attached := make([]attachedMedia, len(in.PhotoIDs))
	for i, id := range in.PhotoIDs {
		attached[i] = attachedMedia{MediaFBID: id}
	}
	attachedJSON, err := json.Marshal(attached)
	if err != nil {
		return nil, fmt.Errorf("encoding attached media: %w", err)
	}

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("message", in.Message)
	params.Set("attached_media", string(attachedJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out PublishFeedOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	// Check for error response
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		return &errResp.Error
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
