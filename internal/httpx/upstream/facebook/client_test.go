package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := New(
		WithBaseURL(srv.URL),
		WithAPIVersion("v23.0"),
	)
	return client, srv
}

func TestUploadPhotoStaged(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v23.0/page-1/photos", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "token-1", q.Get("access_token"))
		assert.Equal(t, "https://cdn.example.com/a.jpg", q.Get("url"))
		assert.Equal(t, "false", q.Get("published"))
		assert.Empty(t, q.Get("message"))

		json.NewEncoder(w).Encode(map[string]string{"id": "photo-1"})
	}))
	defer srv.Close()

	out, err := client.UploadPhoto(context.Background(), UploadPhotoInput{
		PageID:      "page-1",
		AccessToken: "token-1",
		ImageURL:    "https://cdn.example.com/a.jpg",
		Published:   false,
	})
	require.NoError(t, err)
	assert.Equal(t, "photo-1", out.ID)
}

func TestUploadPhotoPublishedWithMessage(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Empty(t, q.Get("published")) // omitted means published
		assert.Equal(t, "hello", q.Get("message"))

		json.NewEncoder(w).Encode(map[string]string{"id": "photo-1", "post_id": "page-1_post-9"})
	}))
	defer srv.Close()

	out, err := client.UploadPhoto(context.Background(), UploadPhotoInput{
		PageID:      "page-1",
		AccessToken: "token-1",
		ImageURL:    "https://cdn.example.com/a.jpg",
		Message:     "hello",
		Published:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1_post-9", out.PostID)
}

func TestPublishFeedAttachesMediaInOrder(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v23.0/page-1/feed", r.URL.Path)

		var attached []attachedMedia
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("attached_media")), &attached))
		require.Len(t, attached, 3)
		assert.Equal(t, "ph-1", attached[0].MediaFBID)
		assert.Equal(t, "ph-2", attached[1].MediaFBID)
		assert.Equal(t, "ph-3", attached[2].MediaFBID)

		json.NewEncoder(w).Encode(map[string]string{"id": "page-1_feed-5"})
	}))
	defer srv.Close()

	out, err := client.PublishFeed(context.Background(), PublishFeedInput{
		PageID:      "page-1",
		AccessToken: "token-1",
		Message:     "caption",
		PhotoIDs:    []string{"ph-1", "ph-2", "ph-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1_feed-5", out.ID)
}

func TestAPIErrorDecoded(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: APIError{
			Message: "Invalid OAuth access token",
			Type:    "OAuthException",
			Code:    190,
		}})
	}))
	defer srv.Close()

	_, err := client.UploadPhoto(context.Background(), UploadPhotoInput{
		PageID:      "page-1",
		AccessToken: "bad",
		ImageURL:    "https://cdn.example.com/a.jpg",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 190, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Invalid OAuth access token")
}

func TestPublishCarouselStagesThenPublishes(t *testing.T) {
	var photoCalls atomic.Int32

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v23.0/page-1/photos":
			n := photoCalls.Add(1)
			assert.Equal(t, "false", r.URL.Query().Get("published"))
			json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("ph-%d", n)})
		case "/v23.0/page-1/feed":
			var attached []attachedMedia
			require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("attached_media")), &attached))
			assert.Equal(t, []attachedMedia{{MediaFBID: "ph-1"}, {MediaFBID: "ph-2"}}, attached)
			assert.Equal(t, "caption", r.URL.Query().Get("message"))
			json.NewEncoder(w).Encode(map[string]string{"id": "feed-1"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	publisher := NewPublisher(client)
	out, err := publisher.PublishCarousel(context.Background(), PublishCarouselInput{
		PageID:      "page-1",
		AccessToken: "token-1",
		ImageURLs:   []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		Message:     "caption",
	})
	require.NoError(t, err)
	assert.Equal(t, "feed-1", out.PostID)
	assert.Equal(t, int32(2), photoCalls.Load())
}

func TestPublishCarouselSingleImageFallsBack(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v23.0/page-1/photos", r.URL.Path)
		// Single image goes out as a directly-published photo post
		assert.Empty(t, r.URL.Query().Get("published"))
		assert.Equal(t, "caption", r.URL.Query().Get("message"))
		json.NewEncoder(w).Encode(map[string]string{"id": "ph-1", "post_id": "page-1_post-1"})
	}))
	defer srv.Close()

	publisher := NewPublisher(client)
	out, err := publisher.PublishCarousel(context.Background(), PublishCarouselInput{
		PageID:      "page-1",
		AccessToken: "token-1",
		ImageURLs:   []string{"https://cdn.example.com/a.jpg"},
		Message:     "caption",
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1_post-1", out.PostID)
}

func TestPublishCarouselRejectsEmpty(t *testing.T) {
	publisher := NewPublisher(New())
	_, err := publisher.PublishCarousel(context.Background(), PublishCarouselInput{
		PageID:      "page-1",
		AccessToken: "token-1",
	})
	assert.Error(t, err)
}
