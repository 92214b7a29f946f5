package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/villapost/internal/domain/queue/entity"
)

const postColumns = `
	id, account_id, url, position, scheduled_time_snapshot, status,
	image_urls, caption, short_summary, marketing_image_url,
	published_at, last_attempt_at, last_error, created_at, updated_at
`

// PostPostgres implements ScheduledPostRepository for PostgreSQL
type PostPostgres struct {
	pool *pgxpool.Pool
}

// NewPostPostgres creates a new PostgreSQL scheduled post repository
func NewPostPostgres(pool *pgxpool.Pool) *PostPostgres {
	return &PostPostgres{pool: pool}
}

// CreateBatch inserts all posts in one transaction
func (r *PostPostgres) CreateBatch(ctx context.Context, posts []*entity.ScheduledPost) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO scheduled_posts (id, account_id, url, position, scheduled_time_snapshot, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, p := range posts {
		_, err := tx.Exec(ctx, query,
			p.ID,
			p.AccountID,
			p.URL,
			p.Position,
			p.ScheduledTimeSnapshot,
			p.Status,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting scheduled post at position %d: %w", p.Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	return nil
}

// MaxPosition returns the highest position for an account, 0 when the queue is empty
func (r *PostPostgres) MaxPosition(ctx context.Context, accountID string) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM scheduled_posts WHERE account_id = $1`,
		accountID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("querying max position: %w", err)
	}
	return max, nil
}

// GetByID retrieves a post by ID
func (r *PostPostgres) GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM scheduled_posts WHERE id = $1`, id)

	post, err := scanPost(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled post: %w", err)
	}
	return post, nil
}

// NextDue returns the FIFO pick: the pending post with the smallest position
// whose published_at is unset or before the owner's current day.
func (r *PostPostgres) NextDue(ctx context.Context, accountID string, dayStart time.Time) (*entity.ScheduledPost, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM scheduled_posts
		WHERE account_id = $1
		  AND status = 'pending'
		  AND (published_at IS NULL OR published_at < $2)
		ORDER BY position ASC
		LIMIT 1
	`, accountID, dayStart)

	post, err := scanPost(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning next due post: %w", err)
	}
	return post, nil
}

// ListByAccount retrieves all posts ordered by position ascending
func (r *PostPostgres) ListByAccount(ctx context.Context, accountID string) ([]entity.ScheduledPost, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+postColumns+` FROM scheduled_posts WHERE account_id = $1 ORDER BY position ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled posts: %w", err)
	}
	defer rows.Close()

	var posts []entity.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

// CountByStatus returns the aggregate queue counts for an account
func (r *PostPostgres) CountByStatus(ctx context.Context, accountID string) (*entity.QueueStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM scheduled_posts WHERE account_id = $1 GROUP BY status`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("counting scheduled posts: %w", err)
	}
	defer rows.Close()

	var stats entity.QueueStats
	for rows.Next() {
		var status entity.PostStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}

		switch status {
		case entity.PostStatusPending:
			stats.Pending = count
		case entity.PostStatusPublished:
			stats.Published = count
		case entity.PostStatusError:
			stats.Error = count
		}
		stats.Total += count
	}

	return &stats, rows.Err()
}

// Delete removes one post if it belongs to the account
func (r *PostPostgres) Delete(ctx context.Context, accountID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM scheduled_posts WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("deleting scheduled post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}
	return nil
}

// DeletePublished bulk-removes an account's published posts
func (r *PostPostgres) DeletePublished(ctx context.Context, accountID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM scheduled_posts WHERE account_id = $1 AND status = 'published'`, accountID)
	if err != nil {
		return 0, fmt.Errorf("deleting published posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RequeueErrors flips error posts back to pending so the next sweep retries them
func (r *PostPostgres) RequeueErrors(ctx context.Context, accountID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_posts
		SET status = 'pending', updated_at = $2
		WHERE account_id = $1 AND status = 'error'
	`, accountID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("requeueing error posts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkAttempt stamps the start of a processing attempt
func (r *PostPostgres) MarkAttempt(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_posts SET last_attempt_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("marking attempt: %w", err)
	}
	return nil
}

// SaveImages persists extracted image URLs
func (r *PostPostgres) SaveImages(ctx context.Context, id string, urls []string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_posts SET image_urls = $2, updated_at = $3 WHERE id = $1`,
		id, urls, time.Now())
	if err != nil {
		return fmt.Errorf("saving image urls: %w", err)
	}
	return nil
}

// SaveContent persists the generated caption and summary
func (r *PostPostgres) SaveContent(ctx context.Context, id string, caption, summary string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_posts SET caption = $2, short_summary = $3, updated_at = $4 WHERE id = $1`,
		id, caption, summary, time.Now())
	if err != nil {
		return fmt.Errorf("saving generated content: %w", err)
	}
	return nil
}

// SaveMarketingImage persists the rendered composite URL
func (r *PostPostgres) SaveMarketingImage(ctx context.Context, id string, url string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE scheduled_posts SET marketing_image_url = $2, updated_at = $3 WHERE id = $1`,
		id, url, time.Now())
	if err != nil {
		return fmt.Errorf("saving marketing image url: %w", err)
	}
	return nil
}

// MarkPublished sets the terminal published state and clears the last error
func (r *PostPostgres) MarkPublished(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE scheduled_posts
		SET status = 'published', published_at = $2, last_error = NULL, updated_at = $3
		WHERE id = $1
	`, id, at, time.Now())
	if err != nil {
		return fmt.Errorf("marking published: %w", err)
	}
	return nil
}

// MarkError records a failed attempt; pipeline fields already saved are untouched
func (r *PostPostgres) MarkError(ctx context.Context, id string, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE scheduled_posts
		SET status = 'error', last_error = $2, updated_at = $3
		WHERE id = $1
	`, id, message, time.Now())
	if err != nil {
		return fmt.Errorf("marking error: %w", err)
	}
	return nil
}

// scanPost scans one row into a ScheduledPost, normalizing nullable columns
func scanPost(row pgx.Row) (*entity.ScheduledPost, error) {
	var post entity.ScheduledPost
	var caption, summary, marketingURL, lastError *string
	var publishedAt, lastAttemptAt *time.Time

	err := row.Scan(
		&post.ID,
		&post.AccountID,
		&post.URL,
		&post.Position,
		&post.ScheduledTimeSnapshot,
		&post.Status,
		&post.ImageURLs,
		&caption,
		&summary,
		&marketingURL,
		&publishedAt,
		&lastAttemptAt,
		&lastError,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if caption != nil {
		post.Caption = *caption
	}
	if summary != nil {
		post.ShortSummary = *summary
	}
	if marketingURL != nil {
		post.MarketingImageURL = *marketingURL
	}
	if lastError != nil {
		post.LastError = *lastError
	}
	post.PublishedAt = publishedAt
	post.LastAttemptAt = lastAttemptAt

	return &post, nil
}
