package app

// OpenAPISpec is the OpenAPI document served by the docs endpoint
var OpenAPISpec = []byte(`openapi: 3.0.3
info:
  title: Villapost API
  description: Scheduled publishing queue for real-estate listings.
  version: 1.0.0

servers:
  - url: /api/v1

paths:
  /scheduled-posts:
    post:
      summary: Queue listing URLs for publishing
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [account_id, urls]
              properties:
                account_id:
                  type: string
                urls:
                  type: array
                  items:
                    type: string
                    format: uri
      responses:
        "201":
          description: URLs queued
          content:
            application/json:
              schema:
                type: object
                properties:
                  start_position:
                    type: integer
                  queued:
                    type: integer
        "400":
          description: Validation error
    get:
      summary: List an account's queue with status counts
      parameters:
        - name: account_id
          in: query
          required: true
          schema:
            type: string
      responses:
        "200":
          description: Queue listing ordered by position
          content:
            application/json:
              schema:
                type: object
                properties:
                  posts:
                    type: array
                    items:
                      $ref: "#/components/schemas/ScheduledPost"
                  stats:
                    $ref: "#/components/schemas/QueueStats"

  /scheduled-posts/{id}:
    delete:
      summary: Remove one queued post
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
        - name: account_id
          in: query
          required: true
          schema:
            type: string
      responses:
        "204":
          description: Deleted
        "404":
          description: Post not found for this account

  /scheduled-posts/published:
    delete:
      summary: Remove all published posts for an account
      parameters:
        - name: account_id
          in: query
          required: true
          schema:
            type: string
      responses:
        "200":
          description: Count of removed posts
          content:
            application/json:
              schema:
                type: object
                properties:
                  deleted:
                    type: integer

  /process:
    post:
      summary: Run one publishing sweep over all eligible accounts
      description: >
        Intended for an external cron. For every auto-publish account whose
        local publish time has passed, the next due post is taken through the
        content pipeline and published.
      parameters:
        - name: X-Cron-Secret
          in: header
          required: true
          schema:
            type: string
      responses:
        "200":
          description: Sweep results per account
          content:
            application/json:
              schema:
                type: object
                properties:
                  processed:
                    type: integer
                  results:
                    type: array
                    items:
                      $ref: "#/components/schemas/AccountResult"
        "401":
          description: Invalid or missing cron secret

components:
  schemas:
    ScheduledPost:
      type: object
      properties:
        id:
          type: string
        account_id:
          type: string
        url:
          type: string
        position:
          type: integer
        scheduled_time:
          type: string
          example: "14:00"
        status:
          type: string
          enum: [pending, published, error]
        image_urls:
          type: array
          items:
            type: string
        caption:
          type: string
        short_summary:
          type: string
        marketing_image_url:
          type: string
        published_at:
          type: string
          format: date-time
        last_attempt_at:
          type: string
          format: date-time
        last_error:
          type: string
        created_at:
          type: string
          format: date-time
        updated_at:
          type: string
          format: date-time
    QueueStats:
      type: object
      properties:
        pending:
          type: integer
        published:
          type: integer
        error:
          type: integer
        total:
          type: integer
    AccountResult:
      type: object
      properties:
        account_id:
          type: string
        post_id:
          type: string
        position:
          type: integer
        url:
          type: string
        success:
          type: boolean
        skipped:
          type: boolean
        error:
          type: string
`)
