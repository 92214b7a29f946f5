package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// languageNames maps profile language codes to the wording used in prompts
var languageNames = map[string]string{
	"es": "Spanish (Spain)",
	"en": "English (UK)",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"pl": "Polish",
	"ru": "Russian",
}

// Generator produces social media copy from listing pages using Gemini
type Generator struct {
	client *genai.Client
	model  string
}

// GeneratorOption configures the Generator
type GeneratorOption func(*Generator)

// WithModel overrides the default chat model
func WithModel(model string) GeneratorOption {
	return func(g *Generator) {
		g.model = model
	}
}

// NewGenerator creates a new Gemini-backed content generator
func NewGenerator(ctx context.Context, apiKey string, opts ...GeneratorOption) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing genai client: %w", err)
	}

	g := &Generator{
		client: client,
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// GeneratePost generates the long-form social caption for a listing page
func (g *Generator) GeneratePost(ctx context.Context, html, pageURL, language string) (string, error) {
	prompt := fmt.Sprintf(
		"The original URL for this content is: %s. Generate the social media post from the following HTML content. Ignore any additional content on the page and focus only on the first property listed.\n\nHTML CONTENT:\n%s",
		pageURL, html)

	text, err := g.generate(ctx, postInstruction(language), prompt, 1024)
	if err != nil {
		return "", fmt.Errorf("generating post: %w", err)
	}
	return text, nil
}

// GenerateShortSummary derives the 4-line overlay summary from a caption.
// The caption must be generated first; the summary is never built from raw HTML.
func (g *Generator) GenerateShortSummary(ctx context.Context, caption, language string) (string, error) {
	if caption == "" {
		return "", fmt.Errorf("caption cannot be empty")
	}

	prompt := "Here is the post to summarize:\n\n" + caption

	text, err := g.generate(ctx, summaryInstruction(language), prompt, 256)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) generate(ctx context.Context, system, prompt string, maxTokens int32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0.7)),
		MaxOutputTokens:   maxTokens,
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					out.WriteString(part.Text)
				}
			}
			if out.Len() > 0 {
				break
			}
		}
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return out.String(), nil
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English (UK)"
}

func postInstruction(language string) string {
	lang := languageName(language)
	return fmt.Sprintf(`Act as an expert Community Manager for real-estate Facebook Pages. Create a viral-style post that drives engagement (likes, comments, shares).
Write the post in %[1]s. Use plain text with line breaks (no markdown). Do not include these instructions in the output.

Structure and rules (emojis ONLY in the three basic lines below):

Headline (1 line): 🏡 {Property type} – 📍 {Location}. Capitalize the first word. If a part is missing, omit it (no placeholders).
Key facts (1 line, concise): 💶 {Price} | 📐 {Size} | 🛏 {Beds} | 🛁 {Baths}. Include only available items. Keep the input price format; if price is absent write "Price on request". Use m² or sq ft exactly as in the input.
Perks (1 line, concise): garden/terrace, pool, orientation, views, distance to beach, lift, parking, tourist license. List only what exists in the input, "·" separated, max 6 items.
Engagement (1 line, no emojis): one direct question to spark comments in %[1]s.
CTA (1 line, no emojis): invite to request info or book a viewing in %[1]s.
Link (mandatory, its own line): "Here you can find more information:" translated to %[1]s, then the original URL provided in the prompt.
Hashtags: only if none exist in the input; add 3-5 strong real-estate hashtags (brand/location/property type), CamelCase, no accents.

Friendly, dynamic tone. Short, easy-to-scan lines. No markdown, no extra blank lines. Everything in %[1]s.`, lang)
}

func summaryInstruction(language string) string {
	lang := languageName(language)
	return fmt.Sprintf(`Based on the provided real estate post, return EXACTLY 4 lines in %[1]s, separated only by <br>.

Rules:
- Each line starts with one of these emojis in this order: 1) 🏠 property type, 2) 📍 location, 3) 💶 price (in numbers), 4) ✨ feature (m², pool, garden, terrace, views, etc.).
- Capitalize the first word of each line. Maximum 4 words per line (the emoji does not count).
- Price format: European thousands separator with the euro symbol at the end (e.g. 299.000 €). If there is no price, omit the price line entirely.
- No quotes, extra text, HTML, or Markdown. Return ONLY the content with the <br> separators.
- Everything in %[1]s.`, lang)
}
