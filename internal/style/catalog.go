package style

import (
	"math/rand"
	"strings"

	"github.com/interiohub/interio/internal/config"
	"github.com/interiohub/interio/internal/style/domain"
)

// Catalog resolves style ids to directives. It is built once from config
// and never mutated.
type Catalog struct {
	basePrompt string
	order      []string
	styles     map[string]config.Style
	pick       func(n int) int
}

type CatalogOption func(*Catalog)

// WithPicker replaces the random variant picker.
func WithPicker(pick func(n int) int) CatalogOption {
	return func(c *Catalog) { c.pick = pick }
}

func NewCatalog(cfg config.Config, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		basePrompt: strings.TrimSpace(cfg.Generation.BasePrompt),
		styles:     make(map[string]config.Style, len(cfg.Styles)),
		pick:       rand.Intn,
	}
	for _, s := range cfg.Styles {
		id := normalizeID(s.ID)
		if id == "" {
			continue
		}
		if _, dup := c.styles[id]; !dup {
			c.order = append(c.order, id)
		}
		c.styles[id] = s
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Catalog) Has(styleID string) bool {
	_, ok := c.styles[normalizeID(styleID)]
	return ok
}

// Resolve builds a directive: base prompt, style prompt, then one variant
// from each non-empty pool.
func (c *Catalog) Resolve(styleID string) (domain.Directive, error) {
	id := normalizeID(styleID)
	if id == "" {
		return domain.Directive{}, domain.ErrInvalidStyle
	}
	s, ok := c.styles[id]
	if !ok {
		return domain.Directive{}, domain.ErrUnknownStyle
	}

	d := domain.Directive{
		StyleID:   id,
		Furniture: c.choose(s.Furniture),
		Walls:     c.choose(s.Walls),
		Lighting:  c.choose(s.Lighting),
		Camera:    c.choose(s.Camera),
	}

	parts := make([]string, 0, 6)
	if c.basePrompt != "" {
		parts = append(parts, c.basePrompt)
	}
	if p := strings.TrimSpace(s.Prompt); p != "" {
		parts = append(parts, p)
	} else {
		parts = append(parts, "Style: "+id)
	}
	var details []string
	for _, v := range []string{d.Furniture, d.Walls, d.Lighting, d.Camera} {
		if v != "" {
			details = append(details, v)
		}
	}
	if len(details) > 0 {
		parts = append(parts, "Details: "+strings.Join(details, ", ")+".")
	}
	d.Prompt = strings.Join(parts, " ")
	return d, nil
}

// Public lists styles in catalog order without prompts.
func (c *Catalog) Public() []domain.PublicStyle {
	out := make([]domain.PublicStyle, 0, len(c.order))
	for _, id := range c.order {
		s := c.styles[id]
		out = append(out, domain.PublicStyle{ID: id, Name: s.Name, Description: s.Description})
	}
	return out
}

func (c *Catalog) choose(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[c.pick(len(pool))]
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
