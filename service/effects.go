package service

import (
	"errors"
	"fmt"
)

// EffectDefinition describes one named sound effect: how loud it plays, how
// it fades against the clip, and the recipe that synthesizes its source
// asset (a sine tone run through an ffmpeg filter chain).
type EffectDefinition struct {
	Id          string
	Name        string
	Description string
	Volume      float64 // gain applied on mixdown, 0.0-1.0
	FadeIn      float64 // seconds
	FadeOut     float64 // seconds
	Frequency   float64 // Hz of the base tone
	FilterChain string  // ffmpeg -af chain, empty for a plain tone
}

// Catalog is the immutable effect registry. It is built once at startup and
// handed to consumers; lookups never mutate it. List preserves construction
// order.
type Catalog struct {
	order []string
	byId  map[string]EffectDefinition
}

func NewCatalog(defs ...EffectDefinition) *Catalog {
	c := &Catalog{byId: make(map[string]EffectDefinition, len(defs))}
	for _, def := range defs {
		if _, dup := c.byId[def.Id]; dup {
			continue
		}
		c.order = append(c.order, def.Id)
		c.byId[def.Id] = def
	}
	return c
}

func DefaultCatalog() *Catalog {
	return NewCatalog(
		EffectDefinition{
			Id:          "dramatic",
			Name:        "Dramatic",
			Description: "Dramatic sting for intense moments",
			Volume:      0.7,
			FadeIn:      1.0,
			FadeOut:     2.0,
			Frequency:   200,
			FilterChain: "aecho=0.8:0.9:1000:0.3,areverse,aecho=0.8:0.9:1000:0.3,areverse",
		},
		EffectDefinition{
			Id:          "suspense",
			Name:        "Suspense",
			Description: "Tense pulse for suspenseful moments",
			Volume:      0.8,
			FadeIn:      0.5,
			FadeOut:     1.5,
			Frequency:   440,
			FilterChain: "tremolo=f=5:d=0.7",
		},
		EffectDefinition{
			Id:          "upbeat",
			Name:        "Upbeat",
			Description: "Energetic accent for lively moments",
			Volume:      0.9,
			FadeIn:      0.3,
			FadeOut:     1.0,
			Frequency:   880,
			FilterChain: "chorus=0.5:0.9:50:0.4:0.25:2",
		},
	)
}

func (c *Catalog) List() []EffectDefinition {
	defs := make([]EffectDefinition, 0, len(c.order))
	for _, id := range c.order {
		defs = append(defs, c.byId[id])
	}
	return defs
}

func (c *Catalog) Get(id string) (EffectDefinition, error) {
	def, ok := c.byId[id]
	if !ok {
		return EffectDefinition{}, errors.Join(ErrNotFound, fmt.Errorf("unknown sound effect %q", id))
	}
	return def, nil
}
