package catalog

import (
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/wolfman30/careflow/internal/validate"
)

// Service is a care offering shown on the public site.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"priceCents"`
	Active      bool      `json:"active"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s Service) GetID() string   { return s.ID }
func (s Service) GetVersion() int { return s.Version }

// Input is the create and replace body.
type Input struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Active      *bool  `json:"active"`
	Version     int    `json:"version"`
}

// Normalize derives a missing slug from the name and validates the input.
func (in *Input) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validate.Required("name", in.Name); err != nil {
		return err
	}
	if in.Slug == "" {
		in.Slug = slug.Make(in.Name)
	}
	if !slug.IsSlug(in.Slug) {
		return validate.Field("slug", "must contain only lowercase letters, digits and dashes")
	}
	if in.PriceCents < 0 {
		return validate.Field("priceCents", "must not be negative")
	}
	return nil
}

func (in Input) active() bool {
	return in.Active == nil || *in.Active
}
