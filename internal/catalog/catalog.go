package catalog

import (
	"context"
	"fmt"

	"medai-backend/internal/database"

	"gorm.io/gorm"
)

type Descriptor struct {
	Id          string
	Name        string
	Description string
	Accuracy    string
}

// Catalog is the read-only list of models a user can pick from. It is built
// once at start and never mutated afterwards.
type Catalog struct {
	models []Descriptor
	index  map[string]int
}

func New(models []Descriptor) *Catalog {
	c := &Catalog{
		models: make([]Descriptor, len(models)),
		index:  make(map[string]int, len(models)),
	}
	copy(c.models, models)
	for i, m := range c.models {
		c.index[m.Id] = i
	}
	return c
}

func Load(ctx context.Context, db *gorm.DB) (*Catalog, error) {
	records, err := database.ListModels(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("error loading model catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("model catalog is empty")
	}

	models := make([]Descriptor, 0, len(records))
	for _, r := range records {
		models = append(models, Descriptor{
			Id:          r.Id,
			Name:        r.Name,
			Description: r.Description,
			Accuracy:    r.AccuracyLabel,
		})
	}
	return New(models), nil
}

// List returns a copy, callers may not alter the catalog through it.
func (c *Catalog) List() []Descriptor {
	out := make([]Descriptor, len(c.models))
	copy(out, c.models)
	return out
}

func (c *Catalog) Get(id string) (Descriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return Descriptor{}, false
	}
	return c.models[i], true
}

func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}
