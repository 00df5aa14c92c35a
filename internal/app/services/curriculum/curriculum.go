// Package curriculum loads the six-week catalog and seeds it into the
// database.
package curriculum

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/dalemusser/pathway/internal/domain/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed curriculum.yaml
var builtin []byte

// Catalog is a parsed curriculum.
type Catalog struct {
	Weeks       []models.Week
	Assignments []models.Assignment
}

type fileWeek struct {
	models.Week `yaml:",inline"`
	Assignments []models.Assignment `yaml:"assignments"`
}

type file struct {
	Weeks []fileWeek `yaml:"weeks"`
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (Catalog, error) {
	return Parse(builtin)
}

// Load reads a catalog from path, or the built-in catalog when path is
// empty.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errors.Wrapf(err, "reading curriculum %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML and checks that it describes weeks 1 through 6, each
// with at least one uniquely named assignment of a known type.
// Assignments get their week number and order from their position.
func Parse(data []byte) (Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalog{}, errors.Wrap(err, "decoding curriculum")
	}
	if len(f.Weeks) != models.FinalWeek {
		return Catalog{}, fmt.Errorf("curriculum has %d weeks, want %d", len(f.Weeks), models.FinalWeek)
	}

	var c Catalog
	seen := map[string]bool{}
	for i, w := range f.Weeks {
		if w.WeekNumber != i+1 {
			return Catalog{}, fmt.Errorf("week %d listed at position %d", w.WeekNumber, i+1)
		}
		if w.Title == "" {
			return Catalog{}, fmt.Errorf("week %d has no title", w.WeekNumber)
		}
		if len(w.Assignments) == 0 {
			return Catalog{}, fmt.Errorf("week %d has no assignments", w.WeekNumber)
		}
		c.Weeks = append(c.Weeks, w.Week)
		for order, a := range w.Assignments {
			switch {
			case a.ID == "":
				return Catalog{}, fmt.Errorf("week %d assignment %d has no id", w.WeekNumber, order+1)
			case seen[a.ID]:
				return Catalog{}, fmt.Errorf("duplicate assignment id %q", a.ID)
			case !a.Type.Valid():
				return Catalog{}, fmt.Errorf("assignment %q has unknown type %q", a.ID, a.Type)
			}
			seen[a.ID] = true
			a.WeekNumber = w.WeekNumber
			a.OrderIndex = order
			c.Assignments = append(c.Assignments, a)
		}
	}
	return c, nil
}

// Store receives the seeded catalog.
type Store interface {
	UpsertWeek(ctx context.Context, w models.Week) error
	UpsertAssignment(ctx context.Context, a models.Assignment) error
}

// Seed upserts every week and assignment of c. Running it again with the
// same catalog changes nothing.
func Seed(ctx context.Context, store Store, c Catalog, logger *zap.Logger) error {
	for _, w := range c.Weeks {
		if err := store.UpsertWeek(ctx, w); err != nil {
			return errors.Wrapf(err, "seeding week %d", w.WeekNumber)
		}
	}
	for _, a := range c.Assignments {
		if err := store.UpsertAssignment(ctx, a); err != nil {
			return errors.Wrapf(err, "seeding assignment %s", a.ID)
		}
	}
	logger.Info("curriculum seeded",
		zap.Int("weeks", len(c.Weeks)),
		zap.Int("assignments", len(c.Assignments)))
	return nil
}
