package sync

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
)

type scoreProfile struct {
	Weights struct {
		Inventory float64 `toml:"inventory"`
		Diagram   float64 `toml:"diagram"`
		Safety    float64 `toml:"safety"`
		Common    float64 `toml:"common"`
	} `toml:"weights"`
}

// LoadWeights reads a completeness weight profile from a TOML file. An empty
// path means the built-in weights. A profile must cover all four categories
// and sum to 1.
func LoadWeights(profileFile string) (entity.Weights, error) {
	path := strings.TrimSpace(profileFile)
	if path == "" {
		return entity.DefaultWeights(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read score profile %q", path)
	}

	var profile scoreProfile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return nil, errs.Wrapf(err, "parse score profile %q", path)
	}

	weights := entity.Weights{
		entity.CategoryInventory: profile.Weights.Inventory,
		entity.CategoryDiagram:   profile.Weights.Diagram,
		entity.CategorySafety:    profile.Weights.Safety,
		entity.CategoryCommon:    profile.Weights.Common,
	}
	if err := weights.Validate(); err != nil {
		return nil, errs.Wrapf(err, "validate score profile %q", path)
	}
	return weights, nil
}
