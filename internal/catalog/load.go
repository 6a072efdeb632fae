package catalog

import (
	"fmt"

	"github.com/spf13/viper"
)

// file mirrors the layout of the items file:
//
//	item_groups:
//	  diamond:
//	    all_variants: false
//	    items:
//	      - kind: diamond
//	      - kind: diamond_block
//	        relative_value: 9
type file struct {
	ItemGroups map[string]GroupSpec `mapstructure:"item_groups"`
}

// Load reads an items file and builds the catalog from it.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}

	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items file: %w", err)
	}

	specs := make([]GroupSpec, 0, len(f.ItemGroups))
	for name, g := range f.ItemGroups {
		g.Name = name
		specs = append(specs, g)
	}

	c, err := New(specs)
	if err != nil {
		return nil, fmt.Errorf("invalid items file %s: %w", path, err)
	}
	return c, nil
}
