package app

import (
	"github.com/atmogrid/atmogrid/internal/options"
	"github.com/atmogrid/atmogrid/internal/registry"
	"github.com/atmogrid/atmogrid/packs/column"
	"github.com/atmogrid/atmogrid/packs/vertical"
)

// corePacks is the definitive list of conversion packs that are compiled
// into the atmogrid binary.
func corePacks(opts options.Set) []registry.Pack {
	return []registry.Pack{
		vertical.New(opts),
		column.New(opts),
	}
}
