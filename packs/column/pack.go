// Package column contributes total-column conversion rules: integrating a
// partial-column profile into a column, and propagating its uncertainty.
package column

import (
	"math"

	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/options"
	"github.com/atmogrid/atmogrid/internal/registry"
)

// Pack implements the registry.Pack interface for this package.
type Pack struct {
	opts options.Set
}

// New creates the pack with the given conversion options.
func New(opts options.Set) *Pack {
	if opts == nil {
		opts = options.New()
	}
	return &Pack{opts: opts}
}

// Register registers the pack's conversion rules. The two
// column_uncertainty rules are mutually exclusive via the uncertainty
// option: fully correlated errors sum linearly, uncorrelated errors sum
// quadratically (the default).
func (p *Pack) Register(r *registry.Registry) {
	profile := model.Sig(model.DimTime, model.DimVertical)
	series := model.Sig(model.DimTime)

	r.MustRegister((&registry.Rule{
		Name:    "column",
		Type:    model.Double,
		Unit:    "molec/m^2",
		Sig:     series,
		Compute: computeColumn,
	}).
		WithSource("partial_column", model.Double, "molec/m^2", profile))

	r.MustRegister((&registry.Rule{
		Name:        "column_uncertainty",
		Type:        model.Double,
		Unit:        "molec/m^2",
		Sig:         series,
		Enabled:     func() bool { return p.opts.Is("uncertainty", "correlated") },
		Description: "linear sum assuming fully correlated errors (uncertainty=correlated)",
		Compute:     computeColumnUncertaintyCorrelated,
	}).
		WithSource("partial_column_uncertainty", model.Double, "molec/m^2", profile))

	r.MustRegister((&registry.Rule{
		Name:        "column_uncertainty",
		Type:        model.Double,
		Unit:        "molec/m^2",
		Sig:         series,
		Enabled:     func() bool { return !p.opts.Is("uncertainty", "correlated") },
		Description: "root-sum-square assuming uncorrelated errors",
		Compute:     computeColumnUncertaintyUncorrelated,
	}).
		WithSource("partial_column_uncertainty", model.Double, "molec/m^2", profile))
}

// integrate sums a partial-column profile, ignoring NaN contributions. The
// result is NaN when every contribution is NaN.
func integrate(profile []float64, square bool) float64 {
	sum := 0.0
	empty := true
	for _, x := range profile {
		if math.IsNaN(x) {
			continue
		}
		if square {
			sum += x * x
		} else {
			sum += x
		}
		empty = false
	}
	if empty {
		return math.NaN()
	}
	if square {
		return math.Sqrt(sum)
	}
	return sum
}

func computeColumn(target *model.Variable, sources []*model.Variable) error {
	partial := sources[0].Data.(model.Float64s)
	out := target.Data.(model.Float64s)

	numLevels := sources[0].Lengths[1]
	for t := range out {
		out[t] = integrate(partial[t*numLevels:(t+1)*numLevels], false)
	}
	return nil
}

func computeColumnUncertaintyCorrelated(target *model.Variable, sources []*model.Variable) error {
	partial := sources[0].Data.(model.Float64s)
	out := target.Data.(model.Float64s)

	numLevels := sources[0].Lengths[1]
	for t := range out {
		out[t] = integrate(partial[t*numLevels:(t+1)*numLevels], false)
	}
	return nil
}

func computeColumnUncertaintyUncorrelated(target *model.Variable, sources []*model.Variable) error {
	partial := sources[0].Data.(model.Float64s)
	out := target.Data.(model.Float64s)

	numLevels := sources[0].Lengths[1]
	for t := range out {
		out[t] = integrate(partial[t*numLevels:(t+1)*numLevels], true)
	}
	return nil
}
