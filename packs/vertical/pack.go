// Package vertical contributes the vertical-axis conversion rules: altitude,
// geopotential height, pressure, and altitude boundaries.
package vertical

import (
	"errors"

	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/options"
	"github.com/atmogrid/atmogrid/internal/registry"
)

var errProfileTooShort = errors.New("vertical profile needs at least 2 levels")

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

// Register registers the pack's conversion rules. Registration order is the
// search tie-break: the temperature-aware hypsometric conversions come
// before the constant model-atmosphere fallback.
func (p *Pack) Register(r *registry.Registry) {
	profile := model.Sig(model.DimTime, model.DimVertical)
	scalar := model.Sig()

	r.MustRegister((&registry.Rule{
		Name:        "altitude",
		Type:        model.Double,
		Unit:        "m",
		Sig:         profile,
		Description: "hypsometric equation assuming a standard surface pressure of 1013.25 hPa",
		Compute:     computeAltitudeFromPressure,
	}).
		WithSource("pressure", model.Double, "hPa", profile).
		WithSource("temperature", model.Double, "K", profile).
		WithSource("latitude", model.Double, "degree_north", scalar))

	r.MustRegister((&registry.Rule{
		Name:    "altitude",
		Type:    model.Double,
		Unit:    "m",
		Sig:     profile,
		Compute: computeAltitudeFromGPH,
	}).
		WithSource("gph", model.Double, "m", profile).
		WithSource("latitude", model.Double, "degree_north", scalar))

	r.MustRegister((&registry.Rule{
		Name:    "gph",
		Type:    model.Double,
		Unit:    "m",
		Sig:     profile,
		Compute: computeGPHFromAltitude,
	}).
		WithSource("altitude", model.Double, "m", profile).
		WithSource("latitude", model.Double, "degree_north", scalar))

	r.MustRegister((&registry.Rule{
		Name:        "gph",
		Type:        model.Double,
		Unit:        "m",
		Sig:         profile,
		Enabled:     func() bool { return !p.opts.Is("model_atmosphere", "disabled") },
		Description: "constant model atmosphere; disable with model_atmosphere=disabled",
		Compute:     computeGPHFromPressure,
	}).
		WithSource("pressure", model.Double, "hPa", profile))

	r.MustRegister((&registry.Rule{
		Name:        "pressure",
		Type:        model.Double,
		Unit:        "hPa",
		Sig:         profile,
		Description: "inverse hypsometric equation assuming a standard surface pressure of 1013.25 hPa",
		Compute:     computePressureFromAltitude,
	}).
		WithSource("altitude", model.Double, "m", profile).
		WithSource("temperature", model.Double, "K", profile).
		WithSource("latitude", model.Double, "degree_north", scalar))

	r.MustRegister((&registry.Rule{
		Name:    "altitude_bounds",
		Type:    model.Double,
		Unit:    "m",
		Sig:     model.SigN(2, model.DimTime, model.DimVertical, model.DimIndependent),
		Compute: computeAltitudeBounds,
	}).
		WithSource("altitude", model.Double, "m", profile))
}

// profileShape extracts the (time, vertical) extents from a
// {time,vertical,...} variable.
func profileShape(v *model.Variable) (numTime, numLevels int) {
	return v.Lengths[0], v.Lengths[1]
}

func computeAltitudeFromPressure(target *model.Variable, sources []*model.Variable) error {
	pressure := sources[0].Data.(model.Float64s)
	temperature := sources[1].Data.(model.Float64s)
	latitude := sources[2].Data.(model.Float64s)[0]
	out := target.Data.(model.Float64s)

	numTime, numLevels := profileShape(target)
	if numLevels < 2 {
		return errProfileTooShort
	}
	for t := 0; t < numTime; t++ {
		offset := t * numLevels
		altitudeFromPressureTemperature(pressure[offset:offset+numLevels],
			temperature[offset:offset+numLevels], latitude, out[offset:offset+numLevels])
	}
	return nil
}

func computeAltitudeFromGPH(target *model.Variable, sources []*model.Variable) error {
	gph := sources[0].Data.(model.Float64s)
	latitude := sources[1].Data.(model.Float64s)[0]
	out := target.Data.(model.Float64s)

	for i := range gph {
		out[i] = altitudeFromGPH(gph[i], latitude)
	}
	return nil
}

func computeGPHFromAltitude(target *model.Variable, sources []*model.Variable) error {
	altitude := sources[0].Data.(model.Float64s)
	latitude := sources[1].Data.(model.Float64s)[0]
	out := target.Data.(model.Float64s)

	for i := range altitude {
		out[i] = gphFromAltitude(altitude[i], latitude)
	}
	return nil
}

func computeGPHFromPressure(target *model.Variable, sources []*model.Variable) error {
	pressure := sources[0].Data.(model.Float64s)
	out := target.Data.(model.Float64s)

	for i := range pressure {
		out[i] = gphFromPressure(pressure[i])
	}
	return nil
}

func computePressureFromAltitude(target *model.Variable, sources []*model.Variable) error {
	altitude := sources[0].Data.(model.Float64s)
	temperature := sources[1].Data.(model.Float64s)
	latitude := sources[2].Data.(model.Float64s)[0]
	out := target.Data.(model.Float64s)

	numTime, numLevels := profileShape(target)
	if numLevels < 2 {
		return errProfileTooShort
	}
	for t := 0; t < numTime; t++ {
		offset := t * numLevels
		pressureFromAltitudeTemperature(altitude[offset:offset+numLevels],
			temperature[offset:offset+numLevels], latitude, out[offset:offset+numLevels])
	}
	return nil
}

func computeAltitudeBounds(target *model.Variable, sources []*model.Variable) error {
	altitude := sources[0].Data.(model.Float64s)
	out := target.Data.(model.Float64s)

	numTime, numLevels := profileShape(target)
	for t := 0; t < numTime; t++ {
		if err := altitudeBoundsFromAltitude(altitude[t*numLevels:(t+1)*numLevels],
			out[t*numLevels*2:(t+1)*numLevels*2]); err != nil {
			return err
		}
	}
	return nil
}
