package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/registry"
)

var (
	profile = model.Sig(model.DimTime, model.DimVertical)
	series  = model.Sig(model.DimTime)
)

// addProfile adds a {time,vertical} double variable filled with the given
// values to the product.
func addProfile(t *testing.T, p *model.Product, name, unit string, numTime, numLevels int, values ...float64) {
	t.Helper()
	v, err := model.NewVariable(name, model.Double,
		[]model.DimensionType{model.DimTime, model.DimVertical}, []int{numTime, numLevels})
	require.NoError(t, err)
	v.Unit = unit
	copy(v.Data.(model.Float64s), values)
	require.NoError(t, p.AddVariable(v))
}

// fillConstant returns a compute function that ignores its sources and fills
// the target with a constant.
func fillConstant(c float64) registry.ComputeFunc {
	return func(target *model.Variable, sources []*model.Variable) error {
		out := target.Data.(model.Float64s)
		for i := range out {
			out[i] = c
		}
		return nil
	}
}

// copyFirstSource returns a compute function copying the first source's
// buffer into the target.
func copyFirstSource() registry.ComputeFunc {
	return func(target *model.Variable, sources []*model.Variable) error {
		copy(target.Data.(model.Float64s), sources[0].Data.(model.Float64s))
		return nil
	}
}

func TestDeriveDirectHit(t *testing.T) {
	t.Run("present variable is copied without consulting rules", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "altitude", "km", 1, 2, 1, 2.5)

		// A poisoned rule for the same name: executing it would fail the test.
		reg := registry.New()
		reg.MustRegister(&registry.Rule{
			Name: "altitude", Type: model.Double, Unit: "m", Sig: profile,
			Compute: func(target *model.Variable, sources []*model.Variable) error {
				t.Fatal("registry consulted despite direct product hit")
				return nil
			},
		})

		got, err := New(reg).Derive(context.Background(), p, "altitude", "m", profile)
		require.NoError(t, err)
		defer got.Release()

		assert.Equal(t, "m", got.Unit)
		assert.Equal(t, model.Float64s{1000, 2500}, got.Data.(model.Float64s))

		// The product's own variable keeps its unit and values.
		orig, ok := p.Variable("altitude")
		require.True(t, ok)
		assert.Equal(t, "km", orig.Unit)
		assert.Equal(t, model.Float64s{1, 2.5}, orig.Data.(model.Float64s))
	})

	t.Run("result is an independent copy", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "altitude", "m", 1, 2, 10, 20)

		got, err := New(registry.New()).Derive(context.Background(), p, "altitude", "", profile)
		require.NoError(t, err)
		defer got.Release()

		got.Data.(model.Float64s)[0] = -1
		orig, _ := p.Variable("altitude")
		assert.Equal(t, 10.0, orig.Data.(model.Float64s)[0])
	})

	t.Run("repeated derivation is idempotent", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "Pa", 1, 2, 101325, 50000)

		r := New(registry.New())
		first, err := r.Derive(context.Background(), p, "pressure", "hPa", profile)
		require.NoError(t, err)
		defer first.Release()
		second, err := r.Derive(context.Background(), p, "pressure", "hPa", profile)
		require.NoError(t, err)
		defer second.Release()

		assert.Equal(t, first.Data, second.Data)
		orig, _ := p.Variable("pressure")
		assert.Equal(t, "Pa", orig.Unit)
	})

	t.Run("signature mismatch is not a direct hit", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "altitude", "m", 1, 2, 10, 20)

		_, err := New(registry.New()).Derive(context.Background(), p, "altitude", "", series)
		assert.ErrorIs(t, err, ErrVariableNotFound)
	})
}

func TestDeriveInvalidRequest(t *testing.T) {
	p := model.NewProduct("src")
	defer p.Close()
	r := New(registry.New())

	_, err := r.Derive(context.Background(), p, "", "", model.Sig())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.Derive(context.Background(), p, "bounds", "",
		model.SigN(0, model.DimTime, model.DimIndependent))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeriveFirstMatchWins(t *testing.T) {
	p := model.NewProduct("src")
	defer p.Close()
	addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

	// Both candidates are viable; registration order decides.
	reg := registry.New()
	reg.MustRegister((&registry.Rule{
		Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(1),
	}).WithSource("pressure", model.Double, "hPa", profile))
	reg.MustRegister((&registry.Rule{
		Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(2),
	}).WithSource("pressure", model.Double, "hPa", profile))

	got, err := New(reg).Derive(context.Background(), p, "x", "", profile)
	require.NoError(t, err)
	defer got.Release()
	assert.Equal(t, model.Float64s{1, 1}, got.Data.(model.Float64s))
}

func TestDeriveBacktracking(t *testing.T) {
	t.Run("candidate with unreachable source is skipped", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(1),
		}).WithSource("no_such_variable", model.Double, "", profile))
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(2),
		}).WithSource("pressure", model.Double, "hPa", profile))

		got, err := New(reg).Derive(context.Background(), p, "x", "", profile)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, model.Float64s{2, 2}, got.Data.(model.Float64s))
	})

	t.Run("compute failure is fatal, later candidates are not tried", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		boom := errors.New("numerical breakdown")
		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile,
			Compute: func(target *model.Variable, sources []*model.Variable) error {
				return boom
			},
		}).WithSource("pressure", model.Double, "hPa", profile))
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(2),
		}).WithSource("pressure", model.Double, "hPa", profile))

		_, err := New(reg).Derive(context.Background(), p, "x", "", profile)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrVariableNotFound)
		assert.Contains(t, err.Error(), `conversion for "x" failed`)
	})
}

func TestDeriveCycles(t *testing.T) {
	t.Run("mutual recursion terminates with not found", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		require.NoError(t, p.SetDimensionLength(model.DimTime, 1))
		require.NoError(t, p.SetDimensionLength(model.DimVertical, 2))

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "a", Type: model.Double, Sig: profile, Compute: fillConstant(0),
		}).WithSource("b", model.Double, "", profile))
		reg.MustRegister((&registry.Rule{
			Name: "b", Type: model.Double, Sig: profile, Compute: fillConstant(0),
		}).WithSource("a", model.Double, "", profile))

		_, err := New(reg).Derive(context.Background(), p, "a", "", profile)
		assert.ErrorIs(t, err, ErrVariableNotFound)
	})

	t.Run("self recursion is blocked", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		require.NoError(t, p.SetDimensionLength(model.DimTime, 1))

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "a", Type: model.Double, Sig: series, Compute: fillConstant(0),
		}).WithSource("a", model.Double, "", series))

		_, err := New(reg).Derive(context.Background(), p, "a", "", series)
		assert.ErrorIs(t, err, ErrVariableNotFound)
	})

	t.Run("same name with different arity does not conflict", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "y", "", 1, 2, 3, 4)

		// Deriving x {time} needs x {time,vertical}, produced by a second
		// rule for the same name with a different dimension count.
		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Sig: series,
			Compute: func(target *model.Variable, sources []*model.Variable) error {
				src := sources[0].Data.(model.Float64s)
				out := target.Data.(model.Float64s)
				numLevels := sources[0].Lengths[1]
				for i := range out {
					out[i] = src[i*numLevels]
				}
				return nil
			},
		}).WithSource("x", model.Double, "", profile))
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Sig: profile, Compute: copyFirstSource(),
		}).WithSource("y", model.Double, "", profile))

		got, err := New(reg).Derive(context.Background(), p, "x", "", series)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, model.Float64s{3}, got.Data.(model.Float64s))
	})
}

func TestDeriveSkipsRules(t *testing.T) {
	t.Run("disabled rule", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Sig: profile,
			Enabled: func() bool { return false },
			Compute: fillConstant(1),
		}).WithSource("pressure", model.Double, "hPa", profile))
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Sig: profile, Compute: fillConstant(2),
		}).WithSource("pressure", model.Double, "hPa", profile))

		got, err := New(reg).Derive(context.Background(), p, "x", "", profile)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, 2.0, got.Data.(model.Float64s)[0])
	})

	t.Run("signature mismatch", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Sig: profile, Compute: fillConstant(1),
		}).WithSource("pressure", model.Double, "hPa", profile))

		_, err := New(reg).Derive(context.Background(), p, "x", "", series)
		assert.ErrorIs(t, err, ErrVariableNotFound)
	})
}

func TestDeriveSourceCoercion(t *testing.T) {
	t.Run("source unit converted on a copy, product untouched", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "altitude", "km", 1, 2, 1, 2)

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: copyFirstSource(),
		}).WithSource("altitude", model.Double, "m", profile))

		got, err := New(reg).Derive(context.Background(), p, "x", "", profile)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, model.Float64s{1000, 2000}, got.Data.(model.Float64s))

		orig, _ := p.Variable("altitude")
		assert.Equal(t, "km", orig.Unit)
		assert.Equal(t, model.Float64s{1, 2}, orig.Data.(model.Float64s))
	})

	t.Run("source type converted on a copy", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		v, err := model.NewVariable("count", model.Int32,
			[]model.DimensionType{model.DimTime}, []int{2})
		require.NoError(t, err)
		v.Data.(model.Int32s)[0] = 3
		v.Data.(model.Int32s)[1] = 4
		require.NoError(t, p.AddVariable(v))

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Sig: series, Compute: copyFirstSource(),
		}).WithSource("count", model.Double, "", series))

		got, err := New(reg).Derive(context.Background(), p, "x", "", series)
		require.NoError(t, err)
		defer got.Release()
		assert.Equal(t, model.Float64s{3, 4}, got.Data.(model.Float64s))

		orig, _ := p.Variable("count")
		assert.Equal(t, model.Int32, orig.Type)
	})
}

func TestDeriveFinalUnitConversion(t *testing.T) {
	p := model.NewProduct("src")
	defer p.Close()
	addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

	reg := registry.New()
	reg.MustRegister((&registry.Rule{
		Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(1500),
	}).WithSource("pressure", model.Double, "hPa", profile))

	got, err := New(reg).Derive(context.Background(), p, "x", "km", profile)
	require.NoError(t, err)
	defer got.Release()
	assert.Equal(t, "km", got.Unit)
	assert.Equal(t, 1.5, got.Data.(model.Float64s)[0])
}

func TestDeriveMissingDimensionLength(t *testing.T) {
	p := model.NewProduct("src")
	defer p.Close()
	require.NoError(t, p.SetDimensionLength(model.DimTime, 2))

	// The rule's output needs a vertical length the product never defines.
	reg := registry.New()
	reg.MustRegister(&registry.Rule{
		Name: "x", Type: model.Double, Sig: profile, Compute: fillConstant(0),
	})

	_, err := New(reg).Derive(context.Background(), p, "x", "", profile)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeriveReleasesTemporaries(t *testing.T) {
	setup := func(t *testing.T) (*model.Product, *registry.Registry) {
		p := model.NewProduct("src")
		addProfile(t, p, "pressure", "hPa", 2, 3, 1000, 700, 500, 1000, 700, 500)
		addProfile(t, p, "scale", "km", 2, 3, 1, 1, 1, 1, 1, 1)

		// Two-level chain with unit coercions on both levels, so the search
		// allocates intermediate and copied-source temporaries.
		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "mid", Type: model.Double, Unit: "m", Sig: profile, Compute: copyFirstSource(),
		}).WithSource("scale", model.Double, "m", profile))
		reg.MustRegister((&registry.Rule{
			Name: "top", Type: model.Double, Unit: "m", Sig: profile, Compute: copyFirstSource(),
		}).WithSource("mid", model.Double, "cm", profile).
			WithSource("pressure", model.Double, "Pa", profile))
		return p, reg
	}

	t.Run("success leaves exactly the result alive", func(t *testing.T) {
		p, reg := setup(t)
		defer p.Close()
		before := model.LiveBuffers()

		got, err := New(reg).Derive(context.Background(), p, "top", "km", profile)
		require.NoError(t, err)
		assert.Equal(t, before+1, model.LiveBuffers())

		got.Release()
		assert.Equal(t, before, model.LiveBuffers())
	})

	t.Run("failed search leaves nothing alive", func(t *testing.T) {
		p, reg := setup(t)
		defer p.Close()
		reg.MustRegister((&registry.Rule{
			Name: "broken", Type: model.Double, Sig: profile, Compute: fillConstant(0),
		}).WithSource("mid", model.Double, "m", profile).
			WithSource("no_such_variable", model.Double, "", profile))
		before := model.LiveBuffers()

		_, err := New(reg).Derive(context.Background(), p, "broken", "", profile)
		require.ErrorIs(t, err, ErrVariableNotFound)
		assert.Equal(t, before, model.LiveBuffers())
	})

	t.Run("compute failure leaves nothing alive", func(t *testing.T) {
		p, reg := setup(t)
		defer p.Close()
		reg.MustRegister((&registry.Rule{
			Name: "fatal", Type: model.Double, Sig: profile,
			Compute: func(target *model.Variable, sources []*model.Variable) error {
				return errors.New("boom")
			},
		}).WithSource("mid", model.Double, "m", profile))
		before := model.LiveBuffers()

		_, err := New(reg).Derive(context.Background(), p, "fatal", "", profile)
		require.Error(t, err)
		assert.Equal(t, before, model.LiveBuffers())
	})
}

func TestAddDerived(t *testing.T) {
	t.Run("adds the derived variable to the product", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(7),
		}).WithSource("pressure", model.Double, "hPa", profile))

		require.NoError(t, New(reg).AddDerived(context.Background(), p, "x", "m", profile))
		got, ok := p.Variable("x")
		require.True(t, ok)
		assert.Equal(t, 7.0, got.Data.(model.Float64s)[0])
	})

	t.Run("matching variable is unit-converted in place", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "altitude", "km", 1, 2, 1, 2)

		require.NoError(t, New(registry.New()).AddDerived(context.Background(), p, "altitude", "m", profile))
		got, _ := p.Variable("altitude")
		assert.Equal(t, "m", got.Unit)
		assert.Equal(t, model.Float64s{1000, 2000}, got.Data.(model.Float64s))
	})

	t.Run("variable with incompatible shape is replaced", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		// Same name, different shape.
		stale, err := model.NewVariable("x", model.Double,
			[]model.DimensionType{model.DimTime}, []int{1})
		require.NoError(t, err)
		require.NoError(t, p.AddVariable(stale))

		reg := registry.New()
		reg.MustRegister((&registry.Rule{
			Name: "x", Type: model.Double, Unit: "m", Sig: profile, Compute: fillConstant(7),
		}).WithSource("pressure", model.Double, "hPa", profile))

		before := model.LiveBuffers()
		require.NoError(t, New(reg).AddDerived(context.Background(), p, "x", "", profile))
		assert.Equal(t, before, model.LiveBuffers())

		got, ok := p.Variable("x")
		require.True(t, ok)
		assert.True(t, got.HasSignature(profile))
	})

	t.Run("underivable target fails and leaves the product unchanged", func(t *testing.T) {
		p := model.NewProduct("src")
		defer p.Close()
		addProfile(t, p, "pressure", "hPa", 1, 2, 1000, 500)

		err := New(registry.New()).AddDerived(context.Background(), p, "x", "", profile)
		assert.ErrorIs(t, err, ErrVariableNotFound)
		assert.Equal(t, 1, p.Len())
	})
}
