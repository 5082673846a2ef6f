package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureSatisfies(t *testing.T) {
	profile := Sig(DimTime, DimVertical)

	t.Run("identical signatures match", func(t *testing.T) {
		assert.True(t, profile.Satisfies(Sig(DimTime, DimVertical)))
	})

	t.Run("arity mismatch fails", func(t *testing.T) {
		assert.False(t, profile.Satisfies(Sig(DimTime)))
		assert.False(t, Sig(DimTime).Satisfies(profile))
	})

	t.Run("kind mismatch fails", func(t *testing.T) {
		assert.False(t, profile.Satisfies(Sig(DimTime, DimLatitude)))
	})

	t.Run("unconstrained independent length matches any", func(t *testing.T) {
		declared := SigN(2, DimTime, DimIndependent)
		assert.True(t, declared.Satisfies(Sig(DimTime, DimIndependent)))
	})

	t.Run("constrained independent length must be equal", func(t *testing.T) {
		declared := SigN(2, DimTime, DimIndependent)
		assert.True(t, declared.Satisfies(SigN(2, DimTime, DimIndependent)))
		assert.False(t, declared.Satisfies(SigN(3, DimTime, DimIndependent)))
	})

	t.Run("scalar matches only scalar", func(t *testing.T) {
		assert.True(t, Sig().Satisfies(Sig()))
		assert.False(t, Sig().Satisfies(Sig(DimTime)))
	})
}

func TestSignatureString(t *testing.T) {
	assert.Equal(t, "{}", Sig().String())
	assert.Equal(t, "{time,vertical}", Sig(DimTime, DimVertical).String())
	assert.Equal(t, "{time,vertical,independent(2)}",
		SigN(2, DimTime, DimVertical, DimIndependent).String())
}

func TestNewVariable(t *testing.T) {
	t.Run("allocates buffer sized to the dimension product", func(t *testing.T) {
		v, err := NewVariable("pressure", Double, []DimensionType{DimTime, DimVertical}, []int{2, 3})
		require.NoError(t, err)
		defer v.Release()

		assert.Equal(t, 6, v.NumElements())
		assert.Equal(t, Double, v.Type)
	})

	t.Run("scalar variable has one element", func(t *testing.T) {
		v, err := NewVariable("latitude", Double, nil, nil)
		require.NoError(t, err)
		defer v.Release()

		assert.Equal(t, 1, v.NumElements())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewVariable("", Double, nil, nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid lengths", func(t *testing.T) {
		_, err := NewVariable("x", Double, []DimensionType{DimTime}, []int{0})
		assert.Error(t, err)

		_, err = NewVariable("x", Double, []DimensionType{DimTime}, []int{1, 2})
		assert.Error(t, err)
	})
}

func TestVariableCopyIsIndependent(t *testing.T) {
	v, err := NewVariable("altitude", Double, []DimensionType{DimVertical}, []int{3})
	require.NoError(t, err)
	defer v.Release()
	v.Unit = "m"
	v.Data.(Float64s)[0] = 10

	c := v.Copy()
	defer c.Release()
	c.Data.(Float64s)[0] = 99

	assert.Equal(t, 10.0, v.Data.(Float64s)[0])
	assert.Equal(t, "m", c.Unit)
	assert.Equal(t, v.Lengths, c.Lengths)
}

func TestVariableReleaseIdempotent(t *testing.T) {
	before := LiveBuffers()
	v, err := NewVariable("x", Double, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, before+1, LiveBuffers())

	v.Release()
	v.Release()
	assert.Equal(t, before, LiveBuffers())
}

func TestVariableString(t *testing.T) {
	v, err := NewVariable("altitude", Double, []DimensionType{DimTime, DimVertical}, []int{2, 3})
	require.NoError(t, err)
	defer v.Release()
	v.Unit = "m"

	assert.Equal(t, "altitude {time,vertical} [m] (double)", v.String())
}

func TestVariableHasSignature(t *testing.T) {
	v, err := NewVariable("bounds", Double,
		[]DimensionType{DimTime, DimIndependent}, []int{2, 2})
	require.NoError(t, err)
	defer v.Release()

	assert.True(t, v.HasSignature(Sig(DimTime, DimIndependent)))
	assert.True(t, v.HasSignature(SigN(2, DimTime, DimIndependent)))
	assert.False(t, v.HasSignature(SigN(3, DimTime, DimIndependent)))
	assert.False(t, v.HasSignature(Sig(DimTime)))
}

func TestProductDimensionLengths(t *testing.T) {
	t.Run("first variable establishes shared lengths", func(t *testing.T) {
		p := NewProduct("s5p-l2-no2")
		defer p.Close()

		v, err := NewVariable("pressure", Double, []DimensionType{DimTime, DimVertical}, []int{2, 4})
		require.NoError(t, err)
		require.NoError(t, p.AddVariable(v))

		n, ok := p.DimensionLength(DimTime)
		require.True(t, ok)
		assert.Equal(t, 2, n)
		n, ok = p.DimensionLength(DimVertical)
		require.True(t, ok)
		assert.Equal(t, 4, n)
	})

	t.Run("conflicting length is rejected", func(t *testing.T) {
		p := NewProduct("s5p-l2-no2")
		defer p.Close()

		v, err := NewVariable("pressure", Double, []DimensionType{DimTime}, []int{2})
		require.NoError(t, err)
		require.NoError(t, p.AddVariable(v))

		bad, err := NewVariable("temperature", Double, []DimensionType{DimTime}, []int{3})
		require.NoError(t, err)
		defer bad.Release()
		assert.Error(t, p.AddVariable(bad))
	})

	t.Run("independent lengths are per-variable", func(t *testing.T) {
		p := NewProduct("s5p-l2-no2")
		defer p.Close()

		a, err := NewVariable("a", Double, []DimensionType{DimIndependent}, []int{2})
		require.NoError(t, err)
		require.NoError(t, p.AddVariable(a))

		b, err := NewVariable("b", Double, []DimensionType{DimIndependent}, []int{4})
		require.NoError(t, err)
		require.NoError(t, p.AddVariable(b))

		_, ok := p.DimensionLength(DimIndependent)
		assert.False(t, ok)
		assert.Error(t, p.SetDimensionLength(DimIndependent, 2))
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		p := NewProduct("s5p-l2-no2")
		defer p.Close()

		a, err := NewVariable("a", Double, nil, nil)
		require.NoError(t, err)
		require.NoError(t, p.AddVariable(a))

		dup, err := NewVariable("a", Double, nil, nil)
		require.NoError(t, err)
		defer dup.Release()
		assert.Error(t, p.AddVariable(dup))
	})
}

func TestProductRemoveVariable(t *testing.T) {
	p := NewProduct("src")
	defer p.Close()

	a, err := NewVariable("a", Double, nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.AddVariable(a))
	b, err := NewVariable("b", Double, nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.AddVariable(b))

	got := p.RemoveVariable("a")
	require.NotNil(t, got)
	defer got.Release()
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 1, p.Len())
	assert.Nil(t, p.RemoveVariable("a"))

	names := make([]string, 0)
	for _, v := range p.Variables() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"b"}, names)
}

func TestConvertDataType(t *testing.T) {
	t.Run("numeric widening", func(t *testing.T) {
		v, err := NewVariable("x", Int32, []DimensionType{DimTime}, []int{3})
		require.NoError(t, err)
		defer v.Release()
		v.Data.(Int32s)[0] = 7

		require.NoError(t, ConvertDataType(v, Double))
		assert.Equal(t, Double, v.Type)
		assert.Equal(t, 7.0, v.Data.(Float64s)[0])
	})

	t.Run("numeric narrowing truncates", func(t *testing.T) {
		v, err := NewVariable("x", Double, []DimensionType{DimTime}, []int{1})
		require.NoError(t, err)
		defer v.Release()
		v.Data.(Float64s)[0] = 3.9

		require.NoError(t, ConvertDataType(v, Int16))
		assert.Equal(t, int16(3), v.Data.(Int16s)[0])
	})

	t.Run("same type is a no-op", func(t *testing.T) {
		v, err := NewVariable("x", Double, nil, nil)
		require.NoError(t, err)
		defer v.Release()
		require.NoError(t, ConvertDataType(v, Double))
	})

	t.Run("string conversions fail", func(t *testing.T) {
		v, err := NewVariable("name", String, nil, nil)
		require.NoError(t, err)
		defer v.Release()

		err = ConvertDataType(v, Double)
		assert.ErrorIs(t, err, ErrInvalidType)
	})
}

func TestParseDataType(t *testing.T) {
	got, err := ParseDataType("double")
	require.NoError(t, err)
	assert.Equal(t, Double, got)

	_, err = ParseDataType("complex")
	assert.Error(t, err)
}

func TestParseDimensionType(t *testing.T) {
	got, err := ParseDimensionType("vertical")
	require.NoError(t, err)
	assert.Equal(t, DimVertical, got)

	_, err = ParseDimensionType("depth")
	assert.Error(t, err)
}
