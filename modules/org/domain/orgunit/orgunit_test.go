package orgunit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayerBelow(t *testing.T) {
	next, ok := LayerExecutive.Below()
	require.True(t, ok)
	require.Equal(t, LayerRegional, next)

	_, ok = LayerIndividual.Below()
	require.False(t, ok)

	_, ok = Layer(9).Below()
	require.False(t, ok)
}

func TestLayerAtOrBelow(t *testing.T) {
	require.True(t, LayerIndividual.AtOrBelow(LayerBranch))
	require.True(t, LayerBranch.AtOrBelow(LayerBranch))
	require.False(t, LayerRegional.AtOrBelow(LayerBranch))
}

func TestParseLayer(t *testing.T) {
	for l, name := range layerNames {
		got, err := ParseLayer(" " + name + " ")
		require.NoError(t, err)
		require.Equal(t, l, got)
		require.Equal(t, name, l.String())
	}
	_, err := ParseLayer("teller")
	require.Error(t, err)
	require.Equal(t, "layer(7)", Layer(7).String())
}
