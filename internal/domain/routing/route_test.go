package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteString(t *testing.T) {
	assert.Equal(t, "GEO", RouteGEO.String())
}

func TestNewDecision(t *testing.T) {
	decision := NewDecision(RouteFAST, "gemini-2.5-flash-lite", "keyword: fast")

	assert.Equal(t, RouteFAST, decision.Route)
	assert.Equal(t, "gemini-2.5-flash-lite", decision.Model)
	assert.Equal(t, "keyword: fast", decision.Reason)
	assert.Empty(t, decision.Tools)
	assert.Nil(t, decision.GenerationConfig)
}

func TestDecisionWithLocation(t *testing.T) {
	loc := &LatLng{Latitude: -17.8292, Longitude: 31.0522}

	t.Run("maps tool with coordinates", func(t *testing.T) {
		d := Decision{Route: RouteGEO, Tools: []Capability{CapabilityGoogleMaps}}
		got := d.WithLocation(loc)

		require.NotNil(t, got.Retrieval)
		assert.Equal(t, *loc, got.Retrieval.LatLng)
		assert.Nil(t, d.Retrieval, "receiver must stay untouched")
	})

	t.Run("maps tool without coordinates", func(t *testing.T) {
		d := Decision{Route: RouteGEO, Tools: []Capability{CapabilityGoogleMaps}}
		got := d.WithLocation(nil)

		assert.Nil(t, got.Retrieval)
		assert.True(t, got.HasTool(CapabilityGoogleMaps))
	})

	t.Run("no maps tool ignores coordinates", func(t *testing.T) {
		d := Decision{Route: RouteFRESH, Tools: []Capability{CapabilityGoogleSearch}}
		assert.Nil(t, d.WithLocation(loc).Retrieval)
	})
}
