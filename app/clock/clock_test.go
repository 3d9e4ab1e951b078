package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/app/clock"
	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/container"
)

func TestSystem_ZeroValueIsUTC(t *testing.T) {
	var c clock.System
	assert.Equal(t, "UTC", c.Zone())
	assert.Equal(t, time.UTC, c.Now().Location())
}

func TestSystem_Zone(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	c := clock.NewSystem(loc)
	assert.Equal(t, "CET", c.Zone())
	assert.Equal(t, loc, c.Now().Location())
}

func TestFixed(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	assert.True(t, clock.Fixed(at).Now().Equal(at))
}

func TestRegister_PrebuiltInstanceWins(t *testing.T) {
	fixed := clock.Fixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	cat := catalog.New()
	clock.Register(cat, fixed)

	r, err := container.Scan(cat, clock.Scope, clock.ImplScope,
		container.Strict(), container.Preinitialized(cat.Instances(clock.ImplScope)...))
	require.NoError(t, err)

	got, err := container.Get[clock.Clock](r, "")
	require.NoError(t, err)
	assert.Same(t, fixed, got)
}
