package messages_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/app/clock"
	"github.com/km-arc/go-resolver/app/greeting"
	"github.com/km-arc/go-resolver/app/messages"
	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/manifest"
)

var noon = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (messages.Composer, messages.History) {
	t.Helper()
	cat := catalog.New()
	greeting.Register(cat)
	clock.Register(cat, clock.Fixed(noon))
	messages.Register(cat)

	m := manifest.Manifest{Resolvers: []manifest.ResolverSpec{
		{Contracts: messages.Scope, Implementations: messages.ImplScope},
		{Contracts: greeting.Scope, Implementations: greeting.ImplScope},
		{Contracts: clock.Scope, Implementations: clock.ImplScope, Strict: true},
	}}
	pool := container.NewPool()
	_, err := m.Build(cat, pool)
	require.NoError(t, err)
	require.NoError(t, pool.ResolveAll())

	r, err := pool.Resolver(messages.Scope)
	require.NoError(t, err)
	composer, err := container.Get[messages.Composer](r, "")
	require.NoError(t, err)
	history, err := container.Get[messages.History](r, "")
	require.NoError(t, err)
	return composer, history
}

func TestCompose_Styles(t *testing.T) {
	composer, _ := setup(t)

	tests := []struct {
		style string
		want  string
	}{
		{messages.StyleFormal, "Good day, Ana."},
		{messages.StyleCasual, "Hey Ana!"},
		{messages.StylePlain, "Hello, Ana."},
	}
	for _, tt := range tests {
		t.Run("style="+tt.style, func(t *testing.T) {
			e, err := composer.Compose("Ana", tt.style)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Text)
			assert.True(t, e.At.Equal(noon))
			assert.NotEqual(t, uuid.Nil, e.ID)
		})
	}
}

func TestCompose_UnknownStyle(t *testing.T) {
	composer, history := setup(t)

	_, err := composer.Compose("Ana", "rude")
	assert.ErrorIs(t, err, messages.ErrUnknownStyle)
	assert.Empty(t, history.All())
}

func TestHistory_RecordsInOrder(t *testing.T) {
	composer, history := setup(t)

	first, _ := composer.Compose("Ana", messages.StyleFormal)
	second, _ := composer.Compose("Bo", messages.StyleCasual)

	assert.Equal(t, []messages.Entry{first, second}, history.All())

	got, err := history.Find(second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = history.Find(uuid.New())
	assert.ErrorIs(t, err, messages.ErrNotFound)
}

func TestHistory_ReplayThroughCycle(t *testing.T) {
	composer, history := setup(t)

	original, err := composer.Compose("Ana", messages.StyleCasual)
	require.NoError(t, err)

	copied, err := history.Replay(original.ID)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, copied.ID)
	assert.Equal(t, original.Text, copied.Text)
	assert.Len(t, history.All(), 2)

	_, err = history.Replay(uuid.New())
	assert.ErrorIs(t, err, messages.ErrNotFound)
}

func TestCompose_WithoutGreetersFails(t *testing.T) {
	cat := catalog.New()
	clock.Register(cat, nil)
	messages.Register(cat)

	m := manifest.Manifest{Resolvers: []manifest.ResolverSpec{
		{Contracts: messages.Scope, Implementations: messages.ImplScope},
		{Contracts: clock.Scope, Implementations: clock.ImplScope},
	}}
	pool := container.NewPool()
	_, err := m.Build(cat, pool)
	require.NoError(t, err)

	err = pool.ResolveAll()
	assert.ErrorIs(t, err, container.ErrMissingImplementation)
}
