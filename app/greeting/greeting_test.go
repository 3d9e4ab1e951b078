package greeting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/app/greeting"
	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/container"
)

func TestGreeters(t *testing.T) {
	assert.Equal(t, "Good day, Ana.", (&greeting.Formal{}).Greet("Ana"))
	assert.Equal(t, "Hey Ana!", (&greeting.Casual{}).Greet("Ana"))
	assert.Equal(t, "Hello, Ana.", (&greeting.Plain{}).Greet("Ana"))
}

func TestRegister_BindsEveryQualifier(t *testing.T) {
	cat := catalog.New()
	greeting.Register(cat)

	r, err := container.Scan(cat, greeting.Scope, greeting.ImplScope)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	tests := map[string]string{
		"formal": "Good day, Bo.",
		"casual": "Hey Bo!",
		"":       "Hello, Bo.",
	}
	for qualifier, want := range tests {
		g, err := container.Get[greeting.Greeter](r, qualifier)
		require.NoError(t, err, qualifier)
		assert.Equal(t, want, g.Greet("Bo"))
	}
}

func TestRegister_StrictIsAmbiguous(t *testing.T) {
	cat := catalog.New()
	greeting.Register(cat)

	_, err := container.Scan(cat, greeting.Scope, greeting.ImplScope, container.Strict())
	assert.ErrorIs(t, err, container.ErrAmbiguousImplementation)
}
