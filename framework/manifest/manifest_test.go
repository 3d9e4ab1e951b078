package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/manifest"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Pricer interface{ Price(sku string) int }

type Discounter interface {
	Pricer
	Discount() int
}

type Stock interface{ Count(sku string) int }

type Page interface{ Render() string }

type listPrice struct{ base int }

func (p *listPrice) Price(string) int { return p.base }

type sale struct{ off int }

func (*sale) Qualifier() string { return "sale" }
func (*sale) Price(string) int  { return 80 }
func (s *sale) Discount() int   { return s.off }

type warehouse struct {
	pricer Pricer `inject:""`
}

func (*warehouse) Count(string) int { return 3 }

type product struct {
	pricer Pricer `inject:""`
	stock  Stock  `inject:""`
}

func (p *product) Render() string {
	if p.pricer.Price("x") == 100 && p.stock.Count("x") == 3 {
		return "ok"
	}
	return "wrong"
}

func shop() *catalog.Catalog {
	c := catalog.New()
	catalog.Contract[Pricer](c, "shop.pricing")
	catalog.Contract[Discounter](c, "shop.pricing")
	catalog.Implementation[*listPrice](c, "shop.pricing.impl")
	catalog.Implementation[*sale](c, "shop.pricing.impl")
	c.Instance("shop.pricing.impl", &listPrice{base: 100})
	catalog.Contract[Stock](c, "shop.stock")
	catalog.Implementation[*warehouse](c, "shop.stock.impl")
	catalog.Consumer[*product](c, "shop.pages")
	catalog.Base[Page](c)
	return c
}

// ── Parse ─────────────────────────────────────────────────────────────────────

func TestLoad(t *testing.T) {
	m, err := manifest.Load("testdata/layout.yaml")
	require.NoError(t, err)

	require.Len(t, m.Resolvers, 2)
	assert.Equal(t, "shop.pricing", m.Resolvers[0].Contracts)
	assert.False(t, m.Resolvers[0].Strict)
	assert.True(t, m.Resolvers[1].Strict)
	assert.Equal(t, manifest.ConsumerSpec{Scope: "shop.pages", Base: "manifest_test.Page"}, m.Consumers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := manifest.Load("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	m, err := manifest.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Resolvers)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing implementations", "resolvers:\n  - contracts: a\n", "resolvers[0].implementations field is required"},
		{"consumer without base", "consumers:\n  scope: pages\n", "consumers.base field is required"},
		{"unknown key", "resolvers:\n  - contracts: a\n    implementations: b\n    lazy: true\n", "lazy"},
		{"not yaml", "resolvers: [", "manifest:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manifest.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// ── Merge ─────────────────────────────────────────────────────────────────────

func TestMerge(t *testing.T) {
	base := manifest.Manifest{
		Resolvers: []manifest.ResolverSpec{
			{Contracts: "a", Implementations: "a.impl"},
			{Contracts: "b", Implementations: "b.impl"},
		},
		Consumers: manifest.ConsumerSpec{Scope: "pages", Base: "Page"},
	}
	over := manifest.Manifest{
		Resolvers: []manifest.ResolverSpec{
			{Contracts: "a", Implementations: "a.impl", Strict: true},
			{Contracts: "c", Implementations: "c.impl"},
		},
	}

	got := base.Merge(over)

	assert.Equal(t, []manifest.ResolverSpec{
		{Contracts: "a", Implementations: "a.impl", Strict: true},
		{Contracts: "b", Implementations: "b.impl"},
		{Contracts: "c", Implementations: "c.impl"},
	}, got.Resolvers)
	assert.Equal(t, "pages", got.Consumers.Scope, "an empty consumer spec does not override")
	assert.False(t, base.Resolvers[0].Strict, "the receiver is not modified")

	got = got.Merge(manifest.Manifest{Consumers: manifest.ConsumerSpec{Scope: "admin", Base: "Page"}})
	assert.Equal(t, "admin", got.Consumers.Scope)
}

// ── Build / Bootstrap ─────────────────────────────────────────────────────────

func TestBuildAndBootstrap(t *testing.T) {
	m, err := manifest.Load("testdata/layout.yaml")
	require.NoError(t, err)
	c := shop()
	pool := container.NewPool()

	resolvers, err := m.Build(c, pool)
	require.NoError(t, err)
	require.Len(t, resolvers, 2)
	assert.Equal(t, []string{"shop.pricing", "shop.stock"}, pool.Namespaces())

	consumers, err := m.Bootstrap(c, pool)
	require.NoError(t, err)
	require.Len(t, consumers, 1)
	assert.Equal(t, "ok", consumers[0].(Page).Render())

	// the pre-built list price was used and the warehouse got it by fallback
	stock, _ := pool.Resolver("shop.stock")
	w, err := container.Get[Stock](stock, "")
	require.NoError(t, err)
	assert.Equal(t, 100, w.(*warehouse).pricer.Price("x"))
}

func TestBuild_Restrict(t *testing.T) {
	m := manifest.Manifest{Resolvers: []manifest.ResolverSpec{
		{Contracts: "shop.pricing", Implementations: "shop.pricing.impl", Restrict: "manifest_test.Discounter"},
	}}
	pool := container.NewPool()

	resolvers, err := m.Build(shop(), pool)
	require.NoError(t, err)
	assert.Equal(t, []container.BindingKey{
		container.Key(container.TypeOf[Discounter](), "sale"),
	}, resolvers[0].Bindings())
}

func TestBuild_UnknownRestrict(t *testing.T) {
	m := manifest.Manifest{Resolvers: []manifest.ResolverSpec{
		{Contracts: "shop.pricing", Implementations: "shop.pricing.impl", Restrict: "Nope"},
	}}
	_, err := m.Build(shop(), container.NewPool())
	assert.ErrorIs(t, err, catalog.ErrUnknownType)
}

func TestBuild_StrictAmbiguity(t *testing.T) {
	m := manifest.Manifest{Resolvers: []manifest.ResolverSpec{
		{Contracts: "shop.pricing", Implementations: "shop.pricing.impl", Strict: true},
	}}
	_, err := m.Build(shop(), container.NewPool())
	assert.ErrorIs(t, err, container.ErrAmbiguousImplementation)
}

func TestBootstrap_WithoutConsumers(t *testing.T) {
	m := manifest.Manifest{Resolvers: []manifest.ResolverSpec{
		{Contracts: "shop.stock", Implementations: "shop.stock.impl"},
	}}
	pool := container.NewPool()
	_, err := m.Build(shop(), pool)
	require.NoError(t, err)

	_, err = m.Bootstrap(shop(), pool)
	assert.ErrorIs(t, err, container.ErrMissingImplementation, "nothing supplies Pricer")
}

func TestBuild_NilArguments(t *testing.T) {
	_, err := manifest.Manifest{}.Build(nil, nil)
	assert.Error(t, err)
	_, err = manifest.Manifest{}.Bootstrap(nil, nil)
	assert.Error(t, err)
}
