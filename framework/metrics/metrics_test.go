package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/metrics"
)

type Named interface{ Name() string }

type thing struct{ n int }

func (*thing) Name() string { return "thing" }

type user struct {
	named Named `inject:""`
}

func TestCollector_CountsBindingsAndInjections(t *testing.T) {
	c := metrics.NewCollector("test")

	things, err := container.NewResolver("things", container.WithObserver(c))
	require.NoError(t, err)
	things.MustBind(container.TypeOf[Named](), container.Describe(container.TypeOf[*thing]()), false)

	pool := container.NewPool(container.WithPoolObserver(c))
	pool.MustAdd(things)
	require.NoError(t, pool.Inject(&user{}))
	require.NoError(t, pool.Inject(&user{}))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Bindings.WithLabelValues("things")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Injections.WithLabelValues("things", "pool")))
}

func TestCollector_Middleware(t *testing.T) {
	c := metrics.NewCollector("test")
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "418")))
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.NewCollector("test")
	c.Bound("things", container.BindingKey{}, nil)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `test_resolver_bindings_total{namespace="things"} 1`)
}
