package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/AdanAlnoor/costportal/internal/httputil"
	"github.com/AdanAlnoor/costportal/internal/metrics"
)

// Metrics records Prometheus metrics for each request. The mux route
// template is used as the route label so path parameters do not explode
// cardinality.
func Metrics(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.IncInFlight()
			defer m.DecInFlight()

			sw := httputil.NewStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.RecordHTTPRequest(r.Method, route, strconv.Itoa(sw.Status()), time.Since(start))
		})
	}
}
