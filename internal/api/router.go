package api

import (
	"net/http"

	"github.com/AlexZinkM/confidential-pay/internal/handler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(intentHandler *handler.IntentHandler, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Prometheus
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Payment intent endpoints
	mux.HandleFunc("/intents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			intentHandler.Create(w, r)
			return
		}
		intentHandler.List(w, r)
	})
	mux.HandleFunc("/intents/batch", intentHandler.SubmitBatch)
	mux.HandleFunc("/intents/{id}", intentHandler.Get)
	mux.HandleFunc("/intents/{id}/submit", intentHandler.Submit)
	mux.HandleFunc("/intents/{id}/confirm", intentHandler.Confirm)
	mux.HandleFunc("/intents/{id}/finalize", intentHandler.Finalize)
	mux.HandleFunc("/intents/{id}/cancel", intentHandler.Cancel)
	mux.HandleFunc("/intents/{id}/amount", intentHandler.Reveal)
	mux.HandleFunc("/intents/{id}/checkout", intentHandler.Checkout)

	// MPC network
	mux.HandleFunc("/computations/callback", intentHandler.Callback)

	return mux
}
