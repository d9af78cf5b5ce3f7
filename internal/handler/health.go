package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
	"github.com/boddenberg/card-compare-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/card-compare-bfa-go/internal/port"
)

// Health states reported by /healthz.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthProbe reports the state of one dependency.
type HealthProbe func(ctx context.Context) domain.ServiceHealth

// CatalogProbe is unhealthy when the card dataset is empty.
func CatalogProbe(catalog port.CardCatalog) HealthProbe {
	return func(context.Context) domain.ServiceHealth {
		n := catalog.Len()
		status := statusHealthy
		if n == 0 {
			status = statusUnhealthy
		}
		return domain.ServiceHealth{Name: "catalog", Status: status, Detail: fmt.Sprintf("%d cards", n)}
	}
}

// BreakerProbe is degraded while the guard's circuit breaker is open.
func BreakerProbe(name string, guard *resilience.Guard) HealthProbe {
	return func(context.Context) domain.ServiceHealth {
		status := statusHealthy
		if guard.Open() {
			status = statusDegraded
		}
		return domain.ServiceHealth{Name: name, Status: status, Detail: "circuit " + guard.State()}
	}
}

// PingProbe is degraded when ping fails. Used for optional dependencies.
func PingProbe(name string, ping func(ctx context.Context) error) HealthProbe {
	return func(ctx context.Context) domain.ServiceHealth {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			return domain.ServiceHealth{Name: name, Status: statusDegraded, Detail: err.Error()}
		}
		return domain.ServiceHealth{Name: name, Status: statusHealthy}
	}
}

func healthzHandler(probes []HealthProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: statusHealthy},
		}
		for _, probe := range probes {
			services = append(services, probe(r.Context()))
		}

		overallStatus := statusHealthy
		for i := range services {
			services[i].LastChecked = now
			if services[i].Status == statusUnhealthy {
				overallStatus = statusUnhealthy
			}
			if services[i].Status == statusDegraded && overallStatus == statusHealthy {
				overallStatus = statusDegraded
			}
		}

		code := http.StatusOK
		if overallStatus == statusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
