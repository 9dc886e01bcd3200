package story

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the per-backend circuit breakers.
type BreakerSettings struct {
	ConsecutiveFailures uint32        // trips the breaker
	OpenTimeout         time.Duration // time spent open before a trial request
}

// DefaultBreakerSettings returns the settings used by the CLI.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 3,
		OpenTimeout:         30 * time.Second,
	}
}

// Router dispatches requests to the backend registered for the model's
// catalog provider.
type Router struct {
	backends map[string]Generator
	breakers map[string]*gobreaker.CircuitBreaker
	settings BreakerSettings
	log      logrus.FieldLogger
}

// NewRouter creates an empty router
func NewRouter(settings BreakerSettings, log logrus.FieldLogger) *Router {
	return &Router{
		backends: make(map[string]Generator),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		settings: settings,
		log:      log,
	}
}

// Register installs the backend serving provider.
func (r *Router) Register(provider string, backend Generator) {
	r.backends[provider] = backend
	r.breakers[provider] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "story-" + provider,
		MaxRequests: 1,
		Timeout:     r.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.settings.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// Providers lists the registered provider names.
func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// Generate routes req to its backend. Unknown models, missing backends and
// open breakers fail without a network call.
func (r *Router) Generate(ctx context.Context, req Request) (string, error) {
	model, ok := Lookup(req.Model)
	if !ok {
		return "", newGenerationError("", req.Model, "", fmt.Errorf("%w: %s", ErrUnknownModel, req.Model))
	}

	backend, ok := r.backends[model.Provider]
	if !ok {
		return "", newGenerationError(model.Provider, model.ID,
			fmt.Sprintf("no API key configured for %s", model.Provider), nil)
	}

	result, err := r.breakers[model.Provider].Execute(func() (interface{}, error) {
		return backend.Generate(ctx, req)
	})
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		// breaker rejections and foreign backend errors
		return "", newGenerationError(model.Provider, model.ID, "", err)
	}

	return result.(string), nil
}
