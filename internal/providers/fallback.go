package providers

import (
	"context"
	"log"

	"github.com/cockroachdb/errors"

	"github.com/petrolscout/stations-api/internal"
	"github.com/petrolscout/stations-api/internal/models"
)

// Fallback tries each provider in order and returns the first successful
// station list. Failures are logged and skipped; the last error is surfaced
// only when every provider fails.
type Fallback struct {
	providers []internal.StationProvider
}

func NewFallback(providers ...internal.StationProvider) *Fallback {
	return &Fallback{providers: providers}
}

func (f *Fallback) Name() string {
	return "fallback"
}

func (f *Fallback) Stations(ctx context.Context) ([]models.StationRecord, error) {
	if len(f.providers) == 0 {
		return nil, errors.New("no station providers configured")
	}

	var lastErr error
	for _, provider := range f.providers {
		stations, err := provider.Stations(ctx)
		if err != nil {
			log.Printf("provider %s failed, trying next: %v", provider.Name(), err)
			lastErr = err
			continue
		}
		return stations, nil
	}

	return nil, lastErr
}
