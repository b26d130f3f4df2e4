package internal

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

const CRON_SCHEDULE_REFRESH = "5 * * * *"  // Hourly, 5 past
const CRON_SCHEDULE_SWEEP = "*/10 * * * *" // Every 10 minutes

func StartCron(catalogue *StationCatalogue) (*cron.Cron, error) {

	c := cron.New()

	log.Print("Starting CRON jobs to refresh the station catalogue and sweep the cache")

	if _, err := c.AddFunc(CRON_SCHEDULE_REFRESH, func() {
		count, err := catalogue.Refresh(context.Background())
		if err != nil {
			log.Printf("Error refreshing station catalogue: %v\n", err)
			return
		}
		log.Printf("Refreshed %d stations", count)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(CRON_SCHEDULE_SWEEP, func() {
		removed, err := catalogue.SweepCache(context.Background())
		if err != nil {
			log.Printf("Error sweeping cache: %v\n", err)
			return
		}
		if removed > 0 {
			log.Printf("Swept %d expired cache entries", removed)
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
