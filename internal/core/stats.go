package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/euicc/internal/store"
)

// Stats counts profiles by status and certificates. The four counts run
// concurrently against the store and are not taken from one snapshot.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	count := func(c store.Collection, filter store.Filter, dst *int64) func() error {
		return func() error {
			n, err := c.Count(gctx, filter)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		}
	}

	g.Go(count(s.store.Profiles(), nil, &stats.TotalProfiles))
	g.Go(count(s.store.Profiles(), store.Filter{"status": StatusEnabled}, &stats.EnabledProfiles))
	g.Go(count(s.store.Profiles(), store.Filter{"status": StatusDisabled}, &stats.DisabledProfiles))
	g.Go(count(s.store.Certificates(), nil, &stats.TotalCertificates))

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	return &stats, nil
}
