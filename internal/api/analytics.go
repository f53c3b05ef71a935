package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/faceofmind/admin-sync/internal/model"
)

// GetAnalytics returns the snapshot for one period.
func (c *Client) GetAnalytics(ctx context.Context, period model.Period) (*model.AnalyticsSnapshot, error) {
	query := url.Values{}
	query.Set("period", string(period))

	var snap model.AnalyticsSnapshot
	if err := c.get(ctx, "/analytics", query, &snap); err != nil {
		return nil, fmt.Errorf("get analytics %s: %w", period, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("get analytics %s: %w", period, err)
	}
	if snap.Period == "" {
		snap.Period = period
	}

	return &snap, nil
}

// GetAllAnalytics returns every period in one call. Entries with an unknown
// period name or ragged series are skipped.
func (c *Client) GetAllAnalytics(ctx context.Context) (map[model.Period]model.AnalyticsSnapshot, error) {
	var resp AllAnalyticsResponse
	if err := c.get(ctx, "/analytics/all", nil, &resp); err != nil {
		return nil, fmt.Errorf("get all analytics: %w", err)
	}

	out := make(map[model.Period]model.AnalyticsSnapshot, len(resp))
	for name, snap := range resp {
		p, err := model.ParsePeriod(name)
		if err != nil {
			c.logger.Warn("skipping unknown analytics period", "period", name)
			continue
		}
		if err := snap.Validate(); err != nil {
			c.logger.Warn("skipping malformed analytics snapshot", "period", p, "error", err)
			continue
		}
		if snap.Period == "" {
			snap.Period = p
		}
		out[p] = snap
	}

	return out, nil
}
