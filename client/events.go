package client

import "context"

// EventService scores transaction events.
type EventService struct {
	c *Client
}

// Score submits one event for scoring and returns the full risk result.
func (s *EventService) Score(ctx context.Context, ev Event) (*RiskResult, error) {
	var resp RiskResult
	if err := s.c.post(ctx, "/api/v1/event", ev, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
