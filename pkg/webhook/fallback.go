package webhook

import (
	"context"
	"fmt"

	"github.com/hookchat/hookchat/pkg/logger"
)

// FallbackClient tries the primary endpoint first, then alternates in order
// when the exchange fails hard. Recoverable failures (the server answered,
// the shape was just unknown) do not trigger fallback.
type FallbackClient struct {
	primary   *Client
	fallbacks []*Client
}

func NewFallbackClient(primary string, fallbacks []string) *FallbackClient {
	fc := &FallbackClient{primary: NewClient(primary)}
	for _, url := range fallbacks {
		fc.fallbacks = append(fc.fallbacks, NewClient(url))
	}
	return fc
}

func (fc *FallbackClient) Ask(ctx context.Context, message string) (string, error) {
	reply, err := fc.primary.Ask(ctx, message)
	if err == nil {
		return reply, nil
	}
	if f, ok := AsFailure(err); ok && f.Recoverable() {
		return "", err
	}

	logger.WarnCF("webhook", fmt.Sprintf("Primary endpoint failed: %v, trying fallbacks", err),
		map[string]interface{}{"endpoint": fc.primary.Endpoint()})

	lastErr := err
	for i, alt := range fc.fallbacks {
		reply, lastErr = alt.Ask(ctx, message)
		if lastErr == nil {
			logger.InfoCF("webhook", fmt.Sprintf("Fallback #%d succeeded", i+1),
				map[string]interface{}{"endpoint": alt.Endpoint()})
			return reply, nil
		}
		if f, ok := AsFailure(lastErr); ok && f.Recoverable() {
			return "", lastErr
		}
		logger.WarnCF("webhook", fmt.Sprintf("Fallback #%d failed: %v", i+1, lastErr),
			map[string]interface{}{"endpoint": alt.Endpoint()})
	}

	if len(fc.fallbacks) > 0 {
		return "", fmt.Errorf("all endpoints failed, last error: %w", lastErr)
	}
	return "", err
}
