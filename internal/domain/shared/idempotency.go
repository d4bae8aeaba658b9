package shared

import (
	"context"
	"time"
)

// DeliveryTracker remembers which deliveries have already been seen so that
// repeated deliveries of the same notification can be flagged.
type DeliveryTracker interface {
	// MarkSeen marks a delivery key as seen with a TTL.
	// Returns true if the key was newly marked, false if it was already seen.
	MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsSeen checks if a delivery key has already been marked
	IsSeen(ctx context.Context, key string) (bool, error)

	// Close closes the tracker and releases resources
	Close() error
}

// DeliveryTrackingConfig holds configuration for delivery tracking
type DeliveryTrackingConfig struct {
	// TTL is how long a delivery key is remembered
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether deliveries are tracked at all
	// Default: true
	Enabled bool
}

// DefaultDeliveryTrackingConfig returns the default delivery tracking configuration
func DefaultDeliveryTrackingConfig() DeliveryTrackingConfig {
	return DeliveryTrackingConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
