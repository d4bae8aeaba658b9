// Package cache provides the delivery trackers used to flag repeated webhook
// deliveries. Redis backs multi-instance deployments; the in-memory tracker
// serves single instances and tests.
package cache
