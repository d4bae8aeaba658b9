// Package reconciliation hosts the application services that keep contact
// billing status in step with the payment gateway.
//
// Two ingestion paths feed the same Engine: WebhookService handles one pushed
// notification per call and SyncService polls every active tenant once per
// run. Both may run concurrently with each other and with themselves. The
// Engine serializes writes per contact with a conditional update, so the
// contact always converges to the event with the newest event time.
package reconciliation
