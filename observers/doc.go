// Package observers provides ready-made observers for statewise machines:
// structured logging through logrus, Prometheus metrics and a validation
// observer for tests.
package observers
