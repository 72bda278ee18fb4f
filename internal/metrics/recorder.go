package metrics

import (
	"context"
	"time"
)

// Recorder fans generation metrics out to CloudWatch and Sentry. Either may be nil.
type Recorder struct {
	CloudWatch *Client
	Sentry     *SentryMetrics
}

// NewRecorder bundles both sinks
func NewRecorder(cw *Client, s *SentryMetrics) *Recorder {
	return &Recorder{CloudWatch: cw, Sentry: s}
}

// RecordGeneration records one generated part
func (r *Recorder) RecordGeneration(ctx context.Context, mode, part string, notes int, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	r.CloudWatch.RecordGeneration(mode, part, notes, duration, success)
	r.Sentry.RecordGeneration(ctx, mode, part, notes, duration, success)
}

// RecordKeyFallback records a track that fell back to the default key
func (r *Recorder) RecordKeyFallback(track string) {
	if r == nil {
		return
	}
	r.CloudWatch.RecordKeyFallback(track)
}

// RecordAPIRequest records a finished HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	r.CloudWatch.RecordAPIRequest(endpoint, statusCode, duration)
	r.Sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
}
