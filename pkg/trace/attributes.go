package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used across the matching pipeline.
const (
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioSamples    = "audio.samples"

	AttrSegmentID     = "segment.id"
	AttrSegmentFrames = "segment.frames"

	AttrVadState = "vad.state"

	AttrFeatureFrames = "feature.frames"
	AttrFeatureDim    = "feature.dim"

	AttrDTWDistance    = "dtw.distance"
	AttrMatchThreshold = "match.threshold"
	AttrMatched        = "match.matched"
)

// SegmentAttrs creates attributes for a captured segment.
func SegmentAttrs(segmentID string, frames int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSegmentID, segmentID),
		attribute.Int(AttrSegmentFrames, frames),
	}
}

// FeatureAttrs creates attributes for a feature matrix.
func FeatureAttrs(frames, dim int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrFeatureFrames, frames),
		attribute.Int(AttrFeatureDim, dim),
	}
}

// MatchAttrs creates attributes for a match decision.
func MatchAttrs(distance uint32, threshold uint32, matched bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(AttrDTWDistance, int64(distance)),
		attribute.Int64(AttrMatchThreshold, int64(threshold)),
		attribute.Bool(AttrMatched, matched),
	}
}
