package vector

import (
	"encoding/json"
	"time"
)

const (
	// MetadataFilenameKey is the well-known metadata key for the display
	// filename, stored in its own column/field on every backend.
	MetadataFilenameKey = "filename"

	// MetadataUploadTimeKey is the well-known metadata key for the upload
	// timestamp, stored in its own column/field on every backend.
	MetadataUploadTimeKey = "upload_time"
)

// SplitMetadata separates the well-known filename and upload_time fields
// from the free-form remainder. The caller's map is not mutated; the
// returned rest map is a copy without the well-known keys.
//
// upload_time accepts a time.Time, unix seconds as any numeric type, or an
// RFC 3339 string. A missing or unparseable value defaults to now.
func SplitMetadata(metadata map[string]any) (filename string, uploadTime time.Time, rest map[string]any) {
	uploadTime = time.Now()
	rest = make(map[string]any, len(metadata))

	for k, v := range metadata {
		switch k {
		case MetadataFilenameKey:
			if s, ok := v.(string); ok {
				filename = s
				continue
			}
		case MetadataUploadTimeKey:
			if t, ok := parseUploadTime(v); ok {
				uploadTime = t
				continue
			}
		}
		rest[k] = v
	}
	return filename, uploadTime, rest
}

func parseUploadTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case float64:
		sec := int64(t)
		nsec := int64((t - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec), true
	case int64:
		return time.Unix(t, 0), true
	case int:
		return time.Unix(int64(t), 0), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return parseUploadTime(f)
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Payload builds a SearchHit payload from a record's stored fields: the
// free-form metadata merged with filename and upload_time, matching what
// GetMetadataByID exposes.
func Payload(filename string, uploadTime time.Time, metadata map[string]any) map[string]any {
	payload := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		payload[k] = v
	}
	payload[MetadataFilenameKey] = filename
	if !uploadTime.IsZero() {
		payload[MetadataUploadTimeKey] = float64(uploadTime.UnixNano()) / float64(time.Second)
	}
	return payload
}

// ClampScore clamps a raw similarity to the shared [0, 1] convention.
// Relational backends report 1 - cosine_distance, which can dip below zero
// for near-opposite vectors.
func ClampScore(score float64) float32 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return float32(score)
}

// SimilarityFromBoundedDistance converts a bounded cosine distance in
// [0, 2] into the shared [0, 1] similarity convention using the linear
// mapping 1 - distance/2. Backends whose native query returns a distance
// rather than a similarity use this so their scores stay comparable in
// magnitude to the relational backends'.
func SimilarityFromBoundedDistance(distance float64) float32 {
	return ClampScore(1 - distance/2)
}
