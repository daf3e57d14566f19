// Package normalize converts raw EXIF values into the forms stored in the
// travel documents: decimal-degree coordinates with hemisphere signs and
// ISO-8601 style timestamps.
//
// Timestamps are relabeled, not converted:
//
//	iso, ok := normalize.DateTime("2024:07:04 10:30:00")
//	// iso == "2024-07-04T10:30:00Z", the camera's local clock marked as Z
package normalize
