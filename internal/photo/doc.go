// Package photo extracts per-file metadata (GPS position, capture time, media
// type) from a travel data tree and stores it in a sidecar per directory:
//
//	root/<travel>/<itinerary>/<itinerary>-metadata.json
//
// Images (.jpg, .jpeg, .png) are decoded through a Decoder, goexif by
// default; videos (.mp4) are recorded without position or time. Decoded
// records are cached at the data root by path and modification time so
// re-runs only decode new or changed files.
package photo
