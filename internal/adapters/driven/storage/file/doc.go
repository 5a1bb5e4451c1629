// Package file persists firehose records and the reputation store on the
// local filesystem.
//
// Record files live under
//
//	<base>/firehose/<type_with_underscores>/<YYYY-MM-DD>/<HHMMSS>_<seq>.json
//
// and hold the pretty-printed record exactly as decoded. The reputation
// store is a single JSON object keyed by publisher identity, replaced
// atomically on every save.
package file
