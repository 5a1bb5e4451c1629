// Package domain defines the core business entities for skywatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Commit: One repository change event taken off the firehose
//   - Record: A typed value extracted from a commit's block container
//   - ReputationEntry: Longevity state for one publisher identity
//   - Config: The immutable configuration value built at startup
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
