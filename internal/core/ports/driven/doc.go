// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Transport: Subscription that yields raw firehose frames
//   - EnvelopeDecoder: Turns a raw frame into a commit (or nothing)
//   - BlockDecoder: Decodes a commit's content-addressed block container
//   - RecordWriter: Persists one matched record
//   - RecordCorpus: Walks the persisted record tree
//   - ReputationStore: Loads and overwrites the reputation map
//   - SchedulerStore: Scheduler task state and run history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Metrics: Counters for frames, commits, writes and recomputes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
