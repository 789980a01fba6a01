// Package delivery posts prepared mention payloads to the chat backend.
//
// A delivery job is an ordered payload sequence produced by pkg/mention.
// The service issues exactly one request per payload, in order, with an
// optional fixed pause between requests. There is no retry and no
// concurrent in-flight request: a failed payload is recorded by index and
// the loop moves on to the next one.
//
// Contrast with payload construction, which is all-or-nothing: delivery is
// the only layer with partial success. Per-job results are kept in an
// in-memory status map (TTL-pruned) and optionally appended to the storage
// layer's delivery log.
package delivery
