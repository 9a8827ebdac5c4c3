// Package memory implements the learning memory: the durable store of
// feedback items and adaptations consumed by the learning loop.
//
// The store is pure storage and query. It performs no business
// validation; callers own the shape of what they persist. Storage
// failures propagate to the caller unmodified and are never swallowed.
package memory
