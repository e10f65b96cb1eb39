// Package entity describes the content the subscription pipeline reasons about.
//
// Entities are plain data: a type, an ID, ownership and revision information, an
// optional parent (for comment-like content) and typed references. Relations are
// resolved through narrow capabilities instead of live object graphs:
//
//   - Loader       loads entities of one type by ID
//   - Memberships  lists the groups a content item belongs to
//   - Accounts     filters account IDs down to active accounts
//   - AccessChecker decides whether an account may view an entity
//
// ContextMap is the set of related entity IDs keyed by entity type. It is built once
// per send operation and serialized verbatim into queued delivery jobs.
//
// MemoryStore implements Loader, Memberships and Accounts for tests and local development.
package entity
