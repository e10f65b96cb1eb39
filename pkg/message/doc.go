// Package message defines the message record that the subscription pipeline delivers
// and a storage contract for persisting it.
//
// A message is created once per triggering event. During delivery the dispatcher
// produces one Clone per recipient, sets the clone's owner to the recipient and hands
// it to the notification channels. Clones keep a pointer to the original so that
// per-recipient alteration hooks can inspect it.
//
// MemoryStorage is a thread-safe in-memory Storage for tests and development.
package message
