// Package flag implements the subscription store: flag definitions, flaggings
// (an account bookmarking an entity with a flag) and the Service capability the
// subscription pipeline queries to find followers.
//
// Manager implements Service over a flag catalogue and a Store. Catalogues are
// usually loaded from YAML with LoadDefinitions. Two stores are provided:
// MemoryStore for tests and development, and BadgerStore for embedded
// persistence.
//
// Listeners registered on the Manager observe flag and unflag events once the
// change has been stored; a listener error is returned to the caller wrapped in
// ErrListenerFailed.
//
//	flags, _ := flag.LoadDefinitionsFile("flags.yaml")
//	svc := flag.NewManager(flag.NewMemoryStore(), flags)
//	_, err := svc.Flag(ctx, "subscribe_node", entity.Ref{Type: "node", ID: 1}, accountID)
package flag
