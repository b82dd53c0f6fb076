// Package history keeps the most recent generated commands in memory.
//
// The store is the wizard's history collaborator: completed wizard runs
// append their command text, newest first, and the list is bounded so the
// oldest entry is evicted silently once the limit is reached. Nothing is
// persisted.
package history
