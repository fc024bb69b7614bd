// Package actor hosts uniquely-named single-writer entities with durable
// state. Per (namespace, name) at most one operation runs at a time; state
// is a JSON blob in the KV store, loaded on first call and persisted after
// every mutation.
package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// PathInitialize is the reserved path that creates an actor's state.
const PathInitialize = "initialize"

// Sentinel errors surfaced by System.Call.
var (
	// ErrNotInitialized is returned when a non-initialize call addresses an
	// actor with no stored state.
	ErrNotInitialized = errors.New("actor: not initialized")

	// ErrAlreadyInitialized is returned when initialize addresses an actor
	// that already has state.
	ErrAlreadyInitialized = errors.New("actor: already initialized")

	// ErrTransientPersist is returned when persisting mutated state failed.
	// The mutation is not observable: the actor keeps its previous state.
	ErrTransientPersist = errors.New("actor: transient persist failure")

	// ErrUnknownNamespace is returned for namespaces with no registered
	// behavior.
	ErrUnknownNamespace = errors.New("actor: unknown namespace")

	// ErrUnknownPath is returned by behaviors for unrecognised paths.
	ErrUnknownPath = errors.New("actor: unknown path")
)

// Behavior defines one entity type hosted by the System.
//
// Handle operates on a working copy of the state: the runtime only makes the
// mutation visible (and durable) when Handle reports mutated=true and the
// persist succeeds.
type Behavior interface {
	// NewState returns a zero state value for the runtime to decode stored
	// state into. Must be a pointer.
	NewState() any

	// Initialize builds fresh state from an initialize call body.
	Initialize(ctx context.Context, name string, body []byte) (any, error)

	// Handle executes path against state, returning the response body and
	// whether the state mutated.
	Handle(ctx context.Context, name string, state any, path string, body []byte) (resp []byte, mutated bool, err error)
}

// Decode unmarshals a call body into v, tolerating an empty body.
func Decode(body []byte, v any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed call body: %w", err)
	}
	return nil
}

// Encode marshals a response value.
func Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// IsTransient reports whether err is a retriable runtime failure rather than
// a domain error.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientPersist)
}
