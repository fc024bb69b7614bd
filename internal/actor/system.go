package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"Wire/internal/kv"
)

// DefaultMaxResident bounds how many idle actors keep their state cached in
// memory. Eviction is safe: state is persisted after every mutation, so an
// evicted actor reloads on its next call.
const DefaultMaxResident = 16384

type mailbox struct {
	mu       sync.Mutex // serialises operations on this actor
	inflight int        // guarded by System.mu

	// loaded/state are guarded by mu.
	loaded bool
	state  any
}

// System hosts actors and routes calls to them. A name always maps to the
// same logical actor: the durable state key is derived from (namespace,
// name), so any System instance over the same store addresses the same
// entity.
type System struct {
	store kv.Store

	mu        sync.Mutex
	behaviors map[string]Behavior
	active    map[string]*mailbox          // actors with calls in flight
	idle      *lru.Cache[string, *mailbox] // recently used actors, bounded
}

// NewSystem creates a runtime over the given store. maxResident <= 0 uses
// DefaultMaxResident.
func NewSystem(store kv.Store, maxResident int) *System {
	if maxResident <= 0 {
		maxResident = DefaultMaxResident
	}
	idle, _ := lru.New[string, *mailbox](maxResident)
	return &System{
		store:     store,
		behaviors: make(map[string]Behavior),
		active:    make(map[string]*mailbox),
		idle:      idle,
	}
}

// Register binds a behavior to a namespace. Must be called before any Call
// for that namespace.
func (s *System) Register(namespace string, b Behavior) {
	s.mu.Lock()
	s.behaviors[namespace] = b
	s.mu.Unlock()
}

// Call executes path on the actor (namespace, name). Calls to the same actor
// are serialised; calls to different actors run concurrently.
func (s *System) Call(ctx context.Context, namespace, name, path string, body []byte) ([]byte, error) {
	key := namespace + "/" + name

	s.mu.Lock()
	b, ok := s.behaviors[namespace]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, namespace)
	}
	m := s.acquire(key)
	s.mu.Unlock()

	m.mu.Lock()
	resp, err := s.dispatch(ctx, b, m, namespace, name, path, body)
	m.mu.Unlock()

	s.mu.Lock()
	s.release(key, m)
	s.mu.Unlock()

	return resp, err
}

// acquire returns the actor's mailbox, moving it from the idle pool if
// needed. Caller holds s.mu.
func (s *System) acquire(key string) *mailbox {
	m, ok := s.active[key]
	if !ok {
		if cached, hit := s.idle.Get(key); hit {
			m = cached
			s.idle.Remove(key)
		} else {
			m = &mailbox{}
		}
		s.active[key] = m
	}
	m.inflight++
	return m
}

// release parks the mailbox in the idle pool once no calls remain. Caller
// holds s.mu. The pool may evict another idle actor; that only drops its
// cached state.
func (s *System) release(key string, m *mailbox) {
	m.inflight--
	if m.inflight == 0 {
		delete(s.active, key)
		s.idle.Add(key, m)
	}
}

func (s *System) dispatch(ctx context.Context, b Behavior, m *mailbox, namespace, name, path string, body []byte) ([]byte, error) {
	stateKey := kv.ActorKey(namespace, name)

	if !m.loaded {
		blob, err := s.store.Get(ctx, stateKey)
		switch {
		case err == nil:
			st := b.NewState()
			if err := json.Unmarshal(blob, st); err != nil {
				return nil, fmt.Errorf("actor %s/%s: malformed state blob: %w", namespace, name, err)
			}
			m.state = st
			m.loaded = true
		case err == kv.ErrNotFound:
			// Only initialize may create state.
			if path != PathInitialize {
				return nil, fmt.Errorf("%w: %s/%s", ErrNotInitialized, namespace, name)
			}
			st, err := b.Initialize(ctx, name, body)
			if err != nil {
				return nil, err
			}
			if err := s.persist(ctx, stateKey, st); err != nil {
				return nil, err
			}
			m.state = st
			m.loaded = true
			return nil, nil
		default:
			return nil, fmt.Errorf("actor %s/%s: state load failed: %w", namespace, name, err)
		}
	}

	if path == PathInitialize {
		return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyInitialized, namespace, name)
	}

	// Handlers run on a working copy so a failed persist cannot leave a
	// half-applied mutation visible.
	working, err := clone(b, m.state)
	if err != nil {
		return nil, fmt.Errorf("actor %s/%s: state clone failed: %w", namespace, name, err)
	}

	resp, mutated, err := b.Handle(ctx, name, working, path, body)
	if err != nil {
		return nil, err
	}
	if mutated {
		if err := s.persist(ctx, stateKey, working); err != nil {
			return nil, err
		}
		m.state = working
	}
	return resp, nil
}

func (s *System) persist(ctx context.Context, stateKey string, state any) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("state marshal failed: %w", err)
	}
	if err := s.store.Put(ctx, stateKey, blob, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientPersist, err)
	}
	return nil
}

func clone(b Behavior, state any) (any, error) {
	blob, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	fresh := b.NewState()
	if err := json.Unmarshal(blob, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}
