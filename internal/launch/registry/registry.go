// Package registry tracks the in-flight launch of each profile.
//
// A profile has at most one live entry. Entries are stored in a sync.Map keyed
// by profile id and each carries its own mutex, so operations on different
// profiles never contend with each other.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

var (
	// ErrAlreadyLaunching is returned by Register when the profile already has a live entry.
	ErrAlreadyLaunching = errors.New("profile is already launching")
	// ErrNotLaunching is returned when the profile has no live entry.
	ErrNotLaunching = errors.New("profile is not launching")
	// ErrInvalidTransition is returned for a state change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Entry is the live record of one launch.
type Entry struct {
	mu       sync.Mutex
	meta     v1.ProcessMetadata
	abort    chan struct{}
	aborted  bool
	stopping time.Time
}

// Snapshot returns a copy of the entry's metadata.
func (e *Entry) Snapshot() v1.ProcessMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta
}

// Aborted is closed once an abort has been requested for this launch.
func (e *Entry) Aborted() <-chan struct{} {
	return e.abort
}

// IsAborted reports whether an abort has been requested.
func (e *Entry) IsAborted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aborted
}

// StoppingSince returns when the entry entered Stopping, or the zero time.
func (e *Entry) StoppingSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopping
}

// Transition moves this entry to next if the state machine allows it. Unlike
// Registry.UpdateState it acts on this entry even after it has been removed.
func (e *Entry) Transition(next v1.ProcessState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transition(next)
}

// SetPID records the OS process id once the game has spawned.
func (e *Entry) SetPID(pid int) {
	e.mu.Lock()
	e.meta.PID = pid
	e.mu.Unlock()
}

func (e *Entry) transition(next v1.ProcessState) error {
	if !e.meta.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.meta.State, next)
	}
	e.meta.State = next
	if next == v1.ProcessStateStopping && e.stopping.IsZero() {
		e.stopping = time.Now()
	}
	return nil
}

// Registry is the process-wide table of in-flight launches.
type Registry struct {
	entries sync.Map // profile id -> *Entry
	now     func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{now: time.Now}
}

// Register atomically inserts a Starting entry for profileID.
// It fails with ErrAlreadyLaunching if one is already present.
func (r *Registry) Register(profileID string) (*Entry, error) {
	entry := &Entry{
		meta: v1.ProcessMetadata{
			ID:        uuid.New().String(),
			ProfileID: profileID,
			StartTime: r.now().UTC(),
			State:     v1.ProcessStateStarting,
		},
		abort: make(chan struct{}),
	}

	if _, loaded := r.entries.LoadOrStore(profileID, entry); loaded {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLaunching, profileID)
	}
	return entry, nil
}

func (r *Registry) load(profileID string) (*Entry, error) {
	v, ok := r.entries.Load(profileID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLaunching, profileID)
	}
	return v.(*Entry), nil
}

// Get returns the live entry for profileID.
func (r *Registry) Get(profileID string) (*Entry, bool) {
	entry, err := r.load(profileID)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// Lookup returns a snapshot of the live entry for profileID.
func (r *Registry) Lookup(profileID string) (v1.ProcessMetadata, bool) {
	entry, ok := r.Get(profileID)
	if !ok {
		return v1.ProcessMetadata{}, false
	}
	return entry.Snapshot(), true
}

// UpdateState moves the entry to next if the transition is legal.
func (r *Registry) UpdateState(profileID string, next v1.ProcessState) error {
	entry, err := r.load(profileID)
	if err != nil {
		return err
	}
	return entry.Transition(next)
}

// SetPID records the OS process id for the profile's live entry.
func (r *Registry) SetPID(profileID string, pid int) error {
	entry, err := r.load(profileID)
	if err != nil {
		return err
	}
	entry.SetPID(pid)
	return nil
}

// Abort requests cancellation of the profile's launch. The entry moves to
// Stopping and its Aborted channel is closed. Aborting an entry that is
// already Stopping succeeds without signaling again.
func (r *Registry) Abort(profileID string) (v1.ProcessMetadata, error) {
	entry, err := r.load(profileID)
	if err != nil {
		return v1.ProcessMetadata{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.meta.State != v1.ProcessStateStopping {
		if err := entry.transition(v1.ProcessStateStopping); err != nil {
			return entry.meta, err
		}
	}
	if !entry.aborted {
		entry.aborted = true
		close(entry.abort)
	}
	return entry.meta, nil
}

// Remove deletes the entry for profileID. Removing an absent entry is a no-op.
func (r *Registry) Remove(profileID string) {
	r.entries.Delete(profileID)
}

// RemoveEntry deletes entry only if it is still the live entry for its
// profile, and reports whether it did.
func (r *Registry) RemoveEntry(entry *Entry) bool {
	return r.entries.CompareAndDelete(entry.Snapshot().ProfileID, entry)
}

// List returns snapshots of all live entries ordered by start time.
func (r *Registry) List() []v1.ProcessMetadata {
	var out []v1.ProcessMetadata
	r.entries.Range(func(_, v any) bool {
		out = append(out, v.(*Entry).Snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ProfileID < out[j].ProfileID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Entries returns the live entries for callers that act on them directly.
func (r *Registry) Entries() []*Entry {
	var out []*Entry
	r.entries.Range(func(_, v any) bool {
		out = append(out, v.(*Entry))
		return true
	})
	return out
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
