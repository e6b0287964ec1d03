package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

func TestRegister_NewEntryIsStarting(t *testing.T) {
	r := New()

	entry, err := r.Register("abc")
	require.NoError(t, err)

	meta := entry.Snapshot()
	assert.Equal(t, "abc", meta.ProfileID)
	assert.Equal(t, v1.ProcessStateStarting, meta.State)
	assert.NotEmpty(t, meta.ID)
	assert.Zero(t, meta.PID)
	assert.False(t, meta.StartTime.IsZero())

	got, ok := r.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, meta, got)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	r := New()

	first, err := r.Register("abc")
	require.NoError(t, err)

	_, err = r.Register("abc")
	assert.ErrorIs(t, err, ErrAlreadyLaunching)

	got, ok := r.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, first.Snapshot(), got, "existing entry must be untouched")
}

func TestAbort_NoEntry(t *testing.T) {
	r := New()
	_, err := r.Abort("nope")
	assert.ErrorIs(t, err, ErrNotLaunching)
	assert.Equal(t, 0, r.Len())
}

func TestRegister_AfterRemove(t *testing.T) {
	r := New()

	first, err := r.Register("abc")
	require.NoError(t, err)
	r.Remove("abc")
	r.Remove("abc")

	second, err := r.Register("abc")
	require.NoError(t, err)
	assert.NotEqual(t, first.Snapshot().ID, second.Snapshot().ID)
}

func TestRemoveEntry_OnlyRemovesCurrentEntry(t *testing.T) {
	r := New()

	stale, err := r.Register("abc")
	require.NoError(t, err)
	require.True(t, r.RemoveEntry(stale))

	current, err := r.Register("abc")
	require.NoError(t, err)

	assert.False(t, r.RemoveEntry(stale), "stale entry must not remove the newer one")
	_, ok := r.Lookup("abc")
	assert.True(t, ok)
	assert.True(t, r.RemoveEntry(current))
}

func TestUpdateState_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []v1.ProcessState
		wantErr bool
	}{
		{"starting to running", []v1.ProcessState{v1.ProcessStateRunning}, false},
		{"running to stopped", []v1.ProcessState{v1.ProcessStateRunning, v1.ProcessStateStopped}, false},
		{"running to crashed", []v1.ProcessState{v1.ProcessStateRunning, v1.ProcessStateCrashed}, false},
		{"starting to crashed", []v1.ProcessState{v1.ProcessStateCrashed}, false},
		{"stopping to stopped", []v1.ProcessState{v1.ProcessStateStopping, v1.ProcessStateStopped}, false},
		{"starting to stopped", []v1.ProcessState{v1.ProcessStateStopped}, true},
		{"stopping to running", []v1.ProcessState{v1.ProcessStateStopping, v1.ProcessStateRunning}, true},
		{"stopped to running", []v1.ProcessState{v1.ProcessStateRunning, v1.ProcessStateStopped, v1.ProcessStateRunning}, true},
		{"self transition", []v1.ProcessState{v1.ProcessStateStarting}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			_, err := r.Register("p")
			require.NoError(t, err)

			var last error
			for _, s := range tt.path {
				if last = r.UpdateState("p", s); last != nil {
					break
				}
			}
			if tt.wantErr {
				assert.ErrorIs(t, last, ErrInvalidTransition)
			} else {
				assert.NoError(t, last)
			}
		})
	}
}

func TestUpdateState_NoEntry(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.UpdateState("p", v1.ProcessStateRunning), ErrNotLaunching)
	assert.ErrorIs(t, r.SetPID("p", 10), ErrNotLaunching)
}

func TestAbort_SignalsOnce(t *testing.T) {
	r := New()
	entry, err := r.Register("xyz")
	require.NoError(t, err)
	require.NoError(t, r.UpdateState("xyz", v1.ProcessStateRunning))

	meta, err := r.Abort("xyz")
	require.NoError(t, err)
	assert.Equal(t, v1.ProcessStateStopping, meta.State)

	select {
	case <-entry.Aborted():
	default:
		t.Fatal("abort channel not closed")
	}
	assert.True(t, entry.IsAborted())
	assert.False(t, entry.StoppingSince().IsZero())

	meta, err = r.Abort("xyz")
	require.NoError(t, err, "second abort of a stopping entry succeeds")
	assert.Equal(t, v1.ProcessStateStopping, meta.State)
}

func TestAbort_TerminalEntry(t *testing.T) {
	r := New()
	_, err := r.Register("p")
	require.NoError(t, err)
	require.NoError(t, r.UpdateState("p", v1.ProcessStateCrashed))

	_, err = r.Abort("p")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSetPID(t *testing.T) {
	r := New()
	_, err := r.Register("p")
	require.NoError(t, err)
	require.NoError(t, r.SetPID("p", 4242))

	meta, _ := r.Lookup("p")
	assert.Equal(t, 4242, meta.PID)
}

func TestList_SortedByStartTime(t *testing.T) {
	r := New()
	for i := 0; i < 5; i++ {
		_, err := r.Register(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}

	list := r.List()
	require.Len(t, list, 5)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].StartTime.Before(list[i-1].StartTime))
	}
	assert.Len(t, r.Entries(), 5)
	assert.Equal(t, 5, r.Len())
}

func TestRegister_ConcurrentSingleWinner(t *testing.T) {
	const goroutines = 64
	const rounds = 50

	for round := 0; round < rounds; round++ {
		r := New()
		var wins atomic.Int32
		var losses atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := r.Register("abc")
				switch {
				case err == nil:
					wins.Add(1)
				case errors.Is(err, ErrAlreadyLaunching):
					losses.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), wins.Load(), "round %d", round)
		require.Equal(t, int32(goroutines-1), losses.Load(), "round %d", round)
		require.Equal(t, 1, r.Len())
	}
}

func TestRegistry_DifferentProfilesAreIndependent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			_, err := r.Register(id)
			assert.NoError(t, err)
			assert.NoError(t, r.UpdateState(id, v1.ProcessStateRunning))
			_, err = r.Abort(id)
			assert.NoError(t, err)
			r.Remove(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
