package presence

import (
	"fmt"
	"sync"
	"testing"

	"kawanchat/server/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_IsOnline(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(tr *Tracker)
		contact string
		want    bool
		wantErr error
	}{
		{
			name:    "happy path - online after mark",
			setup:   func(tr *Tracker) { tr.MarkOnline("alice@example.com") },
			contact: "alice@example.com",
			want:    true,
		},
		{
			name: "happy path - offline after unmark",
			setup: func(tr *Tracker) {
				tr.MarkOnline("alice@example.com")
				tr.MarkOffline("alice@example.com")
			},
			contact: "alice@example.com",
			want:    false,
		},
		{
			name:    "happy path - unknown contact is offline",
			setup:   func(tr *Tracker) {},
			contact: "nobody@example.com",
			want:    false,
		},
		{
			name:    "sad path - empty contact",
			setup:   func(tr *Tracker) {},
			contact: "",
			wantErr: apperror.ErrEmptyContact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tt.setup(tr)

			got, err := tr.IsOnline(tt.contact)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTracker_EmptyContactMutatorsAreNoops(t *testing.T) {
	tr := NewTracker()
	tr.MarkOnline("")
	tr.MarkOffline("")
	assert.Equal(t, 0, tr.Count())
}

func TestTracker_BulkStatus(t *testing.T) {
	tr := NewTracker()
	tr.MarkOnline("a@example.com")
	tr.MarkOnline("c@example.com")

	got := tr.BulkStatus([]string{"a@example.com", "b@example.com", "c@example.com"})
	assert.Equal(t, map[string]bool{
		"a@example.com": true,
		"b@example.com": false,
		"c@example.com": true,
	}, got)

	assert.Empty(t, tr.BulkStatus(nil))
}

func TestTracker_ListOnlineIsSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.MarkOnline("b@example.com")
	tr.MarkOnline("a@example.com")

	snapshot := tr.ListOnline()
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, snapshot)

	snapshot[0] = "mutated"
	tr.MarkOffline("b@example.com")
	assert.Equal(t, []string{"a@example.com"}, tr.ListOnline())
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contact := fmt.Sprintf("user%d@example.com", i)
			tr.MarkOnline(contact)
			_, _ = tr.IsOnline(contact)
			tr.BulkStatus([]string{contact, "other@example.com"})
			if i%2 == 0 {
				tr.MarkOffline(contact)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, tr.Count())
}
