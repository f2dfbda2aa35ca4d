package presence_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pulsechat/internal/presence"
)

func TestAddOverwriteKeepsPosition(t *testing.T) {
	r := presence.NewRegistry()
	r.Add("c1", "alice", "a.png")
	r.Add("c2", "bob", "")
	r.Add("c1", "alice", "b.png")

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, presence.Entry{ConnectionID: "c1", Nickname: "alice", Avatar: "b.png"}, snap[0])
	assert.Equal(t, "bob", snap[1].Nickname)
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	r := presence.NewRegistry()
	r.Add("c1", "alice", "")

	assert.False(t, r.Remove("ghost"))
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Remove("c1"))
	assert.False(t, r.Remove("c1"))
	assert.Empty(t, r.Snapshot())
}

func TestSnapshotIsACopy(t *testing.T) {
	r := presence.NewRegistry()
	r.Add("c1", "alice", "")

	snap := r.Snapshot()
	snap[0].Nickname = "mallory"

	assert.Equal(t, "alice", r.Snapshot()[0].Nickname)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	r := presence.NewRegistry()

	const k = 200
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Add(fmt.Sprintf("c%d", i), fmt.Sprintf("Guest%d", i), "")
			_ = r.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, k, r.Len())
	assert.Len(t, r.Snapshot(), k)
}

func TestConcurrentAddRemove(t *testing.T) {
	r := presence.NewRegistry()

	const k = 100
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		i := i
		id := fmt.Sprintf("c%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(id, "user", "")
			if i%2 == 0 {
				r.Remove(id)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, k/2, r.Len())
}
