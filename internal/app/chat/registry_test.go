package chat

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle records delivered frames; full simulates a slow member whose
// queue never accepts anything.
type fakeHandle struct {
	mu       sync.Mutex
	frames   [][]byte
	full     bool
	shutdown bool
}

func (f *fakeHandle) Enqueue(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.full {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeHandle) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
}

func (f *fakeHandle) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	frames := make([][]byte, len(f.frames))
	copy(frames, f.frames)
	return frames
}

func TestRegistryJoinLeave(t *testing.T) {
	reg := NewRegistry()

	reg.Join("chat_1", "sess-a", &fakeHandle{})
	assert.Equal(t, 1, reg.MemberCount("chat_1"))
	assert.Equal(t, 1, reg.RoomCount())

	// re-joining the same session must not create a second delivery path
	reg.Join("chat_1", "sess-a", &fakeHandle{})
	assert.Equal(t, 1, reg.MemberCount("chat_1"))

	reg.Leave("chat_1", "sess-a")
	assert.Equal(t, 0, reg.MemberCount("chat_1"))
	assert.Equal(t, 0, reg.RoomCount(), "empty room entry should be removed")

	// leaving a room the session is not a member of is a no-op
	reg.Leave("chat_1", "sess-a")
	reg.Leave("chat_2", "sess-b")
	assert.Equal(t, 0, reg.RoomCount())
}

func TestRegistryEmptyEntriesDoNotLeakUnderChurn(t *testing.T) {
	reg := NewRegistry()

	for i := 0; i < 100; i++ {
		reg.Join("chat_1", "sess-a", &fakeHandle{})
		reg.Leave("chat_1", "sess-a")
	}

	assert.Equal(t, 0, reg.RoomCount())
}

func TestRegistryBroadcast(t *testing.T) {
	reg := NewRegistry()

	a := &fakeHandle{}
	b := &fakeHandle{}
	other := &fakeHandle{}

	reg.Join("chat_1", "sess-a", a)
	reg.Join("chat_1", "sess-b", b)
	reg.Join("chat_2", "sess-c", other)

	reg.Broadcast("chat_1", TypingFrame{Type: FrameTyping, Receiver: 2})

	require.Len(t, a.received(), 1)
	require.Len(t, b.received(), 1)
	assert.Empty(t, other.received(), "broadcast must not cross rooms")

	var frame TypingFrame
	require.NoError(t, json.Unmarshal(a.received()[0], &frame))
	assert.Equal(t, FrameTyping, frame.Type)
	assert.Equal(t, int64(2), frame.Receiver)
}

func TestRegistryBroadcastExcept(t *testing.T) {
	reg := NewRegistry()

	a := &fakeHandle{}
	b := &fakeHandle{}

	reg.Join("chat_1", "sess-a", a)
	reg.Join("chat_1", "sess-b", b)

	reg.BroadcastExcept("chat_1", "sess-a", OnlineStatusFrame{Type: FrameOnlineStatus, Status: StatusOnline})

	assert.Empty(t, a.received(), "excluded session must not receive the frame")
	assert.Len(t, b.received(), 1)
}

func TestRegistryBroadcastSkipsSlowMember(t *testing.T) {
	reg := NewRegistry()

	slow := &fakeHandle{full: true}
	fast := &fakeHandle{}

	reg.Join("chat_1", "sess-slow", slow)
	reg.Join("chat_1", "sess-fast", fast)

	reg.Broadcast("chat_1", TypingFrame{Type: FrameTyping, Receiver: 1})

	assert.Empty(t, slow.received())
	assert.Len(t, fast.received(), 1, "a blocked member must not affect delivery to others")
}

func TestRegistryBroadcastUnknownRoom(t *testing.T) {
	reg := NewRegistry()

	// must not panic or create an entry
	reg.Broadcast("chat_404", TypingFrame{Type: FrameTyping})
	assert.Equal(t, 0, reg.RoomCount())
}

func TestRegistryClose(t *testing.T) {
	reg := NewRegistry()

	a := &fakeHandle{}
	b := &fakeHandle{}

	reg.Join("chat_1", "sess-a", a)
	reg.Join("chat_2", "sess-b", b)

	reg.Close()

	assert.True(t, a.shutdown)
	assert.True(t, b.shutdown)
}

func TestRegistryConcurrentJoinLeaveBroadcast(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			sessionID := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				reg.Join("chat_1", sessionID, &fakeHandle{})
				reg.Broadcast("chat_1", TypingFrame{Type: FrameTyping, Receiver: int64(j)})
				reg.Leave("chat_1", sessionID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.RoomCount())
}
