package realtime

import (
	"sync"
	"testing"
)

func TestJoinAndBroadcast(t *testing.T) {
	h := NewHub(nil)
	a := NewClient(1, 4)
	b := NewClient(2, 4)

	h.Join(EntryRoom(9), a)
	h.Join(EntryRoom(9), b)

	h.Broadcast(EntryRoom(9), Event{Name: "newLike", Data: map[string]uint{"entryId": 9}})

	for name, c := range map[string]*Client{"a": a, "b": b} {
		select {
		case ev := <-c.Events():
			if ev.Name != "newLike" {
				t.Errorf("client %s: got event %q, want newLike", name, ev.Name)
			}
		default:
			t.Errorf("client %s: no event received", name)
		}
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	h := NewHub(nil)
	inRoom := NewClient(1, 4)
	outside := NewClient(2, 4)

	h.Join(EntryRoom(1), inRoom)
	h.Join(EntryRoom(2), outside)

	h.Broadcast(EntryRoom(1), Event{Name: "newComment"})

	if len(outside.Events()) != 0 {
		t.Error("client in another room received the event")
	}
	if len(inRoom.Events()) != 1 {
		t.Errorf("room member got %d events, want 1", len(inRoom.Events()))
	}
}

func TestBroadcastToAbsentRoomIsNoop(t *testing.T) {
	h := NewHub(nil)
	// Must not panic or create the room.
	h.Broadcast(EntryRoom(404), Event{Name: "newLike"})
	if h.RoomSize(EntryRoom(404)) != 0 {
		t.Error("broadcast created an empty room")
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	h := NewHub(nil)
	c := NewClient(1, 4)
	h.Join(EntryRoom(5), c)
	h.Leave(EntryRoom(5), c)

	h.Broadcast(EntryRoom(5), Event{Name: "newComment"})

	if len(c.Events()) != 0 {
		t.Error("received event after leaving the room")
	}
	if h.RoomSize(EntryRoom(5)) != 0 {
		t.Errorf("room size = %d after last member left, want 0", h.RoomSize(EntryRoom(5)))
	}
}

func TestDoubleJoinDeliversOnce(t *testing.T) {
	h := NewHub(nil)
	c := NewClient(1, 4)
	h.Join(EntryRoom(3), c)
	h.Join(EntryRoom(3), c)

	h.Broadcast(EntryRoom(3), Event{Name: "newLike"})

	if n := len(c.Events()); n != 1 {
		t.Errorf("got %d deliveries after double join, want 1", n)
	}
}

func TestDisconnectRemovesFromAllRooms(t *testing.T) {
	h := NewHub(nil)
	c := NewClient(7, 4)
	h.Register(c)
	h.Join(UserRoom(7), c)
	h.Join(EntryRoom(1), c)
	h.Join(EntryRoom(2), c)

	h.Disconnect(c)

	for _, room := range []string{UserRoom(7), EntryRoom(1), EntryRoom(2)} {
		if h.RoomSize(room) != 0 {
			t.Errorf("room %s still has members after disconnect", room)
		}
	}
	if h.Get(c.ID()) != nil {
		t.Error("connection still registered after disconnect")
	}
	select {
	case <-c.Done():
	default:
		t.Error("connection not closed after disconnect")
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	c := NewClient(1, 1)
	if !c.Send(Event{Name: "first"}) {
		t.Fatal("first send should fit the buffer")
	}
	if c.Send(Event{Name: "second"}) {
		t.Error("send into a full buffer should report a drop")
	}
	if ev := <-c.Events(); ev.Name != "first" {
		t.Errorf("buffered event = %q, want first", ev.Name)
	}
}

func TestConcurrentJoinBroadcastLeave(t *testing.T) {
	h := NewHub(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := NewClient(uint(n), 8)
			h.Join(EntryRoom(1), c)
			h.Broadcast(EntryRoom(1), Event{Name: "newLike"})
			h.Leave(EntryRoom(1), c)
		}(i)
	}
	wg.Wait()

	if h.RoomSize(EntryRoom(1)) != 0 {
		t.Errorf("room size = %d after all members left, want 0", h.RoomSize(EntryRoom(1)))
	}
}
