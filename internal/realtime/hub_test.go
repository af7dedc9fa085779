package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	rooms  []string
	events []string
}

func (f *fakePublisher) PublishRoomEvent(room, event string, payload []byte) error {
	f.rooms = append(f.rooms, room)
	f.events = append(f.events, event)
	return nil
}

type fakeSubscriber struct {
	subscribed []string
	cancelled  []string
}

func (f *fakeSubscriber) SubscribeRoom(room string, handler func(event string, payload []byte)) (func(), error) {
	f.subscribed = append(f.subscribed, room)
	return func() { f.cancelled = append(f.cancelled, room) }, nil
}

func newTestClient(id string) *Client {
	return &Client{
		ID:    id,
		send:  make(chan WSMessage, 4),
		rooms: make(map[string]struct{}),
	}
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "user:42", UserRoom(42))
	assert.Equal(t, "post:7", PostRoom(7))
}

func TestValidPostRoom(t *testing.T) {
	assert.True(t, validPostRoom("post:12"))
	assert.False(t, validPostRoom("post:0"))
	assert.False(t, validPostRoom("post:abc"))
	assert.False(t, validPostRoom("user:12"))
	assert.False(t, validPostRoom(""))
}

func TestJoinLeaveSubscriptionLifecycle(t *testing.T) {
	sub := &fakeSubscriber{}
	hub := NewHub(zap.NewNop(), nil, sub)
	a := newTestClient("a")
	b := newTestClient("b")

	hub.Join("post:1", a)
	hub.Join("post:1", b)
	assert.Equal(t, 2, hub.RoomCount("post:1"))
	assert.Equal(t, []string{"post:1"}, sub.subscribed, "one subscription per room")

	hub.Leave("post:1", a)
	assert.Equal(t, 1, hub.RoomCount("post:1"))
	assert.Empty(t, sub.cancelled, "subscription lives while a client remains")

	hub.Leave("post:1", b)
	assert.Equal(t, 0, hub.RoomCount("post:1"))
	assert.Equal(t, []string{"post:1"}, sub.cancelled, "last leave cancels the subscription")
}

func TestBroadcastDeliversToRoomMembers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	in := newTestClient("in")
	out := newTestClient("out")
	hub.Join("post:5", in)
	hub.Join("post:6", out)

	hub.Broadcast("post:5", "newComment", map[string]int64{"id": 9})

	require.Len(t, in.send, 1)
	msg := <-in.send
	assert.Equal(t, "newComment", msg.Event)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, int64(9), body["id"])
	assert.Empty(t, out.send)
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := &Client{ID: "c", send: make(chan WSMessage), rooms: make(map[string]struct{})}
	hub.Join("post:3", c)

	// unbuffered channel with no reader must not block the hub
	hub.Broadcast("post:3", "newComment", nil)
}

func TestPublishOnlyDeliversOncePerClient(t *testing.T) {
	// Wire a loopback publisher: every publish is echoed straight back into
	// the room subscription, the way Redis echoes to the publishing instance.
	sub := &fakeSubscriber{}
	var hub *Hub
	echo := publishFunc(func(room, event string, payload []byte) error {
		hub.Broadcast(room, event, payload)
		return nil
	})
	hub = NewHub(zap.NewNop(), echo, sub)

	c := newTestClient("c")
	hub.Join("post:2", c)

	hub.PublishOnly("post:2", "pollResult", map[string]int{"total": 3})
	assert.Len(t, c.send, 1, "room event must reach a local client exactly once")
}

func TestPublishOnlyFallsBackToLocalBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient("c")
	hub.Join("post:4", c)

	hub.PublishOnly("post:4", "newComment", map[string]int64{"id": 1})
	assert.Len(t, c.send, 1)
}

type publishFunc func(room, event string, payload []byte) error

func (f publishFunc) PublishRoomEvent(room, event string, payload []byte) error {
	return f(room, event, payload)
}

func TestBroadcastAndPublishReachesRedis(t *testing.T) {
	pub := &fakePublisher{}
	hub := NewHub(zap.NewNop(), pub, nil)
	c := newTestClient("c")
	hub.Join(UserRoom(8), c)

	hub.NotifyUser(8, "notification", map[string]string{"content": "hi"})

	require.Len(t, c.send, 1)
	assert.Equal(t, []string{"user:8"}, pub.rooms)
	assert.Equal(t, []string{"notification"}, pub.events)
}
