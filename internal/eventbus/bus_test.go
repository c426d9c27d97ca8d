package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chessroom/server/internal/wire"
)

func recvOrTimeout(t *testing.T, ch <-chan *wire.Outbound) *wire.Outbound {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for an event")
		return nil
	}
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	bus := New(nil, nil)
	a := bus.Register("conn-a")
	b := bus.Register("conn-b")
	defer bus.Unregister("conn-a")
	defer bus.Unregister("conn-b")

	bus.Join("ROOM1", "conn-a")
	bus.Publish("ROOM1", &wire.Outbound{Type: wire.OutboundTypeEvent, Event: "room:updated"})

	recvOrTimeout(t, a)

	select {
	case ev := <-b:
		t.Fatalf("expected conn-b to receive nothing, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLeaveStopsFurtherDelivery(t *testing.T) {
	bus := New(nil, nil)
	a := bus.Register("conn-a")
	defer bus.Unregister("conn-a")

	bus.Join("ROOM1", "conn-a")
	bus.Leave("ROOM1", "conn-a")
	bus.Publish("ROOM1", &wire.Outbound{Type: wire.OutboundTypeEvent, Event: "room:updated"})

	select {
	case ev := <-a:
		t.Fatalf("expected no delivery after leave, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishToAddressesOneConnection(t *testing.T) {
	bus := New(nil, nil)
	a := bus.Register("conn-a")
	b := bus.Register("conn-b")
	defer bus.Unregister("conn-a")
	defer bus.Unregister("conn-b")

	bus.PublishTo("conn-b", &wire.Outbound{Type: wire.OutboundTypeEvent, Event: "room:kicked"})

	select {
	case ev := <-a:
		t.Fatalf("expected conn-a to receive nothing, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	recvOrTimeout(t, b)
}

func TestPublishGlobalReachesEveryConnection(t *testing.T) {
	bus := New(nil, nil)
	a := bus.Register("conn-a")
	b := bus.Register("conn-b")
	defer bus.Unregister("conn-a")
	defer bus.Unregister("conn-b")

	bus.PublishGlobal(context.Background(), &wire.Outbound{Type: wire.OutboundTypeEvent, Event: wire.EventRoomListUpdated})

	recvOrTimeout(t, a)
	recvOrTimeout(t, b)
}

func TestDeliverDropsOnFullMailbox(t *testing.T) {
	bus := New(nil, nil)
	ch := bus.Register("conn-full")
	defer bus.Unregister("conn-full")

	for i := 0; i < mailboxSize+5; i++ {
		bus.PublishTo("conn-full", &wire.Outbound{Type: wire.OutboundTypeEvent, Event: "spam"})
	}
	if len(ch) != mailboxSize {
		t.Fatalf("expected the mailbox to stay at capacity %d, got %d", mailboxSize, len(ch))
	}
}

func TestSubscribeRedisFansGlobalSignalAcrossProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	pub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	busA := New(pub, nil)
	busB := New(nil, nil)
	conn := busB.Register("conn-remote")
	defer busB.Unregister("conn-remote")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	busB.SubscribeRedis(ctx, sub)
	time.Sleep(50 * time.Millisecond) // let the subscription establish

	busA.PublishGlobal(ctx, &wire.Outbound{Type: wire.OutboundTypeEvent, Event: wire.EventRoomListUpdated})

	recvOrTimeout(t, conn)
}
