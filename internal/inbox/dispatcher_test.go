package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliverToUser(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	phone := newFakeEndpoint("e1", "u1")
	laptop := newFakeEndpoint("e2", "u1")
	other := newFakeEndpoint("e3", "u2")
	d.Attach(phone)
	d.Attach(laptop)
	d.Attach(other)

	delivered := d.DeliverToUser("u1", EventMessagesRead, MessagesReadPayload{ConversationID: "a-b"})

	assert.Equal(t, 2, delivered)
	assert.Len(t, phone.received(EventMessagesRead), 1)
	assert.Len(t, laptop.received(EventMessagesRead), 1)
	assert.Empty(t, other.events)
}

func TestDispatcherDeliverSkipsFailedEndpoint(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	broken := newFakeEndpoint("e1", "u1")
	broken.fail = true
	healthy := newFakeEndpoint("e2", "u1")
	d.Attach(broken)
	d.Attach(healthy)

	delivered := d.DeliverToUser("u1", EventMessagesRead, nil)

	assert.Equal(t, 1, delivered)
	assert.Len(t, healthy.received(EventMessagesRead), 1)
}

func TestDispatcherDetachStopsDelivery(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	ep := newFakeEndpoint("e1", "u1")
	d.Attach(ep)
	d.Detach(ep)

	delivered := d.DeliverToUser("u1", EventMessagesRead, nil)

	assert.Zero(t, delivered)
	assert.Empty(t, ep.events)
}

func TestDispatcherRooms(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	a := newFakeEndpoint("e1", "u1")
	b := newFakeEndpoint("e2", "u2")
	c := newFakeEndpoint("e3", "u3")
	d.Attach(a)
	d.Attach(b)
	d.Attach(c)

	d.Join("a-b", a.ID())
	d.Join("a-b", b.ID())

	delivered := d.DeliverToRoom("a-b", EventMessagesFetched, nil)
	assert.Equal(t, 2, delivered)
	assert.Empty(t, c.events)

	d.Leave("a-b", b.ID())
	delivered = d.DeliverToRoom("a-b", EventMessagesFetched, nil)
	assert.Equal(t, 1, delivered)
}

func TestDispatcherJoinUnknownEndpointIgnored(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	d.Join("a-b", "ghost")
	assert.Zero(t, d.DeliverToRoom("a-b", EventMessagesFetched, nil))
}

func TestDispatcherDetachLeavesRooms(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	ep := newFakeEndpoint("e1", "u1")
	d.Attach(ep)
	d.Join("a-b", ep.ID())
	d.Detach(ep)

	assert.Zero(t, d.DeliverToRoom("a-b", EventMessagesFetched, nil))
}
