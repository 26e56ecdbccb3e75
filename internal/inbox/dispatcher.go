package inbox

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Endpoint is one live connection for a user. The websocket session
// satisfies it; tests use in-memory fakes.
type Endpoint interface {
	ID() string
	UserID() string
	Send(event string, data any) error
}

// Dispatcher fans events out to endpoints. It owns the endpoint table and
// conversation room membership; presence bookkeeping is delegated to the
// injected Registry.
type Dispatcher struct {
	registry *Registry

	mu            sync.RWMutex
	endpoints     map[string]Endpoint            // endpointID -> endpoint
	rooms         map[string]map[string]struct{} // conversationID -> endpoint IDs
	endpointRooms map[string]map[string]struct{} // endpointID -> conversation IDs
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		endpoints:     make(map[string]Endpoint),
		rooms:         make(map[string]map[string]struct{}),
		endpointRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers the endpoint with the dispatcher and the presence registry.
func (d *Dispatcher) Attach(ep Endpoint) {
	d.mu.Lock()
	d.endpoints[ep.ID()] = ep
	d.mu.Unlock()
	d.registry.Register(ep.UserID(), ep.ID())
}

// Detach removes the endpoint from presence, all rooms, and the endpoint
// table. No further events reach it.
func (d *Dispatcher) Detach(ep Endpoint) {
	d.registry.Unregister(ep.UserID(), ep.ID())
	d.mu.Lock()
	for roomID := range d.endpointRooms[ep.ID()] {
		d.leaveLocked(roomID, ep.ID())
	}
	delete(d.endpointRooms, ep.ID())
	delete(d.endpoints, ep.ID())
	d.mu.Unlock()
}

// Join adds the endpoint to a conversation room.
func (d *Dispatcher) Join(conversationID, endpointID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.endpoints[endpointID]; !ok {
		return
	}
	room := d.rooms[conversationID]
	if room == nil {
		room = make(map[string]struct{})
		d.rooms[conversationID] = room
	}
	room[endpointID] = struct{}{}

	memberships := d.endpointRooms[endpointID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		d.endpointRooms[endpointID] = memberships
	}
	memberships[conversationID] = struct{}{}
}

// Leave removes the endpoint from a conversation room.
func (d *Dispatcher) Leave(conversationID, endpointID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.leaveLocked(conversationID, endpointID)
}

func (d *Dispatcher) leaveLocked(conversationID, endpointID string) {
	room := d.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, endpointID)
	if len(room) == 0 {
		delete(d.rooms, conversationID)
	}
	if memberships, ok := d.endpointRooms[endpointID]; ok {
		delete(memberships, conversationID)
	}
}

// DeliverToUser sends one event to every live endpoint of the user and
// reports how many deliveries succeeded. A failed endpoint send is logged
// and never affects the others.
func (d *Dispatcher) DeliverToUser(userID, event string, data any) int {
	delivered := 0
	for _, endpointID := range d.registry.EndpointsFor(userID) {
		d.mu.RLock()
		ep := d.endpoints[endpointID]
		d.mu.RUnlock()
		if ep == nil {
			continue
		}
		if err := ep.Send(event, data); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,
				"endpoint_id": endpointID,
				"event":       event,
			}).WithError(err).Warn("endpoint delivery failed")
			continue
		}
		delivered++
	}
	return delivered
}

// DeliverToRoom sends one event to every endpoint joined to the
// conversation room.
func (d *Dispatcher) DeliverToRoom(conversationID, event string, data any) int {
	d.mu.RLock()
	members := make([]Endpoint, 0, len(d.rooms[conversationID]))
	for endpointID := range d.rooms[conversationID] {
		if ep := d.endpoints[endpointID]; ep != nil {
			members = append(members, ep)
		}
	}
	d.mu.RUnlock()

	delivered := 0
	for _, ep := range members {
		if err := ep.Send(event, data); err == nil {
			delivered++
		}
	}
	return delivered
}
