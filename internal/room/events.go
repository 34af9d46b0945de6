package room

import "github.com/feltmachine/holdem/internal/game"

// EventKind discriminates the room event stream.
type EventKind uint8

const (
	EventRoomUpdated EventKind = iota
	EventActionApplied
	EventHandStarted
	EventHandEnded
	EventPlayerDisconnected
	EventPlayerReconnected
	EventChat
)

// Event is a notification emitted by the room loop for the transport layer
// to fan out. Fields are set per kind; RoomID is always set.
type Event struct {
	Kind     EventKind
	RoomID   string
	PlayerID string
	Action   game.Action
	Message  string
}
