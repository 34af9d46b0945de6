package server

import (
	"encoding/json"
	"fmt"

	"github.com/feltmachine/holdem/internal/room"
)

// MessageType tags the JSON envelope on the wire.
type MessageType string

const (
	// Client to server.
	MessageTypeHello      MessageType = "hello"
	MessageTypeRoomCreate MessageType = "room:create"
	MessageTypeRoomJoin   MessageType = "room:join"
	MessageTypeRoomLeave  MessageType = "room:leave"
	MessageTypeRoomKick   MessageType = "room:kick"
	MessageTypeRoomList   MessageType = "room:list"
	MessageTypeRoomStart  MessageType = "room:start"
	MessageTypeReady      MessageType = "player:ready"
	MessageTypeGameAction MessageType = "game:action"
	MessageTypeChat       MessageType = "game:chat"

	// Server to client.
	MessageTypeHelloOK       MessageType = "hello:ok"
	MessageTypeRoomCreated   MessageType = "room:created"
	MessageTypeRoomState     MessageType = "room:state"
	MessageTypeRoomListing   MessageType = "room:listing"
	MessageTypeActionApplied MessageType = "game:action_applied"
	MessageTypeGameError     MessageType = "game:error"
	MessageTypeChatRelay     MessageType = "game:chat_relay"
	MessageTypePlayerGone    MessageType = "player:disconnected"
	MessageTypePlayerBack    MessageType = "player:reconnected"
	MessageTypeError         MessageType = "error"
)

// Message is the wire envelope: a type tag plus a type-specific payload.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals the payload into an envelope.
func NewMessage(t MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Message{Type: t, Data: data}, nil
}

type HelloData struct {
	Name string `json:"name"`
	// PlayerID carries a previously issued identity so a client can
	// reclaim its seat after a socket drop. Empty for first connections.
	PlayerID string `json:"player_id,omitempty"`
}

type HelloOKData struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type RoomCreateData struct {
	SmallBlind int `json:"small_blind,omitempty"`
	BigBlind   int `json:"big_blind,omitempty"`
	StartChips int `json:"start_chips,omitempty"`
}

type RoomCreatedData struct {
	RoomID string `json:"room_id"`
}

type RoomJoinData struct {
	RoomID string `json:"room_id"`
}

type RoomKickData struct {
	TargetID string `json:"target_id"`
}

type RoomListingData struct {
	Rooms []room.Summary `json:"rooms"`
}

type GameActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

type ActionAppliedData struct {
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
	Amount   int    `json:"amount,omitempty"`
}

type ChatData struct {
	Message string `json:"message"`
}

type ChatRelayData struct {
	PlayerID string `json:"player_id"`
	Message  string `json:"message"`
}

type PlayerEventData struct {
	PlayerID string `json:"player_id"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
