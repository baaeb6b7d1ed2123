package websocket

import (
	"github.com/google/uuid"
)

type socketMessageType int

const (
	Update socketMessageType = iota
	Welcome
)

// SocketMessage is a server-to-client packet. Origin records which client
// a message arrived from; Target, when set, restricts delivery to the
// client with the matching UUID instead of broadcasting.
type SocketMessage struct {
	Title  string                 `json:"title"`
	Body   map[string]interface{} `json:"arguments"`
	Type   socketMessageType      `json:"type"`
	Origin *uuid.UUID             `json:"-"`
	Target *uuid.UUID             `json:"-"`
}
