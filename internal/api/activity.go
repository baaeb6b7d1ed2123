package api

import (
	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/api/audiobooks"
	"github.com/tomelib/tome/internal/event"
	"github.com/tomelib/tome/internal/http/websocket"
)

const (
	TitleMaterializationUpdate   = "MATERIALIZATION_UPDATE"
	TitleMaterializationProgress = "MATERIALIZATION_PROGRESS"
	TitleMaterializationComplete = "MATERIALIZATION_COMPLETE"
	TitleSummaryComplete         = "SUMMARY_COMPLETE"
)

type (
	// AudiobookUpdate is the websocket payload for any audiobook lifecycle
	// change; the full DTO is embedded so clients do not need a follow-up
	// fetch.
	AudiobookUpdate struct {
		AudiobookID uuid.UUID       `json:"audiobook_id"`
		Audiobook   *audiobooks.Dto `json:"audiobook"`
	}

	// broadcaster bridges the event bus and the websocket hub: lifecycle
	// events carrying an audiobook ID are inflated to DTOs and pushed to
	// every connected client.
	broadcaster struct {
		socketHub *websocket.SocketHub
		store     audiobooks.Store
	}
)

func newBroadcaster(socketHub *websocket.SocketHub, store audiobooks.Store) *broadcaster {
	return &broadcaster{socketHub: socketHub, store: store}
}

// registerWith subscribes the broadcaster to the lifecycle events it
// relays. Handlers run async so a slow client cannot stall the services
// dispatching events.
func (hub *broadcaster) registerWith(eventBus event.EventHandler) {
	eventBus.RegisterAsyncHandlerFunction(event.MATERIALIZATION_UPDATE, func(ev event.Event, payload event.Payload) {
		hub.broadcastAudiobook(TitleMaterializationUpdate, payload)
	})
	eventBus.RegisterAsyncHandlerFunction(event.MATERIALIZATION_PROGRESS, func(ev event.Event, payload event.Payload) {
		hub.broadcastAudiobook(TitleMaterializationProgress, payload)
	})
	eventBus.RegisterAsyncHandlerFunction(event.MATERIALIZATION_COMPLETE, func(ev event.Event, payload event.Payload) {
		hub.broadcastAudiobook(TitleMaterializationComplete, payload)
	})
	eventBus.RegisterAsyncHandlerFunction(event.SUMMARY_COMPLETE, func(ev event.Event, payload event.Payload) {
		hub.broadcastAudiobook(TitleSummaryComplete, payload)
	})
}

func (hub *broadcaster) broadcastAudiobook(title string, payload event.Payload) {
	audiobookID, ok := payload.(uuid.UUID)
	if !ok {
		log.Warnf("Refusing to broadcast %s: payload %#v is not an audiobook ID\n", title, payload)
		return
	}

	update := AudiobookUpdate{AudiobookID: audiobookID}
	if audiobook, err := hub.store.GetAudiobook(audiobookID); err == nil {
		dto := audiobooks.NewDto(audiobook)
		update.Audiobook = &dto
	}

	hub.broadcast(title, update)
}

func (hub *broadcaster) broadcast(title string, update any) {
	hub.socketHub.Send(&websocket.SocketMessage{
		Title: title,
		Body:  map[string]interface{}{"arguments": update},
		Type:  websocket.Update,
	})
}
