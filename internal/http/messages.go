package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/protocol"
)

type MessagesController struct {
	service  ReaderService
	maxBytes int64
}

func NewMessagesController(service ReaderService, maxBytes int64) *MessagesController {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImportBytes
	}
	return &MessagesController{service: service, maxBytes: maxBytes}
}

// Post handles one protocol envelope and returns the events it produced.
// A rejected message yields a single error event with status 200, the way
// the view receives it over any other transport.
// POST /api/messages
func (mc *MessagesController) Post(c *gin.Context) {
	body, err := readBody(c, mc.maxBytes)
	if err != nil {
		respondEvents(c, http.StatusOK, []protocol.Event{protocol.NewError(err)})
		return
	}

	req, err := protocol.DecodeRequest(body)
	if err != nil {
		respondEvents(c, http.StatusOK, []protocol.Event{protocol.NewError(err)})
		return
	}

	events, err := mc.service.Handle(req)
	if err != nil {
		if kind := protocol.ErrorKind(err); kind == protocol.KindInternal || kind == protocol.KindStorageUnavailable {
			log.Printf("[http] message %s failed: %v", req.Type(), err)
		}
		events = []protocol.Event{protocol.NewError(err)}
	}
	respondEvents(c, http.StatusOK, events)
}
