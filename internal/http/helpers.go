package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/zenreader/internal/entities"
	"github.com/mrlokans/zenreader/internal/protocol"
)

// ErrorResponse is the error body of every API endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"` // protocol error kind
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// EventsResponse carries the events a request produced, in envelope form.
type EventsResponse struct {
	Events []protocol.Envelope `json:"events"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Kind: protocol.KindInvalidInput})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Kind: protocol.KindNotFound})
}

// respondInternalError logs err and hides it from the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("[http] internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: protocol.KindInternal})
}

// respondDomainError maps an error kind to its status: not found 404,
// invalid input 400, storage unavailable 503, anything else 500.
func respondDomainError(c *gin.Context, err error, context string) {
	kind := protocol.ErrorKind(err)
	switch kind {
	case protocol.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: kind})
	case protocol.KindInvalidInput:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: kind})
	case protocol.KindStorageUnavailable:
		log.Printf("[http] storage unavailable (%s): %v", context, err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable", Kind: kind})
	default:
		respondInternalError(c, err, context)
	}
}

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondEvents encodes events into envelopes.
func respondEvents(c *gin.Context, status int, events []protocol.Event) {
	out := EventsResponse{Events: make([]protocol.Envelope, 0, len(events))}
	for _, ev := range events {
		env, err := protocol.EncodeEvent(ev)
		if err != nil {
			respondInternalError(c, err, "encode "+ev.Type())
			return
		}
		out.Events = append(out.Events, env)
	}
	c.JSON(status, out)
}

// readBody returns the request body, capped at limit bytes. An empty body
// reads as "{}".
func readBody(c *gin.Context, limit int64) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, entities.ErrBodyTooLarge
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}

// decodeRoute merges path parameters into a JSON body and decodes it as
// the protocol request msgType, so REST routes share the message
// validation.
func decodeRoute(c *gin.Context, msgType string, limit int64, params map[string]string) (protocol.Request, bool) {
	body, err := readBody(c, limit)
	if err != nil {
		respondDomainError(c, err, msgType)
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		respondBadRequest(c, "request body must be a JSON object")
		return nil, false
	}
	for name, value := range params {
		raw, _ := json.Marshal(value)
		fields[name] = raw
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		respondInternalError(c, err, msgType)
		return nil, false
	}

	req, err := protocol.Envelope{Type: msgType, Payload: payload}.Decode()
	if err != nil {
		respondDomainError(c, err, msgType)
		return nil, false
	}
	return req, true
}
