package transport

import (
	"encoding/json"
	"time"
)

// timestampLayout mirrors the upstream contract: local time, ISO-8601 shape,
// no zone suffix.
const timestampLayout = "2006-01-02T15:04:05.000000"

// Header carries the response metadata echoed to every caller. Field names
// are part of the wire contract and must not change.
type Header struct {
	RequestRefID    string `json:"requestRefId,omitempty"`
	ResponseCode    int    `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	CustomerMessage string `json:"customerMessage"`
	Timestamp       string `json:"timestamp,omitempty"`
}

// Envelope is the standard header+body wrapper returned for every operation
// outcome, success or failure.
type Envelope struct {
	Header Header      `json:"header"`
	Body   interface{} `json:"body,omitempty"`
}

// New builds an envelope stamped with the current instant. The message fills
// both the operational and the customer-facing slots.
func New(body interface{}, message string, code int, requestRefID string) Envelope {
	return Envelope{
		Header: Header{
			RequestRefID:    requestRefID,
			ResponseCode:    code,
			ResponseMessage: message,
			CustomerMessage: message,
			Timestamp:       time.Now().Format(timestampLayout),
		},
		Body: body,
	}
}

// NewVoid builds a body-less envelope without a correlation id. Only the
// delete operation uses this variant.
func NewVoid(message string, code int) Envelope {
	return Envelope{
		Header: Header{
			ResponseCode:    code,
			ResponseMessage: message,
			CustomerMessage: message,
			Timestamp:       time.Now().Format(timestampLayout),
		},
	}
}

// NewBadRequest reports missing search criteria. The operational message and
// the customer message intentionally differ here, and no timestamp is set,
// matching the upstream contract for this one response.
func NewBadRequest(customerMessage, requestRefID string) Envelope {
	return Envelope{
		Header: Header{
			RequestRefID:    requestRefID,
			ResponseCode:    400,
			ResponseMessage: "Bad Request",
			CustomerMessage: customerMessage,
		},
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
