package handler

import (
	"context"
	"encoding/json"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"usersvc/api/transport"
	"usersvc/pkg/httpcontext"
)

// refIDHeader carries the caller-supplied correlation id echoed in envelopes.
const refIDHeader = "requestRefId"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) refID(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Peek(refIDHeader))
}

// respondEnvelope writes a single envelope; the HTTP status mirrors the
// envelope's response code.
func (h baseHandler) respondEnvelope(ctx *fasthttp.RequestCtx, env transport.Envelope) {
	h.writeJSON(ctx, env.Header.ResponseCode, env)
}

// respondEnvelopes writes a JSON array of envelopes with HTTP 200; each
// element carries its own response code.
func (h baseHandler) respondEnvelopes(ctx *fasthttp.RequestCtx, envs []transport.Envelope) {
	if envs == nil {
		envs = []transport.Envelope{}
	}
	h.writeJSON(ctx, fasthttp.StatusOK, envs)
}

func (h baseHandler) writeJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

// rejectRequest handles malformed input before the service layer is reached.
func (h baseHandler) rejectRequest(ctx *fasthttp.RequestCtx, reason string) {
	ctx.Error(reason, fasthttp.StatusBadRequest)
}
