package middleware

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const refIDHeader = "requestRefId"

// RequestRef echoes the caller's correlation id onto the response headers and
// logs requests that arrive without one. The envelope-level echo happens in
// the service; this only covers the HTTP header surface.
func RequestRef(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			refID := string(ctx.Request.Header.Peek(refIDHeader))
			if refID == "" {
				logger.Debug("request without correlation id",
					zap.String("path", string(ctx.Path())))
			} else {
				ctx.Response.Header.Set(refIDHeader, refID)
			}
			next(ctx)
		}
	}
}
