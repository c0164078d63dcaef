package handler

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"usersvc/api/transport"
	"usersvc/domain"
	"usersvc/pkg/httpcontext"
	usersUC "usersvc/usecase/users"
)

type UserHandler struct {
	baseHandler
	uc       *usersUC.UseCase
	validate *validator.Validate
}

func NewUserHandler(uc *usersUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		validate:    validator.New(),
	}
}

// @Summary List active users
// @Tags users
// @Success 200 {array} transport.Envelope
// @Router /api/v1/users/all [get]
func (h *UserHandler) GetAllUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stream := h.uc.ListActive(stdCtx, h.refID(ctx))
	defer stream.Close()
	h.respondEnvelopes(ctx, drainStream(stdCtx, stream))
}

// @Summary List soft-deleted users
// @Tags users
// @Success 200 {array} transport.Envelope
// @Router /api/v1/users/deleted [get]
func (h *UserHandler) GetDeletedUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stream := h.uc.ListDeleted(stdCtx, h.refID(ctx))
	defer stream.Close()
	h.respondEnvelopes(ctx, drainStream(stdCtx, stream))
}

// @Summary Search for a user by id, msisdn or document number
// @Tags users
// @Accept json
// @Success 200 {object} transport.Envelope
// @Router /api/v1/users/search [post]
func (h *UserHandler) SearchUser(ctx *fasthttp.RequestCtx) {
	var req transport.SearchRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.rejectRequest(ctx, "invalid request body")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondEnvelope(ctx, h.uc.Search(stdCtx, req, h.refID(ctx)))
}

// @Summary Create a user
// @Tags users
// @Accept json
// @Success 201 {object} transport.Envelope
// @Router /api/v1/users/create [post]
func (h *UserHandler) CreateUser(ctx *fasthttp.RequestCtx) {
	user, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondEnvelope(ctx, h.uc.Create(stdCtx, user, h.refID(ctx)))
}

// @Summary Update a user's name and email
// @Tags users
// @Accept json
// @Success 200 {object} transport.Envelope
// @Router /api/v1/users/update [put]
func (h *UserHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	id, ok := h.parseID(ctx)
	if !ok {
		return
	}
	user, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondEnvelope(ctx, h.uc.Update(stdCtx, id, user, h.refID(ctx)))
}

// @Summary Soft-delete a user
// @Tags users
// @Success 200 {object} transport.Envelope
// @Router /api/v1/users/delete [delete]
func (h *UserHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	id, ok := h.parseID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondEnvelope(ctx, h.uc.Delete(stdCtx, id, h.refID(ctx)))
}

// @Summary Restore a soft-deleted user
// @Tags users
// @Success 200 {object} transport.Envelope
// @Router /api/v1/users/restore [put]
func (h *UserHandler) RestoreUser(ctx *fasthttp.RequestCtx) {
	id, ok := h.parseID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondEnvelope(ctx, h.uc.Restore(stdCtx, id, h.refID(ctx)))
}

func (h *UserHandler) parseID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw := string(ctx.QueryArgs().Peek("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.rejectRequest(ctx, "invalid or missing id parameter")
		return 0, false
	}
	return id, true
}

func (h *UserHandler) parseUser(ctx *fasthttp.RequestCtx) (*domain.User, bool) {
	var req transport.UserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.rejectRequest(ctx, "invalid request body")
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.rejectRequest(ctx, err.Error())
		return nil, false
	}
	return &domain.User{
		Name:           req.Name,
		Email:          req.Email,
		Msisdn:         req.Msisdn,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
	}, true
}

// drainStream materializes a lazy envelope stream for array serialization.
// The stream itself stays pull-based; the handler is its terminal consumer.
func drainStream(ctx context.Context, stream *usersUC.ResponseStream) []transport.Envelope {
	var envs []transport.Envelope
	for {
		env, ok := stream.Next(ctx)
		if !ok {
			return envs
		}
		envs = append(envs, env)
	}
}
