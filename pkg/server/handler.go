package server

import (
	"context"
	"errors"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/render"
)

// Mount creates an instance of the named component and renders it for the
// first time.
func (s *Server) Mount(ctx context.Context, name string) (*render.Initial, *protocol.ErrorMessage) {
	def, err := s.registry.Lookup(name)
	if err != nil {
		return nil, protocol.NewError(protocol.ErrComponentUnknown, err.Error())
	}
	init, err := s.renderer.RenderInitial(ctx, def.Mount())
	if err != nil {
		s.logger.Error("mount failed", "name", name, "error", err)
		return nil, protocol.NewError(protocol.ErrServerError, "render failed")
	}
	init.Name = name
	return init, nil
}

// Update runs one round trip: it verifies the client state, rehydrates a
// fresh instance from it, applies the writes and calls, and renders. It
// returns the encoded response.
//
// A state that fails verification is rejected with a fatal error before
// anything is restored.
func (s *Server) Update(ctx context.Context, req *UpdateRequest) ([]byte, *protocol.ErrorMessage) {
	def, err := s.registry.Lookup(req.Name)
	if err != nil {
		return nil, protocol.NewError(protocol.ErrComponentUnknown, err.Error())
	}

	if err := s.renderer.Signer().Check(req.State, req.ID, req.Signature); err != nil {
		s.metrics.RecordSignatureFailure()
		s.logger.Warn("rejected update",
			"id", req.ID,
			"name", req.Name,
			"error", err)
		return nil, protocol.NewFatalError(protocol.ErrInvalidSignature, "state signature mismatch")
	}

	c, err := def.Restore(req.ID, req.State)
	if err != nil {
		return nil, protocol.NewError(protocol.ErrValidation, err.Error())
	}
	if err := def.Apply(ctx, c, req.Updates, req.Calls); err != nil {
		return nil, applyError(err)
	}

	env, err := s.renderer.RenderUpdate(ctx, c)
	if err != nil {
		s.logger.Error("update failed", "id", req.ID, "name", req.Name, "error", err)
		return nil, protocol.NewError(protocol.ErrServerError, "render failed")
	}
	data, err := s.renderer.Respond(env)
	if err != nil {
		s.logger.Error("encode failed", "id", req.ID, "error", err)
		return nil, protocol.NewError(protocol.ErrServerError, "encode failed")
	}
	return data, nil
}

// Discard drops the snapshot of a component instance.
func (s *Server) Discard(ctx context.Context, id string) error {
	return s.renderer.Discard(ctx, id)
}

func applyError(err error) *protocol.ErrorMessage {
	switch {
	case component.IsRejectedWrite(err):
		return protocol.NewError(protocol.ErrFieldRejected, err.Error())
	case errors.Is(err, component.ErrNotSettable), errors.Is(err, component.ErrNotCallable):
		return protocol.NewError(protocol.ErrInvalidRequest, err.Error())
	default:
		return protocol.NewError(protocol.ErrCallFailed, err.Error())
	}
}
