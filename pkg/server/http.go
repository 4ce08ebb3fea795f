package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/patchwire/pkg/protocol"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"components": s.registry.Names()})
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	init, em := s.Mount(r.Context(), chi.URLParam(r, "name"))
	if em != nil {
		s.writeError(w, em)
		return
	}
	writeJSON(w, http.StatusCreated, init)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxMessageSize)
	req, err := DecodeUpdate(r.Body)
	if err != nil {
		s.writeError(w, protocol.NewError(protocol.ErrInvalidRequest, err.Error()))
		return
	}
	if name := chi.URLParam(r, "name"); req.Name != name {
		s.writeError(w, protocol.NewError(protocol.ErrInvalidRequest, "component name does not match route"))
		return
	}

	data, em := s.Update(r.Context(), req)
	if em != nil {
		s.writeError(w, em)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.logger.Error("discard failed", "id", chi.URLParam(r, "id"), "error", err)
		s.writeError(w, protocol.NewError(protocol.ErrServerError, "discard failed"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeError(w http.ResponseWriter, em *protocol.ErrorMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(em))
	_, _ = w.Write(protocol.ToErrorResponse(em))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
