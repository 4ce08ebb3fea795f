package server

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vango-dev/patchwire/pkg/component"
)

// UpdateRequest is a client round trip: the signed state it last received,
// the field writes and method calls to apply, and the instance to apply
// them to.
type UpdateRequest struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	State     map[string]any   `json:"state"`
	Signature string           `json:"signature"`
	Updates   map[string]any   `json:"updates,omitempty"`
	Calls     []component.Call `json:"calls,omitempty"`
}

// DecodeUpdate reads an update request. Numbers are kept as json.Number so
// the state verifies against the signature byte for byte.
func DecodeUpdate(r io.Reader) (*UpdateRequest, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var req UpdateRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (req *UpdateRequest) validate() error {
	switch {
	case req.ID == "":
		return fmt.Errorf("%w: id is required", ErrBadRequest)
	case req.Name == "":
		return fmt.Errorf("%w: name is required", ErrBadRequest)
	case req.Signature == "":
		return fmt.Errorf("%w: signature is required", ErrBadRequest)
	}
	for i, c := range req.Calls {
		if c.Method == "" {
			return fmt.Errorf("%w: call %d has no method", ErrBadRequest, i)
		}
	}
	return nil
}
