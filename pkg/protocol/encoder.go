package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Mode selects the key set a patch is written and read with.
type Mode uint8

const (
	// ModeFull uses descriptive keys: type, path, data.
	ModeFull Mode = iota
	// ModeMinified uses short keys: t, p, d, with type codes.
	ModeMinified
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeMinified:
		return "minified"
	default:
		return "unknown"
	}
}

// ParseMode maps "full"/"minified" (or "min") to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "full", "":
		return ModeFull, true
	case "minified", "min":
		return ModeMinified, true
	default:
		return 0, false
	}
}

// Encoder writes patches, envelopes and responses as JSON.
//
// Output is byte-for-byte reproducible: object keys are written in a fixed
// order, attribute maps keep their tree order, state maps are sorted, and
// HTML characters are not escaped.
type Encoder struct {
	mode Mode
}

// NewEncoder creates an Encoder for the given mode.
func NewEncoder(mode Mode) *Encoder {
	return &Encoder{mode: mode}
}

// Mode returns the encoder's mode.
func (e *Encoder) Mode() Mode {
	return e.mode
}

// object writes a JSON object with keys in call order.
type object struct {
	buf *bytes.Buffer
	n   int
}

func beginObject(buf *bytes.Buffer) *object {
	buf.WriteByte('{')
	return &object{buf: buf}
}

func (o *object) key(k string) {
	if o.n > 0 {
		o.buf.WriteByte(',')
	}
	o.n++
	writeString(o.buf, k)
	o.buf.WriteByte(':')
}

func (o *object) end() {
	o.buf.WriteByte('}')
}

// field writes key and v marshalled as JSON.
func (o *object) field(k string, v any) error {
	o.key(k)
	return writeValue(o.buf, v)
}

func writeString(buf *bytes.Buffer, s string) {
	// Marshalling a string cannot fail.
	_ = writeValue(buf, s)
}

// writeValue marshals v without HTML escaping and without the trailing
// newline json.Encoder adds.
func writeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func writeInts(buf *bytes.Buffer, ints []int) {
	buf.WriteByte('[')
	for i, n := range ints {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(n))
	}
	buf.WriteByte(']')
}

func writeStrings(buf *bytes.Buffer, ss []string) {
	buf.WriteByte('[')
	for i, s := range ss {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, s)
	}
	buf.WriteByte(']')
}

// Marshal encodes v the same way the Encoder encodes values it embeds.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
