// Package drawing defines the drawing commands relayed from the drawer to the
// rest of the room and the compact wire form they are kept in inside the
// per-round stroke log.
package drawing

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Kind string

const (
	KindStart     Kind = "start"
	KindDraw      Kind = "draw"
	KindEnd       Kind = "end"
	KindClear     Kind = "clear"
	KindColor     Kind = "color"
	KindBrushSize Kind = "brushSize"
	KindSnapshot  Kind = "snapshot"
)

var ErrUnknownKind = errors.New("unknown-command-kind")
var ErrMalformedCommand = errors.New("malformed-command")

func (k Kind) Valid() bool {
	switch k {
	case KindStart, KindDraw, KindEnd, KindClear, KindColor, KindBrushSize, KindSnapshot:
		return true
	}
	return false
}

// Command is one opaque drawing instruction. Data is whatever the canvas on
// the client side produced (points, a color string, a size...).
type Command struct {
	Kind      Kind
	Data      *structpb.Value
	Timestamp int64
}

// wire field numbers
const (
	fieldKind      protowire.Number = 1
	fieldData      protowire.Number = 2
	fieldTimestamp protowire.Number = 3
)

// MarshalBinary encodes the command as a protobuf message without a generated
// type: kind (1, string), data (2, google.protobuf.Value), timestamp (3, varint).
func (c Command) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 64)
	b = protowire.AppendTag(b, fieldKind, protowire.BytesType)
	b = protowire.AppendString(b, string(c.Kind))

	if c.Data != nil {
		if !complete(c.Data) {
			return nil, ErrMalformedCommand
		}
		data, err := proto.Marshal(c.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedCommand, err)
		}
		b = protowire.AppendTag(b, fieldData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}

	if c.Timestamp != 0 {
		b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.Timestamp))
	}
	return b, nil
}

// UnmarshalBinary is the inverse of MarshalBinary. Unknown fields are skipped.
func (c *Command) UnmarshalBinary(b []byte) error {
	*c = Command{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedCommand, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldKind && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedCommand, protowire.ParseError(n))
			}
			c.Kind = Kind(v)
			b = b[n:]
		case num == fieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedCommand, protowire.ParseError(n))
			}
			c.Data = &structpb.Value{}
			if err := proto.Unmarshal(v, c.Data); err != nil {
				return fmt.Errorf("%w: %w", ErrMalformedCommand, err)
			}
			b = b[n:]
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedCommand, protowire.ParseError(n))
			}
			c.Timestamp = int64(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %w", ErrMalformedCommand, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if !c.Kind.Valid() {
		return ErrUnknownKind
	}
	if c.Data != nil && !complete(c.Data) {
		return ErrMalformedCommand
	}
	return nil
}

// complete reports whether every value in the tree has its kind set. A value
// without one cannot be rendered as JSON.
func complete(v *structpb.Value) bool {
	switch k := v.GetKind().(type) {
	case nil:
		return false
	case *structpb.Value_ListValue:
		for _, item := range k.ListValue.GetValues() {
			if !complete(item) {
				return false
			}
		}
	case *structpb.Value_StructValue:
		for _, field := range k.StructValue.GetFields() {
			if !complete(field) {
				return false
			}
		}
	}
	return true
}

type jsonCommand struct {
	Type      Kind            `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func (c Command) MarshalJSON() ([]byte, error) {
	jc := jsonCommand{Type: c.Kind, Timestamp: c.Timestamp}
	if c.Data != nil {
		data, err := protojson.Marshal(c.Data)
		if err != nil {
			return nil, err
		}
		jc.Data = data
	}
	return json.Marshal(jc)
}

func (c *Command) UnmarshalJSON(b []byte) error {
	var jc jsonCommand
	if err := json.Unmarshal(b, &jc); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedCommand, err)
	}
	if !jc.Type.Valid() {
		return ErrUnknownKind
	}

	*c = Command{Kind: jc.Type, Timestamp: jc.Timestamp}
	if len(jc.Data) > 0 && string(jc.Data) != "null" {
		c.Data = &structpb.Value{}
		if err := protojson.Unmarshal(jc.Data, c.Data); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedCommand, err)
		}
		if !complete(c.Data) {
			return ErrMalformedCommand
		}
	}
	return nil
}

// DecodeAll turns a stroke log back into commands, skipping entries that no
// longer decode or would not render.
func DecodeAll(entries [][]byte) []Command {
	cmds := make([]Command, 0, len(entries))
	for _, e := range entries {
		var c Command
		if err := c.UnmarshalBinary(e); err != nil {
			continue
		}
		cmds = append(cmds, c)
	}
	return cmds
}
