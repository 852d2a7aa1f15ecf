package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"phone-otp-auth/internal/telemetry/domain"
)

// Serializer formats accepted by NewSerializer.
const (
	FormatJSON     = "json"
	FormatProtobuf = "protobuf"
)

// ErrUnknownFormat is returned for a serializer format other than json or protobuf.
var ErrUnknownFormat = errors.New("telemetry: unknown serializer format")

// Serializer turns events into bytes and back.
type Serializer interface {
	Format() string
	Marshal(event *domain.Event) ([]byte, error)
	Unmarshal(data []byte) (*domain.Event, error)
}

// NewSerializer returns the serializer for format. Empty means json.
func NewSerializer(format string) (Serializer, error) {
	switch format {
	case "", FormatJSON:
		return JSONSerializer{}, nil
	case FormatProtobuf:
		return ProtobufSerializer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode unmarshals data with the serializer named by format, or sniffs the
// format when it is empty: a JSON object starts with '{', a logevent message
// never does.
func Decode(format string, data []byte) (*domain.Event, error) {
	if format == "" {
		format = FormatProtobuf
		for _, b := range data {
			if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
				continue
			}
			if b == '{' {
				format = FormatJSON
			}
			break
		}
	}
	s, err := NewSerializer(format)
	if err != nil {
		return nil, err
	}
	return s.Unmarshal(data)
}

// JSONSerializer encodes events as a flat JSON object.
type JSONSerializer struct{}

func (JSONSerializer) Format() string { return FormatJSON }

func (JSONSerializer) Marshal(event *domain.Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("telemetry: nil event")
	}
	e := *event
	e.SerializerFormat = FormatJSON
	return json.Marshal(&e)
}

func (JSONSerializer) Unmarshal(data []byte) (*domain.Event, error) {
	var e domain.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("telemetry: decode json event: %w", err)
	}
	return &e, nil
}

// Field numbers of the logevent message.
const (
	fieldName             protowire.Number = 1
	fieldTimestamp        protowire.Number = 2
	fieldSource           protowire.Number = 3
	fieldSerializerFormat protowire.Number = 4
	fieldMessage          protowire.Number = 5
	fieldLevel            protowire.Number = 6
)

// ProtobufSerializer encodes events in the protobuf wire format of
//
//	message logevent {
//	  string name = 1; string timestamp = 2; string source = 3;
//	  string serializer_format = 4; string message = 5; string level = 6;
//	}
type ProtobufSerializer struct{}

func (ProtobufSerializer) Format() string { return FormatProtobuf }

func (ProtobufSerializer) Marshal(event *domain.Event) ([]byte, error) {
	if event == nil {
		return nil, errors.New("telemetry: nil event")
	}
	var b []byte
	b = appendString(b, fieldName, event.Name)
	b = appendString(b, fieldTimestamp, event.Timestamp)
	b = appendString(b, fieldSource, event.Source)
	b = appendString(b, fieldSerializerFormat, FormatProtobuf)
	b = appendString(b, fieldMessage, event.Message)
	b = appendString(b, fieldLevel, event.Level)
	return b, nil
}

// appendString follows proto3 semantics: empty strings are omitted.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func (ProtobufSerializer) Unmarshal(data []byte) (*domain.Event, error) {
	var e domain.Event
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("telemetry: decode protobuf event: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("telemetry: decode protobuf event: %w", protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		v, n := protowire.ConsumeString(data)
		if n < 0 {
			return nil, fmt.Errorf("telemetry: decode protobuf event: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldName:
			e.Name = v
		case fieldTimestamp:
			e.Timestamp = v
		case fieldSource:
			e.Source = v
		case fieldSerializerFormat:
			e.SerializerFormat = v
		case fieldMessage:
			e.Message = v
		case fieldLevel:
			e.Level = v
		}
	}
	return &e, nil
}
