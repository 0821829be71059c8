package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/vmihailenco/msgpack/v5"
)

// ISerializer is the interface for all snapshot serializers
type ISerializer interface {
	// Serialize encodes a snapshot tree
	Serialize(n *Node) ([]byte, error)
	// Deserialize decodes a snapshot tree into n
	Deserialize(b []byte, n *Node) error
}

// NewSerializer returns the serializer for the configured format
func NewSerializer(format common.SnapshotFormat) (ISerializer, error) {
	switch format {
	case common.SnapshotFormatJSON:
		return NewJSONSerializer(), nil
	case common.SnapshotFormatMsgpack:
		return NewMsgpackSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid snapshot format %s", format)
	}
}

// --------------------------------------------------------------------------
// JSON
// --------------------------------------------------------------------------

// NewJSONSerializer creates a new serializer using indented json encoding
func NewJSONSerializer() ISerializer {
	return &jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

func (j jsonSerializerImpl) Serialize(n *Node) ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}

func (j jsonSerializerImpl) Deserialize(b []byte, n *Node) error {
	return json.Unmarshal(b, n)
}

// --------------------------------------------------------------------------
// MessagePack
// --------------------------------------------------------------------------

// NewMsgpackSerializer creates a new serializer using msgpack encoding
func NewMsgpackSerializer() ISerializer {
	return &msgpackSerializerImpl{}
}

type msgpackSerializerImpl struct{}

func (m msgpackSerializerImpl) Serialize(n *Node) ([]byte, error) {
	return msgpack.Marshal(n)
}

func (m msgpackSerializerImpl) Deserialize(b []byte, n *Node) error {
	return msgpack.Unmarshal(b, n)
}
