package kwire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Api keys of the protocol bodies this package implements.
const (
	apiKeyMetadata    int16 = 3
	apiKeyOffsetFetch int16 = 9
	apiKeySyncGroup   int16 = 14
)

// protocolBody is the capability set every request type carries: its api key
// and version plus the ability to write itself with Kafka's encoding rules.
// The response type a body pairs with is declared by the typed Broker method
// that sends it.
type protocolBody interface {
	encoder
	decoder
	key() int16
	version() int16
}

// request is the envelope framing a protocolBody for the wire: length prefix,
// api key, api version, correlation id, client id, then the body.
type request struct {
	correlationID int32
	clientID      string
	body          protocolBody
}

func (r *request) encode(pe packetEncoder) error {
	pe.push(&lengthField{})
	pe.putInt16(r.body.key())
	pe.putInt16(r.body.version())
	pe.putInt32(r.correlationID)

	err := pe.putString(r.clientID)
	if err != nil {
		return err
	}

	err = r.body.encode(pe)
	if err != nil {
		return err
	}

	return pe.pop()
}

func (r *request) decode(pd packetDecoder) (err error) {
	key, err := pd.getInt16()
	if err != nil {
		return err
	}

	version, err := pd.getInt16()
	if err != nil {
		return err
	}

	r.correlationID, err = pd.getInt32()
	if err != nil {
		return err
	}

	r.clientID, err = pd.getString()
	if err != nil {
		return err
	}

	r.body = allocateBody(key, version)
	if r.body == nil {
		return PacketDecodingError{fmt.Sprintf("unknown request key (%d)", key)}
	}

	return r.body.decode(pd)
}

// decodeRequest reads one length-prefixed request frame off r. It exists for
// the benefit of server-side harnesses like MockBroker.
func decodeRequest(r io.Reader) (*request, int, error) {
	var (
		bytesRead   int
		lengthBytes = make([]byte, 4)
	)

	if _, err := io.ReadFull(r, lengthBytes); err != nil {
		return nil, bytesRead, err
	}

	bytesRead += len(lengthBytes)
	length := int32(binary.BigEndian.Uint32(lengthBytes))

	if length <= 4 || length > MaxRequestSize {
		return nil, bytesRead, PacketDecodingError{fmt.Sprintf("message of length %d too large or too small", length)}
	}

	encodedReq := make([]byte, length)
	if _, err := io.ReadFull(r, encodedReq); err != nil {
		return nil, bytesRead, err
	}

	bytesRead += len(encodedReq)

	req := &request{}
	if err := decode(encodedReq, req); err != nil {
		return nil, bytesRead, err
	}

	return req, bytesRead, nil
}

func allocateBody(key, version int16) protocolBody {
	switch key {
	case apiKeyMetadata:
		return &MetadataRequest{}
	case apiKeyOffsetFetch:
		return &OffsetFetchRequest{}
	case apiKeySyncGroup:
		return &SyncGroupRequest{}
	}
	return nil
}
