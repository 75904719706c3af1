package kwire

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// not specific to request tests, just helper functions for testing structures that
// implement the encoder or decoder interfaces that needed somewhere to live

func testEncodable(t *testing.T, name string, in encoder, expect []byte) {
	t.Helper()
	packet, err := encode(in, nil)
	if err != nil {
		t.Error(err)
	} else if !bytes.Equal(packet, expect) {
		t.Error("Encoding", name, "failed\ngot ", packet, "\nwant", expect)
	}
}

func testDecodable(t *testing.T, name string, out decoder, in []byte) {
	t.Helper()
	err := decode(in, out)
	if err != nil {
		t.Error("Decoding", name, "failed:", err)
	}
}

func testRequest(t *testing.T, name string, rb protocolBody, expected []byte) {
	t.Helper()
	// Encoder request
	req := &request{correlationID: 123, clientID: "foo", body: rb}
	packet, err := encode(req, nil)
	headerSize := 14 + len("foo")
	if err != nil {
		t.Error(err)
	} else if !bytes.Equal(packet[headerSize:], expected) {
		t.Error("Encoding", name, "failed\ngot ", packet[headerSize:], "\nwant", expected)
	}
	// Decoder request
	decoded, n, err := decodeRequest(bytes.NewReader(packet))
	if err != nil {
		t.Error("Failed to decode request", err)
	} else if decoded.correlationID != 123 || decoded.clientID != "foo" {
		t.Errorf("Decoded header %q is not valid: %+v", name, decoded)
	} else if !reflect.DeepEqual(rb, decoded.body) {
		t.Error(spew.Sprintf("Decoded request %q does not match the encoded one\nencoded: %+v\ndecoded: %+v", name, rb, decoded.body))
	}
	if n != len(packet) {
		t.Errorf("Decoded request %q bytes: %d does not match the encoded one: %d\n", name, n, len(packet))
	}
}

func TestRequestDecodingTooShort(t *testing.T) {
	// a length prefix claiming 4 or fewer bytes is not a frame
	_, _, err := decodeRequest(bytes.NewReader([]byte{0, 0, 0, 2, 0, 0}))
	require.Error(t, err)
	target := PacketDecodingError{}
	require.ErrorAs(t, err, &target)
}

func TestRequestDecodingUnknownKey(t *testing.T) {
	// api key 99 has no registered body
	frame := []byte{
		0, 0, 0, 10, // length
		0, 99, // api key
		0, 0, // api version
		0, 0, 0, 1, // correlation id
		0, 0, // client id
	}
	_, _, err := decodeRequest(bytes.NewReader(frame))
	require.Error(t, err)
	target := PacketDecodingError{}
	require.ErrorAs(t, err, &target)
}

func TestRequestHeaderLayout(t *testing.T) {
	req := &request{correlationID: 0x01020304, clientID: "ab", body: &MetadataRequest{}}
	packet, err := encode(req, nil)
	require.NoError(t, err)
	expected := []byte{
		0, 0, 0, 16, // length of everything that follows
		0, 3, // api key
		0, 0, // api version
		0x01, 0x02, 0x03, 0x04, // correlation id
		0, 2, 'a', 'b', // client id
		0, 0, 0, 0, // empty topic array
	}
	require.Equal(t, expected, packet)
}
