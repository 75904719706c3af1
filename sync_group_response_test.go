package kwire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	syncGroupResponseNoError = []byte{
		0x00, 0x00, // No error
		0, 0, 0, 3, 0x01, 0x02, 0x03, // Member assignment data
	}

	syncGroupResponseWithError = []byte{
		0, 27, // ErrRebalanceInProgress
		0, 0, 0, 0, // No member assignment data
	}
)

func TestSyncGroupResponse(t *testing.T) {
	var response *SyncGroupResponse

	response = new(SyncGroupResponse)
	testDecodable(t, "no error", response, syncGroupResponseNoError)
	if response.Err != ErrNoError {
		t.Error("Decoding Err failed: no error expected but found", response.Err)
	}
	if !bytes.Equal(response.MemberAssignment, []byte{0x01, 0x02, 0x03}) {
		t.Error("Decoding MemberAssignment failed, found:", response.MemberAssignment)
	}

	response = new(SyncGroupResponse)
	testDecodable(t, "with error", response, syncGroupResponseWithError)
	if response.Err != ErrRebalanceInProgress {
		t.Error("Decoding Err failed: ErrRebalanceInProgress expected but found", response.Err)
	}
	if !bytes.Equal(response.MemberAssignment, []byte{}) {
		t.Error("Decoding MemberAssignment failed, found:", response.MemberAssignment)
	}
}

func TestSyncGroupResponseGetMemberAssignment(t *testing.T) {
	assignment := &ConsumerGroupMemberAssignment{
		Topics: map[string][]int32{"payments": {1, 3}},
	}
	bin, err := encode(assignment, nil)
	require.NoError(t, err)

	response := &SyncGroupResponse{MemberAssignment: bin}
	decoded, err := response.GetMemberAssignment()
	require.NoError(t, err)
	require.Equal(t, assignment.Topics, decoded.Topics)
}

func TestSyncGroupResponseEncoding(t *testing.T) {
	response := &SyncGroupResponse{MemberAssignment: []byte{0x01, 0x02, 0x03}}
	testEncodable(t, "no error", response, syncGroupResponseNoError)
}
