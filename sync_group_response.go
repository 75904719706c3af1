package kwire

// SyncGroupResponse carries the coordinator's verdict on a SyncGroupRequest
// plus the serialized assignment belonging to the requesting member.
type SyncGroupResponse struct {
	Err              KError
	MemberAssignment []byte
}

// GetMemberAssignment deserializes the member's assignment.
func (r *SyncGroupResponse) GetMemberAssignment() (*ConsumerGroupMemberAssignment, error) {
	assignment := new(ConsumerGroupMemberAssignment)
	err := decode(r.MemberAssignment, assignment)
	return assignment, err
}

func (r *SyncGroupResponse) encode(pe packetEncoder) error {
	pe.putInt16(int16(r.Err))
	return pe.putBytes(r.MemberAssignment)
}

func (r *SyncGroupResponse) decode(pd packetDecoder) (err error) {
	kerr, err := pd.getInt16()
	if err != nil {
		return err
	}

	r.Err = KError(kerr)

	r.MemberAssignment, err = pd.getBytes()
	return err
}

func (r *SyncGroupResponse) key() int16 {
	return apiKeySyncGroup
}

func (r *SyncGroupResponse) version() int16 {
	return 0
}
