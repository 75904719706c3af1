package kwire

// SyncGroupRequest concludes a rebalance: the group leader ships the computed
// assignment of every member to the coordinator, and each member receives its
// own slice back in the response.
type SyncGroupRequest struct {
	GroupID          string
	GenerationID     int32
	MemberID         string
	GroupAssignments map[string][]byte
}

func (r *SyncGroupRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.GroupID); err != nil {
		return err
	}

	pe.putInt32(r.GenerationID)

	if err := pe.putString(r.MemberID); err != nil {
		return err
	}

	if err := pe.putArrayLength(len(r.GroupAssignments)); err != nil {
		return err
	}
	for memberID, memberAssignment := range r.GroupAssignments {
		if err := pe.putString(memberID); err != nil {
			return err
		}
		if err := pe.putBytes(memberAssignment); err != nil {
			return err
		}
	}

	return nil
}

func (r *SyncGroupRequest) decode(pd packetDecoder) (err error) {
	if r.GroupID, err = pd.getString(); err != nil {
		return
	}
	if r.GenerationID, err = pd.getInt32(); err != nil {
		return
	}
	if r.MemberID, err = pd.getString(); err != nil {
		return
	}

	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	r.GroupAssignments = make(map[string][]byte)
	for i := 0; i < n; i++ {
		memberID, err := pd.getString()
		if err != nil {
			return err
		}
		memberAssignment, err := pd.getBytes()
		if err != nil {
			return err
		}

		r.GroupAssignments[memberID] = memberAssignment
	}

	return nil
}

func (r *SyncGroupRequest) key() int16 {
	return apiKeySyncGroup
}

func (r *SyncGroupRequest) version() int16 {
	return 0
}

// AddGroupAssignment attaches the raw assignment bytes of one member.
func (r *SyncGroupRequest) AddGroupAssignment(memberID string, memberAssignment []byte) {
	if r.GroupAssignments == nil {
		r.GroupAssignments = make(map[string][]byte)
	}

	r.GroupAssignments[memberID] = memberAssignment
}

// AddGroupAssignmentMember serializes and attaches the assignment of one
// member, as computed by a BalanceStrategy.
func (r *SyncGroupRequest) AddGroupAssignmentMember(memberID string, memberAssignment *ConsumerGroupMemberAssignment) error {
	bin, err := encode(memberAssignment, nil)
	if err != nil {
		return err
	}

	r.AddGroupAssignment(memberID, bin)
	return nil
}
