package kwire

// MetadataRequest asks a broker for the cluster's view of the given topics, or
// of every topic when Topics is empty.
type MetadataRequest struct {
	Topics []string
}

func (r *MetadataRequest) encode(pe packetEncoder) error {
	err := pe.putArrayLength(len(r.Topics))
	if err != nil {
		return err
	}

	for i := range r.Topics {
		err = pe.putString(r.Topics[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *MetadataRequest) decode(pd packetDecoder) error {
	size, err := pd.getArrayLength()
	if err != nil {
		return err
	}

	if size > 0 {
		r.Topics = make([]string, size)
		for i := range r.Topics {
			topic, err := pd.getString()
			if err != nil {
				return err
			}
			r.Topics[i] = topic
		}
	}
	return nil
}

func (r *MetadataRequest) key() int16 {
	return apiKeyMetadata
}

func (r *MetadataRequest) version() int16 {
	return 0
}
