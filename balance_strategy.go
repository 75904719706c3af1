package kwire

import (
	"errors"
	"time"

	"github.com/eapache/go-resiliency/retrier"
)

// Cluster supplies topic metadata to assignment strategies. Partitions must
// return partition ids in a stable order for a given topic; an error wrapping
// ErrLeaderNotAvailable marks a transient condition worth retrying.
type Cluster interface {
	Partitions(topic string) ([]int32, error)
}

// GroupAssignment is the result of a BalanceStrategy.Assign attempt: the
// partition ownership of every member id in the generation. Every member
// passed to Assign has an entry covering every subscribed topic, even when a
// topic yields it no partitions.
type GroupAssignment map[string]*ConsumerGroupMemberAssignment

// BalanceStrategy is used to balance topics and partitions across the members
// of a consumer group.
type BalanceStrategy interface {
	// Name uniquely identifies the strategy.
	Name() string

	// Assign computes the partition ownership for one rebalance generation
	// from the member ids in leader-supplied order, the subscribed topics and
	// the cluster's metadata.
	Assign(members []string, topics []string, cluster Cluster) (GroupAssignment, error)
}

const (
	defaultAssignBackoff  = 1 * time.Second
	defaultAssignAttempts = 60
)

// RoundRobinAssignor spreads each topic's partitions over the members by
// `partition mod member count`: bucket i goes to member i in supplied order.
// Per topic the coverage is disjoint and exhaustive; because buckets are
// recomputed per topic there is no cross-topic load smoothing, matching the
// classic client-side round-robin assignor rather than a single global cursor.
type RoundRobinAssignor struct {
	// Retrier drives the restart policy when the cluster reports leader
	// unavailability mid-computation: the whole plan is recomputed from
	// scratch after each backoff. When nil, a constant ~1s backoff with a
	// bounded number of attempts is used; callers needing different latency
	// bounds inject their own.
	Retrier *retrier.Retrier
}

// NewRoundRobinAssignor returns an assignor with the default retry policy.
func NewRoundRobinAssignor() *RoundRobinAssignor {
	return &RoundRobinAssignor{
		Retrier: retrier.New(retrier.ConstantBackoff(defaultAssignAttempts, defaultAssignBackoff), leaderClassifier{}),
	}
}

// Name implements BalanceStrategy.
func (*RoundRobinAssignor) Name() string { return "roundrobin" }

// Assign implements BalanceStrategy.
func (a *RoundRobinAssignor) Assign(members []string, topics []string, cluster Cluster) (GroupAssignment, error) {
	r := a.Retrier
	if r == nil {
		r = retrier.New(retrier.ConstantBackoff(defaultAssignAttempts, defaultAssignBackoff), leaderClassifier{})
	}

	var plan GroupAssignment
	err := r.Run(func() error {
		var err error
		plan, err = assignRoundRobin(members, topics, cluster)
		return err
	})
	if err != nil {
		return nil, err
	}

	return plan, nil
}

// assignRoundRobin computes one whole plan. The caller restarts it from
// scratch on transient metadata failures, so partial results never leak out.
func assignRoundRobin(members []string, topics []string, cluster Cluster) (GroupAssignment, error) {
	if len(members) == 0 {
		return nil, ConfigurationError("no members to assign partitions to")
	}

	plan := make(GroupAssignment, len(members))
	for _, memberID := range members {
		plan[memberID] = &ConsumerGroupMemberAssignment{
			Topics: make(map[string][]int32, len(topics)),
		}
	}

	for _, topic := range topics {
		partitions, err := cluster.Partitions(topic)
		if err != nil {
			return nil, err
		}

		buckets := make([][]int32, len(members))
		for _, partition := range partitions {
			i := int(partition) % len(members)
			if i < 0 {
				i += len(members)
			}
			buckets[i] = append(buckets[i], partition)
		}

		for i, memberID := range members {
			plan[memberID].Topics[topic] = buckets[i]
		}
	}

	return plan, nil
}

// leaderClassifier retries only the transient leader-unavailable condition;
// everything else fails the computation immediately.
type leaderClassifier struct{}

func (leaderClassifier) Classify(err error) retrier.Action {
	switch {
	case err == nil:
		return retrier.Succeed
	case errors.Is(err, ErrLeaderNotAvailable):
		return retrier.Retry
	default:
		return retrier.Fail
	}
}
