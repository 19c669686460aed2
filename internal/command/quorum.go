package command

// Quorum is the replication acknowledgment requirement of a command.
type Quorum int

// Available quorum types.
const (
	QuorumNone Quorum = iota
	QuorumOne
	QuorumMajority
	QuorumAll
)

// String implements the Stringer interface.
func (q Quorum) String() string {
	switch q {
	case QuorumNone:
		return "none"
	case QuorumOne:
		return "one"
	case QuorumMajority:
		return "majority"
	case QuorumAll:
		return "all"
	default:
		return "unknown quorum"
	}
}

// Required returns the number of acknowledgments needed out of the given
// number of replicas.
func (q Quorum) Required(replicas int) int {
	switch q {
	case QuorumNone:
		return 0
	case QuorumOne:
		if replicas == 0 {
			return 0
		}
		return 1
	case QuorumMajority:
		return replicas/2 + 1
	default:
		return replicas
	}
}
