package launch

// Stage is the saga's position in the deployment sequence.
type Stage string

const (
	StageNotStarted Stage = "not-started"
	StagePreparing  Stage = "preparing"
	StageDeploying  Stage = "deploying"
	StageConfirming Stage = "confirming"
	StageVerifying  Stage = "verifying"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// stageRank defines the total order of normal progression. Failed ranks
// above every non-terminal stage because it is reachable from any of
// them; within one attempt the observed rank never decreases.
var stageRank = map[Stage]int{
	StageNotStarted: 0,
	StagePreparing:  1,
	StageDeploying:  2,
	StageConfirming: 3,
	StageVerifying:  4,
	StageCompleted:  5,
	StageFailed:     6,
}

// Terminal reports whether no further automatic transition can happen.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

var stageMessages = map[Stage]string{
	StagePreparing:  "Creating token record",
	StageDeploying:  "Submitting deployment transaction",
	StageConfirming: "Waiting for network confirmation",
	StageVerifying:  "Recording contract address",
	StageCompleted:  "Token deployed",
}

// Status is the human-readable projection of the saga state consumed by
// the progress UI, by polling or over the stream endpoint.
type Status struct {
	Stage     Stage  `json:"stage"`
	Message   string `json:"message,omitempty"`
	TxHash    string `json:"txHash,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind Kind   `json:"errorKind,omitempty"`
}

// project maps internal saga state to its UI-facing status. Pure; the
// orchestrator recomputes it on every transition.
func project(stage Stage, txHash string, err *Error) Status {
	st := Status{
		Stage:   stage,
		Message: stageMessages[stage],
		TxHash:  txHash,
	}
	if stage == StageFailed && err != nil {
		st.Message = "Deployment failed"
		st.Error = err.Message
		st.ErrorKind = err.Kind
	}
	return st
}
