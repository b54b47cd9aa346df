package models

type ProcessingState string

const (
	StateIdle           ProcessingState = "idle"
	StateRecording      ProcessingState = "recording"
	StateTranscribing   ProcessingState = "transcribing"
	StatePostProcessing ProcessingState = "post-processing"
	StateDone           ProcessingState = "done"
	StateErrored        ProcessingState = "errored"
)

// CanStartRecording gates the start control: no new recording while a
// previous cycle is in flight.
func (s ProcessingState) CanStartRecording() bool {
	switch s {
	case StateIdle, StateDone, StateErrored:
		return true
	}
	return false
}

func (s ProcessingState) Busy() bool {
	return s == StateTranscribing || s == StatePostProcessing
}
