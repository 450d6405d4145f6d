package catalog

// DeletePhase is a step in the two-step delete confirmation.
type DeletePhase int

const (
	DeleteIdle DeletePhase = iota
	DeleteConfirming
	DeleteExecuting
)

// DeleteFlow guards a destructive delete behind an explicit confirmation.
// Confirming is reachable only from idle; cancel and success return to idle.
type DeleteFlow struct {
	phase  DeletePhase
	target string
	err    string
}

// Phase returns the current step.
func (f DeleteFlow) Phase() DeletePhase { return f.phase }

// Target is the book id awaiting confirmation or deletion.
func (f DeleteFlow) Target() string { return f.target }

// Err is the last failure message shown in the dialog.
func (f DeleteFlow) Err() string { return f.err }

// Active reports whether the dialog is open.
func (f DeleteFlow) Active() bool { return f.phase != DeleteIdle }

// Request opens the dialog for id. It fails unless the flow is idle.
func (f *DeleteFlow) Request(id string) bool {
	if f.phase != DeleteIdle || id == "" {
		return false
	}
	f.phase = DeleteConfirming
	f.target = id
	f.err = ""
	return true
}

// Cancel closes the dialog without deleting.
func (f *DeleteFlow) Cancel() bool {
	if f.phase != DeleteConfirming {
		return false
	}
	*f = DeleteFlow{}
	return true
}

// Confirm starts the delete and returns the target id.
func (f *DeleteFlow) Confirm() (string, bool) {
	if f.phase != DeleteConfirming {
		return "", false
	}
	f.phase = DeleteExecuting
	f.err = ""
	return f.target, true
}

// Finish records the outcome. Success returns to idle; failure reopens the
// dialog on the same target with the message so the user can retry or cancel.
func (f *DeleteFlow) Finish(errMsg string) {
	if f.phase != DeleteExecuting {
		return
	}
	if errMsg == "" {
		*f = DeleteFlow{}
		return
	}
	f.phase = DeleteConfirming
	f.err = errMsg
}
