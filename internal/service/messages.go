package service

// Msg is a control command for the worker. Commands are handled between
// ticks or at lock-in timer steps, never during a decision.
type Msg interface{ isAutopilotMsg() }

type SetPick struct {
	Champion string
	Reply    chan SetResult
}

func (SetPick) isAutopilotMsg() {}

type SetBan struct {
	Champion string
	Reply    chan SetResult
}

func (SetBan) isAutopilotMsg() {}

type SetLoadoutPreference struct {
	Enabled bool
	Reply   chan error
}

func (SetLoadoutPreference) isAutopilotMsg() {}

type SendLoadout struct {
	Reply chan error
}

func (SendLoadout) isAutopilotMsg() {}

// SetResult reports how a requested champion fared against the current
// session. The request is kept even when Valid is false.
type SetResult struct {
	Champion string
	Valid    bool
	Reason   string
	Err      error
}
