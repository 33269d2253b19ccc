package relay

import "sync"

// TurnState is the shared turn-taking state mutated by both relay loops.
// It is the minimal state needed to decide when to cancel an in-flight
// response: whether the agent is currently speaking, and which telephony
// stream outbound media must be addressed to.
type TurnState struct {
	mu            sync.Mutex
	streamSID     string
	agentSpeaking bool
}

// NewTurnState creates the turn state for one relay session
func NewTurnState() *TurnState {
	return &TurnState{}
}

// SetStreamSID records the stream identifier assigned by the telephony side
func (t *TurnState) SetStreamSID(sid string) {
	t.mu.Lock()
	t.streamSID = sid
	t.mu.Unlock()
}

// StreamSID returns the recorded stream identifier, or "" before the stream
// has started.
func (t *TurnState) StreamSID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streamSID
}

// BeginSpeaking marks the agent as mid-response. Called on every audio
// delta; setting an already-set flag is a no-op.
func (t *TurnState) BeginSpeaking() {
	t.mu.Lock()
	t.agentSpeaking = true
	t.mu.Unlock()
}

// EndSpeaking marks the response as finished or canceled
func (t *TurnState) EndSpeaking() {
	t.mu.Lock()
	t.agentSpeaking = false
	t.mu.Unlock()
}

// AgentSpeaking reports whether a model response is in flight
func (t *TurnState) AgentSpeaking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.agentSpeaking
}

// InterruptIfSpeaking clears the speaking flag and reports whether it was
// set, as one atomic step. The caller sends exactly one response.cancel when
// this returns true; doing the read and the clear under one lock is what
// prevents a concurrent audio delta from racing the barge-in decision.
func (t *TurnState) InterruptIfSpeaking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.agentSpeaking {
		return false
	}
	t.agentSpeaking = false
	return true
}
