package h1

import (
	"bytes"
	"fmt"
)

type eventKind int

const (
	kRequest eventKind = iota
	kInformationalResponse
	kResponse
	kData
	kEndOfMessage
	kConnectionClosed
)

func kindOf(ev Event) (eventKind, bool) {
	switch ev.(type) {
	case *Request:
		return kRequest, true
	case *InformationalResponse:
		return kInformationalResponse, true
	case *Response:
		return kResponse, true
	case *Data:
		return kData, true
	case *EndOfMessage:
		return kEndOfMessage, true
	case *ConnectionClosed:
		return kConnectionClosed, true
	default:
		return 0, false
	}
}

// stateMachine tracks both per-party automata (RFC 7230's request and
// response processing are only loosely coupled, so CLIENT and SERVER
// are modeled as separate state machines) plus the auxiliary flags
// that don't fit a single state cleanly. A single instance lives
// inside a Connection regardless of which role that Connection plays,
// because framing and keep-alive decisions on "our" side depend on the
// peer's observed state too — a Connection: close we just received on
// a request affects how we must write our own response.
type stateMachine struct {
	clientState State
	serverState State

	keepAlive               bool
	pendingSwitchProposals  map[SwitchProposal]bool
	clientWaiting100Continue bool
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		clientState:            Idle,
		serverState:            Idle,
		keepAlive:              true,
		pendingSwitchProposals: map[SwitchProposal]bool{},
	}
}

func (sm *stateMachine) stateOf(role Role) State {
	if role == Client {
		return sm.clientState
	}
	return sm.serverState
}

func (sm *stateMachine) setState(role Role, s State) {
	if role == Client {
		sm.clientState = s
	} else {
		sm.serverState = s
	}
}

// clientEventTransition is the CLIENT automaton: IDLE only accepts a
// Request (which starts the body-sending phase), and SEND_BODY accepts
// any number of Data events before EndOfMessage closes it out.
func clientEventTransition(state State, kind eventKind) (State, bool) {
	switch state {
	case Idle:
		if kind == kRequest {
			return SendBody, true
		}
	case SendBody:
		switch kind {
		case kData:
			return SendBody, true
		case kEndOfMessage:
			return Done, true
		}
	}
	return state, false
}

// serverEventTransition is the SERVER automaton. It also handles the
// switch-marker entries: an InformationalResponse accepting a pending
// Upgrade (101) or a Response accepting a pending CONNECT (2xx) lands
// in SwitchedProtocol instead of its ordinary destination, since the
// server has now committed to speaking a different protocol on this
// connection.
func serverEventTransition(state State, kind eventKind, ev Event, proposals map[SwitchProposal]bool) (State, bool) {
	switch state {
	case Idle:
		switch kind {
		case kResponse:
			// Allows emitting a 4xx to a request we couldn't parse.
			return SendBody, true
		}
	case SendResponse:
		switch kind {
		case kInformationalResponse:
			ir := ev.(*InformationalResponse)
			if proposals[SwitchUpgrade] && ir.StatusCode == 101 {
				return SwitchedProtocol, true
			}
			return SendResponse, true
		case kResponse:
			resp := ev.(*Response)
			if proposals[SwitchConnect] && resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return SwitchedProtocol, true
			}
			return SendBody, true
		}
	case SendBody:
		switch kind {
		case kData:
			return SendBody, true
		case kEndOfMessage:
			return Done, true
		}
	}
	return state, false
}

// applyEvent runs the event-triggered transition for forRole (the
// party that authored ev — always "our" role for Send, always the
// peer's role for events pulled out of received bytes), then the
// cross-party Request side effect, then the auxiliary-state update,
// then state-triggered transitions to a fixed point.
func (sm *stateMachine) applyEvent(forRole Role, ev Event) error {
	kind, ok := kindOf(ev)
	if !ok {
		return fmt.Errorf("not a wire event: %T", ev)
	}

	if kind == kConnectionClosed {
		if sm.stateOf(forRole) == Closed {
			return fmt.Errorf("%s connection already closed", forRole)
		}
		sm.setState(forRole, Closed)
		sm.runStateTriggered()
		return nil
	}

	cur := sm.stateOf(forRole)
	var next State
	if forRole == Client {
		next, ok = clientEventTransition(cur, kind)
	} else {
		next, ok = serverEventTransition(cur, kind, ev, sm.pendingSwitchProposals)
	}
	if !ok {
		return fmt.Errorf("%s: event %T illegal in state %s", forRole, ev, cur)
	}
	sm.setState(forRole, next)

	// A Request is always client-authored; it also kicks the server
	// automaton out of IDLE, since a request obligates the server to
	// eventually answer it.
	if kind == kRequest && forRole == Client && sm.serverState == Idle {
		sm.serverState = SendResponse
	}

	sm.updateAux(forRole, ev)
	sm.runStateTriggered()
	return nil
}

// updateAux derives keepAlive, pendingSwitchProposals and
// clientWaiting100Continue from ev — the bookkeeping RFC 7230 §6.1 and
// §6.7 describe in prose rather than as a state-machine transition
// (an HTTP/1.0 request or an explicit Connection: close token
// commits the connection to closing once the current cycle finishes;
// a CONNECT or Upgrade request records that the server may later
// switch away from HTTP entirely).
func (sm *stateMachine) updateAux(forRole Role, ev Event) {
	switch e := ev.(type) {
	case *Request:
		if !e.HTTPVersion.AtLeast11() {
			sm.keepAlive = false
		}
		if e.Headers.hasConnectionToken(strClose) {
			sm.keepAlive = false
		}
		if v, ok := e.Headers.Get("expect"); ok && equalFold(bytes.TrimSpace(v), str100Continue) {
			sm.clientWaiting100Continue = true
		}
		if isConnectRequest(e) {
			sm.pendingSwitchProposals[SwitchConnect] = true
		}
		if isUpgradeRequest(e) {
			sm.pendingSwitchProposals[SwitchUpgrade] = true
		}
	case *InformationalResponse:
		sm.clientWaiting100Continue = false
	case *Response:
		if !e.HTTPVersion.AtLeast11() {
			sm.keepAlive = false
		}
		if e.Headers.hasConnectionToken(strClose) {
			sm.keepAlive = false
		}
		sm.clientWaiting100Continue = false
		for k := range sm.pendingSwitchProposals {
			delete(sm.pendingSwitchProposals, k)
		}
	case *Data:
		if forRole == Client {
			sm.clientWaiting100Continue = false
		}
	case *EndOfMessage:
		if forRole == Client {
			sm.clientWaiting100Continue = false
		}
	}
}

// runStateTriggered applies the rules that fire from state alone,
// rather than from an incoming event, to a fixed point. Priority: when
// both a switch-proposal transition and a must-close transition are
// enabled for the client, the switch wins.
func (sm *stateMachine) runStateTriggered() {
	for {
		changed := false

		// The accepted-switch propagation takes priority over the
		// "proposals now empty" fallback: a Response that accepts a
		// switch clears pendingSwitchProposals via updateAux in the
		// same step that moves the server to SWITCHED_PROTOCOL, so
		// without this priority the client would collapse straight
		// back to DONE instead of following the server across.
		switch {
		case sm.clientState == MightSwitchProtocol && sm.serverState == SwitchedProtocol:
			sm.clientState = SwitchedProtocol
			changed = true
		case len(sm.pendingSwitchProposals) > 0 && sm.clientState == Done:
			sm.clientState = MightSwitchProtocol
			changed = true
		case len(sm.pendingSwitchProposals) == 0 && sm.clientState == MightSwitchProtocol:
			sm.clientState = Done
			changed = true
		case !sm.keepAlive && sm.clientState == Done:
			sm.clientState = MustClose
			changed = true
		}

		if !sm.keepAlive && sm.serverState == Done {
			sm.serverState = MustClose
			changed = true
		}
		if sm.clientState == Closed && (sm.serverState == Done || sm.serverState == Idle) {
			sm.serverState = MustClose
			changed = true
		}
		if sm.serverState == Closed && (sm.clientState == Done || sm.clientState == Idle) {
			sm.clientState = MustClose
			changed = true
		}

		if !changed {
			return
		}
	}
}

// reset restores both states to Idle, retaining keepAlive (the caller
// — Connection.StartNextCycle — has already validated keepAlive is
// still true and no switch is pending before calling this).
func (sm *stateMachine) reset() {
	sm.clientState = Idle
	sm.serverState = Idle
	sm.clientWaiting100Continue = false
	sm.pendingSwitchProposals = map[SwitchProposal]bool{}
}
