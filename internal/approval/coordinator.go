// Package approval owns the single pending tool-approval slot and the
// remembered allow/deny decisions behind it.
package approval

import (
	"github.com/mfern/kestrel/internal/domain"
	"github.com/mfern/kestrel/internal/logging"
)

// Responder delivers the user's answer back to the turn that asked.
type Responder interface {
	RespondApproval(requestID string, approved bool) error
}

// Coordinator holds at most one pending approval request. The protocol
// assumes single-flight tool calls; if a second request arrives while one
// is pending, the newer request wins and the older one is answered with a
// denial so its turn does not hang.
type Coordinator struct {
	responder Responder
	policy    *Policy
	log       *logging.Logger

	pending *domain.ToolApproval
}

func NewCoordinator(responder Responder, policy *Policy) *Coordinator {
	return &Coordinator{
		responder: responder,
		policy:    policy,
		log:       logging.New("approval"),
	}
}

// HandleRequest takes an incoming tool_approval event. It returns true if
// the request was auto-answered from remembered decisions and the UI does
// not need to prompt.
func (c *Coordinator) HandleRequest(req domain.ToolApproval) bool {
	if c.policy != nil {
		switch c.policy.Decide(req.Name, req.Args) {
		case Allow:
			_ = c.responder.RespondApproval(req.RequestID, true)
			return true
		case Deny:
			_ = c.responder.RespondApproval(req.RequestID, false)
			return true
		}
	}

	if c.pending != nil {
		c.log.Warn("approval_overwritten", map[string]any{
			"stale_request": c.pending.RequestID,
			"new_request":   req.RequestID,
		}, nil)
		_ = c.responder.RespondApproval(c.pending.RequestID, false)
	}
	r := req
	c.pending = &r
	return false
}

// Pending returns a copy of the pending request, or nil.
func (c *Coordinator) Pending() *domain.ToolApproval {
	if c.pending == nil {
		return nil
	}
	r := *c.pending
	return &r
}

// Respond answers the pending request with the originally captured
// request id. Pending state is cleared before the backend call returns,
// so a failed round-trip cannot leave the UI stuck; the error is returned
// for reporting only. remember persists the decision for future requests
// of the same shape.
func (c *Coordinator) Respond(approved, remember bool) error {
	if c.pending == nil {
		return nil
	}
	req := *c.pending
	c.pending = nil

	if remember && c.policy != nil {
		c.policy.Remember(PatternFor(req.Name, req.Args), approved)
	}
	return c.responder.RespondApproval(req.RequestID, approved)
}

// Clear drops the pending request without answering, for session
// teardown paths where the turn is already gone.
func (c *Coordinator) Clear() {
	c.pending = nil
}
