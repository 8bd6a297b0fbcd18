package approval

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfern/kestrel/internal/domain"
)

type recordingResponder struct {
	calls []struct {
		requestID string
		approved  bool
	}
	err error
}

func (r *recordingResponder) RespondApproval(requestID string, approved bool) error {
	r.calls = append(r.calls, struct {
		requestID string
		approved  bool
	}{requestID, approved})
	return r.err
}

func req(id, name string) domain.ToolApproval {
	return domain.ToolApproval{RequestID: id, Name: name, Args: map[string]any{}}
}

func TestCoordinatorRoundTrip(t *testing.T) {
	resp := &recordingResponder{}
	c := NewCoordinator(resp, nil)

	auto := c.HandleRequest(req("r1", "shell"))
	assert.False(t, auto)
	require.NotNil(t, c.Pending())
	assert.Equal(t, "r1", c.Pending().RequestID)

	require.NoError(t, c.Respond(true, false))
	assert.Nil(t, c.Pending())
	require.Len(t, resp.calls, 1)
	assert.Equal(t, "r1", resp.calls[0].requestID)
	assert.True(t, resp.calls[0].approved)

	// A second respond with nothing pending is a no-op.
	require.NoError(t, c.Respond(false, false))
	assert.Len(t, resp.calls, 1)
}

func TestCoordinatorRespondUsesCapturedID(t *testing.T) {
	resp := &recordingResponder{}
	c := NewCoordinator(resp, nil)

	original := req("r-orig", "shell")
	c.HandleRequest(original)
	original.RequestID = "mutated-after-capture"

	require.NoError(t, c.Respond(false, false))
	require.Len(t, resp.calls, 1)
	assert.Equal(t, "r-orig", resp.calls[0].requestID)
	assert.False(t, resp.calls[0].approved)
}

func TestCoordinatorClearsEvenWhenBackendFails(t *testing.T) {
	resp := &recordingResponder{err: errors.New("transport down")}
	c := NewCoordinator(resp, nil)

	c.HandleRequest(req("r1", "shell"))
	err := c.Respond(true, false)
	assert.Error(t, err)
	assert.Nil(t, c.Pending())
}

func TestCoordinatorLastRequestWins(t *testing.T) {
	resp := &recordingResponder{}
	c := NewCoordinator(resp, nil)

	c.HandleRequest(req("r1", "shell"))
	c.HandleRequest(req("r2", "write_file"))

	// The replaced request was denied so its turn is not stuck.
	require.Len(t, resp.calls, 1)
	assert.Equal(t, "r1", resp.calls[0].requestID)
	assert.False(t, resp.calls[0].approved)

	require.NotNil(t, c.Pending())
	assert.Equal(t, "r2", c.Pending().RequestID)
}

func TestCoordinatorAutoAnswersFromPolicy(t *testing.T) {
	policy := NewPolicy("")
	policy.Remember("shell:ls", true)
	policy.Remember("write_file", false)

	resp := &recordingResponder{}
	c := NewCoordinator(resp, policy)

	auto := c.HandleRequest(domain.ToolApproval{
		RequestID: "r1", Name: "shell", Args: map[string]any{"command": "ls -la"},
	})
	assert.True(t, auto)
	assert.Nil(t, c.Pending())

	auto = c.HandleRequest(domain.ToolApproval{
		RequestID: "r2", Name: "write_file", Args: map[string]any{"path": "x"},
	})
	assert.True(t, auto)

	require.Len(t, resp.calls, 2)
	assert.True(t, resp.calls[0].approved)
	assert.False(t, resp.calls[1].approved)
}

func TestCoordinatorRememberPersistsDecision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.json")
	policy := NewPolicy(path)
	resp := &recordingResponder{}
	c := NewCoordinator(resp, policy)

	c.HandleRequest(domain.ToolApproval{
		RequestID: "r1", Name: "shell", Args: map[string]any{"command": "git status"},
	})
	require.NoError(t, c.Respond(true, true))

	// A fresh policy re-reads the file and auto-answers.
	reloaded := NewPolicy(path)
	assert.Equal(t, Allow, reloaded.Decide("shell", map[string]any{"command": "git push"}))
	assert.Equal(t, Ask, reloaded.Decide("shell", map[string]any{"command": "rm -rf x"}))
}

func TestPolicyDenyWinsOverAllow(t *testing.T) {
	policy := NewPolicy("")
	policy.Remember("shell:git", true)
	policy.Remember("shell", false)

	assert.Equal(t, Deny, policy.Decide("shell", map[string]any{"command": "git status"}))
}

func TestPolicyClear(t *testing.T) {
	policy := NewPolicy(filepath.Join(t.TempDir(), "approvals.json"))
	policy.Remember("write_file", true)
	require.Equal(t, Allow, policy.Decide("write_file", nil))

	policy.Clear()
	assert.Equal(t, Ask, policy.Decide("write_file", nil))
}

func TestPatternFor(t *testing.T) {
	assert.Equal(t, "shell:git", PatternFor("shell", map[string]any{"command": "git push origin"}))
	assert.Equal(t, "shell", PatternFor("shell", map[string]any{}))
	assert.Equal(t, "write_file", PatternFor("write_file", map[string]any{"path": "a"}))
}
