package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tmf.evalgo.org/model"
)

func principal(id string, role model.Role) model.Principal {
	return model.Principal{ID: id, Username: id, Role: role}
}

func TestCastQC_AnyFailFailsImmediately(t *testing.T) {
	ballots := SeedPending([]string{"u2", "u3"})

	ballots, outcome, err := CastQC(ballots, principal("u2", model.RoleQC), model.DecisionFail, "missing fields")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFail, outcome)
	assert.Equal(t, model.DecisionFail, ballots[0].Decision)
	assert.Equal(t, model.DecisionPending, ballots[1].Decision)
}

func TestCastQC_AllPassSucceeds(t *testing.T) {
	ballots := SeedPending([]string{"u2", "u3"})

	ballots, outcome, err := CastQC(ballots, principal("u2", model.RoleQC), model.DecisionPass, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOpen, outcome)

	ballots, outcome, err = CastQC(ballots, principal("u3", model.RoleQC), model.DecisionPass, "")
	require.NoError(t, err)
	assert.Equal(t, OutcomePass, outcome)
}

func TestCastReview_RequestChangesFailsStage(t *testing.T) {
	ballots := SeedPending([]string{"u3", "u5"})

	ballots, outcome, err := CastReview(ballots, principal("u3", model.RoleReviewer), model.DecisionRequestChanges, "fix section 2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFail, outcome)
	assert.Equal(t, "fix section 2", ballots[0].Comment)
}

func TestCastQC_AdminOverrideIsFinal(t *testing.T) {
	ballots := SeedPending([]string{"u2", "u3"})

	ballots, outcome, err := CastQC(ballots, principal("a1", model.RoleAdmin), model.DecisionFail, "missing fields")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdmin, outcome)
	require.Len(t, ballots, 3)
}

func TestCastQC_RecastUpdatesInPlace(t *testing.T) {
	ballots := SeedPending([]string{"u2"})

	ballots, _, err := CastQC(ballots, principal("u2", model.RoleQC), model.DecisionFail, "first pass")
	require.NoError(t, err)
	firstDecidedAt := ballots[0].DecidedAt

	ballots, outcome, err := CastQC(ballots, principal("u2", model.RoleQC), model.DecisionPass, "looks good now")
	require.NoError(t, err)
	require.Len(t, ballots, 1)
	assert.Equal(t, OutcomePass, outcome)
	assert.Equal(t, model.DecisionPass, ballots[0].Decision)
	assert.GreaterOrEqual(t, ballots[0].DecidedAt.UnixNano(), firstDecidedAt.UnixNano())
}

func TestCastQC_UnknownPrincipalRejected(t *testing.T) {
	ballots := SeedPending([]string{"u2"})

	_, _, err := CastQC(ballots, principal("u9", model.RoleQC), model.DecisionPass, "")
	require.Error(t, err)
}

func TestCastQC_InvalidDecisionRejected(t *testing.T) {
	ballots := SeedPending([]string{"u2"})

	_, _, err := CastQC(ballots, principal("u2", model.RoleQC), model.DecisionApproved, "")
	require.Error(t, err)
}

func TestCastApproval_DesignatedApprover(t *testing.T) {
	doc := &model.Document{
		DocID:          "d1",
		ApproverBallot: &model.Ballot{PrincipalID: "u4", Decision: model.DecisionPending},
	}

	ballot, outcome, err := CastApproval(doc, principal("u4", model.RoleApprover), true, "ok")
	require.NoError(t, err)
	assert.Equal(t, OutcomePass, outcome)
	assert.Equal(t, model.DecisionApproved, ballot.Decision)
}

func TestCastApproval_NonApproverRejected(t *testing.T) {
	doc := &model.Document{
		DocID:          "d1",
		ApproverBallot: &model.Ballot{PrincipalID: "u4", Decision: model.DecisionPending},
	}

	_, _, err := CastApproval(doc, principal("u9", model.RoleReviewer), true, "")
	require.Error(t, err)
}
