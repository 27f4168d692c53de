package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

func TestRankScoresNewWorkerWithExactRoleMatch(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	worker := env.newWorker(t, "bartender")

	scores, err := env.matchSvc.Rank(env.ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	// skill 100, reliability default 70, new venue 50, no explicit slot 60:
	// 0.35*100 + 0.25*70 + 0.20*50 + 0.20*60 = 74.5
	score := scores[0]
	assert.Equal(t, worker.ID, score.WorkerID)
	assert.Equal(t, 74.5, score.Score)
	assert.Equal(t, 60.0, score.AcceptLikelihood)
	assert.ElementsMatch(t, []string{
		"exact_role_match", "no_history", "new_venue", "availability_unconfirmed",
	}, score.ReasonTags)
}

func TestRankRewardsConfirmedAvailability(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	confirmed := env.newWorker(t, "bartender")
	unconfirmed := env.newWorker(t, "bartender")

	require.NoError(t, env.availSvc.SetAvailability(env.ctx, confirmed.ID, shift.ServiceDate(), true, nil))

	scores, err := env.matchSvc.Rank(env.ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, confirmed.ID, scores[0].WorkerID)
	assert.Equal(t, unconfirmed.ID, scores[1].WorkerID)
	// 0.20 * (100 - 60) = 8 points between the two.
	assert.Equal(t, 8.0, utils.Round2(scores[0].Score-scores[1].Score))
	assert.Contains(t, scores[0].ReasonTags, "availability_confirmed")
}

func TestRankUsesReliabilityHistory(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)

	reliable := env.newWorker(t, "bartender")
	require.NoError(t, env.workerRepo.AdjustHistoryAtomic(env.ctx, reliable.ID, 9, 1, 0, "history seed"))

	flaky := env.newWorker(t, "bartender")
	require.NoError(t, env.workerRepo.AdjustHistoryAtomic(env.ctx, flaky.ID, 2, 6, 2, "history seed"))

	scores, err := env.matchSvc.Rank(env.ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, reliable.ID, scores[0].WorkerID)
	assert.Equal(t, flaky.ID, scores[1].WorkerID)
	assert.Contains(t, scores[0].ReasonTags, "reliability_from_history")
	// 90% vs 20% completion over a 0.25 weight.
	assert.Equal(t, 17.5, utils.Round2(scores[0].Score-scores[1].Score))
}

func TestRankExcludesUnavailableWorkers(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	available := env.newWorker(t, "bartender")
	dayOff := env.newWorker(t, "bartender")

	require.NoError(t, env.availSvc.SetAvailability(env.ctx, dayOff.ID, shift.ServiceDate(), false, nil))

	scores, err := env.matchSvc.Rank(env.ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, available.ID, scores[0].WorkerID)
}

func TestRankExcludesOverlappingCommitments(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)

	free := env.newWorker(t, "bartender")
	busy := env.newWorker(t, "bartender")

	// Overlapping live shift the busy worker has accepted.
	otherDraft := env.newDraftShiftAt(t, venue.ID,
		shift.StartTime.Add(2*time.Hour), shift.EndTime.Add(2*time.Hour), 1)
	other, err := env.shiftSvc.Publish(env.ctx, otherDraft.ID)
	require.NoError(t, err)
	app := env.apply(t, busy.ID, other.ID)
	_, err = env.appSvc.Accept(env.ctx, app.ID)
	require.NoError(t, err)

	scores, err := env.matchSvc.Rank(env.ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, free.ID, scores[0].WorkerID)
}

func TestRankBreaksTiesByWorkerID(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	w1 := env.newWorker(t, "bartender")
	w2 := env.newWorker(t, "bartender")

	scores, err := env.matchSvc.Rank(env.ctx, shift.ID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, scores[0].Score, scores[1].Score)
	assert.Less(t, scores[0].WorkerID.String(), scores[1].WorkerID.String())
	assert.ElementsMatch(t,
		[]string{w1.ID.String(), w2.ID.String()},
		[]string{scores[0].WorkerID.String(), scores[1].WorkerID.String()})
}

func TestRankUnknownShift(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.matchSvc.Rank(env.ctx, uuid.New())
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestSkillMatchScore(t *testing.T) {
	score, tag := skillMatchScore([]string{"Bartender"}, "bartender")
	assert.Equal(t, 100.0, score)
	assert.Equal(t, "exact_role_match", tag)

	// One of two role tokens found across the skill keywords.
	score, tag = skillMatchScore([]string{"bartender"}, "head bartender")
	assert.Equal(t, 60.0, score)
	assert.Equal(t, "partial_skill_match", tag)

	score, tag = skillMatchScore([]string{"chef"}, "bartender")
	assert.Equal(t, 20.0, score)
	assert.Equal(t, "no_skill_overlap", tag)

	score, tag = skillMatchScore(nil, "bartender")
	assert.Equal(t, 20.0, score)
	assert.Equal(t, "no_skill_overlap", tag)
}

func TestAcceptLikelihood(t *testing.T) {
	// No offer history: the default.
	assert.Equal(t, 60.0, acceptLikelihood(&models.Worker{}, 12))

	// 3 of 4 offers accepted.
	w := &models.Worker{OffersReceived: 4, OffersAccepted: 3}
	assert.Equal(t, 75.0, acceptLikelihood(w, 12))

	// Paying 20% under the last accepted rate costs 30 points.
	w.LastAcceptedRate = utils.Ptr(15.0)
	assert.Equal(t, 45.0, acceptLikelihood(w, 12))

	// Paying at or above the last accepted rate costs nothing.
	assert.Equal(t, 75.0, acceptLikelihood(w, 15))

	// The discount is capped, and the result never goes negative.
	poor := &models.Worker{OffersReceived: 10, OffersAccepted: 1, LastAcceptedRate: utils.Ptr(40.0)}
	assert.Equal(t, 0.0, acceptLikelihood(poor, 1))
}
