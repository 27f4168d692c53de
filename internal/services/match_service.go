package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   MatchService ranks candidate workers for a shift. Scores are computed on
   demand from a snapshot read and never persisted; a worker hired a moment
   after ranking is simply filtered out when the actual hire attempt fails.

   score = 0.35·skill + 0.25·reliability + 0.20·venueFamiliarity + 0.20·availability

   Each sub-score is normalized to [0, 100]. acceptLikelihood is a separate
   estimate and never feeds back into score.
*/
type MatchService struct {
	workerRepo repositories.WorkerRepository
	shiftRepo  repositories.ShiftRepository
	appRepo    repositories.ApplicationRepository
	availRepo  repositories.AvailabilityRepository
}

func NewMatchService(
	workerRepo repositories.WorkerRepository,
	shiftRepo repositories.ShiftRepository,
	appRepo repositories.ApplicationRepository,
	availRepo repositories.AvailabilityRepository,
) *MatchService {
	return &MatchService{
		workerRepo: workerRepo,
		shiftRepo:  shiftRepo,
		appRepo:    appRepo,
		availRepo:  availRepo,
	}
}

// Rank scores every eligible candidate for the shift and returns them
// descending by score, ties broken by ascending worker ID so the ordering
// is deterministic. Workers explicitly unavailable on the shift date, or
// already committed to an overlapping shift, are excluded entirely.
func (s *MatchService) Rank(ctx context.Context, shiftID uuid.UUID) ([]*models.MatchScore, error) {
	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, utils.ErrNotFound
	}

	workers, err := s.workerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var scores []*models.MatchScore
	for _, worker := range workers {
		score, eligible, err := s.scoreWorker(ctx, shift, worker)
		if err != nil {
			return nil, err
		}
		if !eligible {
			continue
		}
		scores = append(scores, score)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].WorkerID.String() < scores[j].WorkerID.String()
	})
	return scores, nil
}

func (s *MatchService) scoreWorker(
	ctx context.Context,
	shift *models.Shift,
	worker *models.Worker,
) (*models.MatchScore, bool, error) {
	// Explicit unavailability excludes the worker outright.
	slot, err := s.availRepo.Get(ctx, worker.ID, shift.ServiceDate())
	if err != nil {
		return nil, false, err
	}
	if slot != nil && !slot.IsAvailable {
		return nil, false, nil
	}

	// Committed to an overlapping shift excludes too.
	overlapping, err := s.hasOverlappingCommitment(ctx, worker.ID, shift)
	if err != nil {
		return nil, false, err
	}
	if overlapping {
		return nil, false, nil
	}

	var tags []string

	skillScore, skillTag := skillMatchScore(worker.Skills, shift.Role)
	tags = append(tags, skillTag)

	reliabilityScore := constants.ReliabilityScoreDefault
	if worker.HasHistory() {
		total := worker.CompletedShiftCount + worker.NoShowCount + worker.CancellationCount
		reliabilityScore = float64(worker.CompletedShiftCount) / float64(total) * 100
		tags = append(tags, "reliability_from_history")
	} else {
		tags = append(tags, "no_history")
	}

	familiarityScore := constants.VenueFamiliarityNovelScore
	known, err := s.workerRepo.HasCompletedAtVenue(ctx, worker.ID, shift.VenueID)
	if err != nil {
		return nil, false, err
	}
	if known {
		familiarityScore = constants.VenueFamiliarityKnownScore
		tags = append(tags, "worked_here_before")
	} else {
		tags = append(tags, "new_venue")
	}

	availabilityScore := constants.AvailabilityUnconfirmedScore
	if slot != nil && slot.IsAvailable {
		availabilityScore = constants.AvailabilityExplicitScore
		tags = append(tags, "availability_confirmed")
	} else {
		tags = append(tags, "availability_unconfirmed")
	}

	score := constants.WeightSkillMatch*skillScore +
		constants.WeightReliability*reliabilityScore +
		constants.WeightVenueFamiliarity*familiarityScore +
		constants.WeightAvailability*availabilityScore

	return &models.MatchScore{
		WorkerID:         worker.ID,
		ShiftID:          shift.ID,
		Score:            utils.Round2(score),
		AcceptLikelihood: acceptLikelihood(worker, shift.HourlyRate),
		ReasonTags:       tags,
	}, true, nil
}

func (s *MatchService) hasOverlappingCommitment(
	ctx context.Context,
	workerID uuid.UUID,
	shift *models.Shift,
) (bool, error) {
	committed, err := s.appRepo.ListCommittedByWorker(ctx, workerID)
	if err != nil {
		return false, err
	}
	for _, app := range committed {
		if app.ShiftID == shift.ID {
			continue
		}
		other, err := s.shiftRepo.GetByID(ctx, app.ShiftID)
		if err != nil {
			return false, err
		}
		if other == nil || other.IsTerminal() {
			continue
		}
		if other.Overlaps(shift.StartTime, shift.EndTime) {
			return true, nil
		}
	}
	return false, nil
}

// skillMatchScore compares the worker's skill keywords against the shift's
// role text. An exact role match scores 100; partial token overlap scores
// proportionally above the floor; no overlap still scores the floor so
// unlabeled workers stay rankable.
func skillMatchScore(skills []string, role string) (float64, string) {
	roleLower := strings.ToLower(strings.TrimSpace(role))
	for _, skill := range skills {
		if strings.ToLower(strings.TrimSpace(skill)) == roleLower {
			return 100, "exact_role_match"
		}
	}

	roleTokens := strings.Fields(roleLower)
	if len(roleTokens) == 0 || len(skills) == 0 {
		return constants.SkillScoreFloor, "no_skill_overlap"
	}

	matched := 0
	for _, token := range roleTokens {
		for _, skill := range skills {
			if strings.Contains(strings.ToLower(skill), token) {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return constants.SkillScoreFloor, "no_skill_overlap"
	}

	fraction := float64(matched) / float64(len(roleTokens))
	return constants.SkillScoreFloor + fraction*(100-constants.SkillScoreFloor), "partial_skill_match"
}

// acceptLikelihood estimates the probability the worker says yes: their
// historical offer-acceptance ratio, discounted when the shift pays
// materially below their most recent accepted rate.
func acceptLikelihood(worker *models.Worker, hourlyRate float64) float64 {
	base := constants.AcceptLikelihoodDefault
	if worker.OffersReceived > 0 {
		base = float64(worker.OffersAccepted) / float64(worker.OffersReceived) * 100
	}

	if worker.LastAcceptedRate != nil && *worker.LastAcceptedRate > 0 && hourlyRate < *worker.LastAcceptedRate {
		gapPct := (*worker.LastAcceptedRate - hourlyRate) / *worker.LastAcceptedRate * 100
		penalty := gapPct * constants.RateGapPenaltyPerPct
		if penalty > constants.MaxRateGapPenalty {
			penalty = constants.MaxRateGapPenalty
		}
		base -= penalty
	}

	if base < 0 {
		base = 0
	}
	if base > 100 {
		base = 100
	}
	return utils.Round2(base)
}
