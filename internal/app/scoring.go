package app

import (
	"campus-assessment-service/internal/domain"

	"go.uber.org/zap"
)

// Multi-choice questions award full points only when the chosen set is
// exactly the correct set. Partial credit is a scoring policy, not a fact
// of the domain; flipping this grants proportional credit for correct
// picks as long as no wrong option was chosen.
const multiChoicePartialCredit = false

// Score computes the total score and per-question breakdown for one
// attempt. It is a pure in-memory computation: identical inputs always
// yield identical outputs.
//
// Free-text questions cannot be graded automatically; they contribute 0 to
// the total and appear in the breakdown as pending. The total is clamped to
// maxScore when the configured maximum disagrees with the sum of question
// points; the mismatch is logged, configured MaxScore wins for display.
func Score(questions []domain.Question, answers []domain.Answer, maxScore int, logger *zap.Logger) (int, []domain.QuestionScore) {
	byQuestion := make(map[string]domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	total := 0
	rawSum := 0
	breakdown := make([]domain.QuestionScore, 0, len(questions))
	for _, q := range questions {
		rawSum += q.Points
		entry := domain.QuestionScore{QuestionID: q.ID, Possible: q.Points}

		answer, attempted := byQuestion[q.ID]
		switch q.Type {
		case domain.FreeText:
			entry.Pending = attempted
		case domain.SingleChoice:
			if attempted && answer.OptionID == q.Correct[0] {
				entry.Awarded = q.Points
			}
		case domain.MultiChoice:
			if attempted {
				entry.Awarded = scoreMultiChoice(q, answer)
			}
		}

		total += entry.Awarded
		breakdown = append(breakdown, entry)
	}

	if maxScore > 0 && rawSum != maxScore {
		logger.Warn("configured max score disagrees with question points",
			zap.Int("maxScore", maxScore),
			zap.Int("pointSum", rawSum))
	}
	if maxScore > 0 && total > maxScore {
		total = maxScore
	}
	return total, breakdown
}

// QuestionPointSum returns the raw sum of question points, the denominator
// used for summary-statistics ratios.
func QuestionPointSum(questions []domain.Question) int {
	sum := 0
	for _, q := range questions {
		sum += q.Points
	}
	return sum
}

func scoreMultiChoice(q domain.Question, answer domain.Answer) int {
	correct := make(map[string]struct{}, len(q.Correct))
	for _, id := range q.Correct {
		correct[id] = struct{}{}
	}

	hits := 0
	for _, id := range answer.OptionIDs {
		if _, ok := correct[id]; !ok {
			return 0 // a wrong pick forfeits the question under either policy
		}
		hits++
	}

	if hits == len(correct) {
		return q.Points
	}
	if multiChoicePartialCredit && hits > 0 {
		return q.Points * hits / len(correct)
	}
	return 0
}
