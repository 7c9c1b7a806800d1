package services

import (
	"fmt"
	"sort"
	"time"
)

type questionRef struct {
	question *Question
	section  string
}

// Score computes the result of a submission against an assessment definition.
// Nothing is persisted; the result depends only on its inputs and now.
func Score(a *Assessment, answers []Answer, now time.Time) (*AssessmentResult, error) {
	if a == nil {
		return nil, NewInvalidError("assessment required")
	}
	if len(answers) == 0 {
		return nil, NewInvalidError("answers array is required and cannot be empty")
	}
	seen := make(map[string]struct{}, len(answers))
	for _, ans := range answers {
		if _, dup := seen[ans.QuestionID]; dup {
			return nil, NewInvalidError(fmt.Sprintf("question %s answered more than once", ans.QuestionID))
		}
		seen[ans.QuestionID] = struct{}{}
	}
	if !a.IsActive {
		return nil, NewNotActiveError("this assessment is not currently active")
	}
	if len(a.RiskLevels) == 0 {
		return nil, NewMisconfiguredError("assessment does not have risk levels configured")
	}

	questions := map[string]questionRef{}
	breakdown := []*SectionScore{}
	bySection := map[string]*SectionScore{}
	for si := range a.Sections {
		sec := &a.Sections[si]
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			questions[q.ID] = questionRef{question: q, section: sec.Name}
			if _, ok := bySection[sec.Name]; !ok {
				agg := &SectionScore{Name: sec.Name}
				bySection[sec.Name] = agg
				breakdown = append(breakdown, agg)
			}
		}
	}

	total := 0
	answered := map[string]struct{}{}
	details := make([]AnswerDetail, 0, len(answers))
	for _, ans := range answers {
		ref, ok := questions[ans.QuestionID]
		if !ok {
			return nil, NewUnknownQuestionError(fmt.Sprintf("question with ID %s not found in this assessment", ans.QuestionID))
		}
		opt := findOption(ref.question, ans.OptionID)
		if opt == nil {
			return nil, NewUnknownOptionError(fmt.Sprintf("option with ID %s not found for question %s", ans.OptionID, ans.QuestionID))
		}
		total += opt.PointValue
		answered[ans.QuestionID] = struct{}{}
		agg := bySection[ref.section]
		agg.Score += opt.PointValue
		agg.QuestionCount++
		details = append(details, AnswerDetail{
			QuestionID:         ref.question.ID,
			QuestionText:       ref.question.QuestionText,
			SelectedOptionText: opt.Text,
			PointsScored:       opt.PointValue,
			SectionName:        ref.section,
		})
	}

	maxPossible := 0
	for _, sec := range a.Sections {
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			if _, ok := answered[q.ID]; !ok {
				continue
			}
			m := questionMaxPoints(q)
			maxPossible += m
			bySection[sec.Name].MaxScore += m
		}
	}

	sections := make([]SectionScore, 0, len(breakdown))
	for _, agg := range breakdown {
		sections = append(sections, *agg)
	}
	return &AssessmentResult{
		AssessmentID:      a.ID,
		AssessmentTitle:   a.Title,
		TotalQuestions:    len(questions),
		AnsweredQuestions: len(answered),
		TotalScore:        total,
		MaxPossibleScore:  maxPossible,
		RiskLevel:         ClassifyRisk(total, a.RiskLevels),
		SectionBreakdown:  sections,
		DetailedAnswers:   details,
		SubmittedAt:       now,
	}, nil
}

// ClassifyRisk returns the first band, by ascending MinScore, whose inclusive
// range holds score. Unmatched scores fall back to the band with the highest
// MinScore. levels must be non-empty.
func ClassifyRisk(score int, levels []RiskLevel) RiskLevelView {
	sorted := append([]RiskLevel(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })
	for _, lvl := range sorted {
		if score >= lvl.MinScore && score <= lvl.MaxScore {
			return riskView(lvl)
		}
	}
	return riskView(sorted[len(sorted)-1])
}

func riskView(lvl RiskLevel) RiskLevelView {
	resources := make([]string, len(lvl.Resources))
	copy(resources, lvl.Resources)
	return RiskLevelView{Level: lvl.Level, Message: lvl.Message, Resources: resources}
}

func findOption(q *Question, optionID string) *Option {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i]
		}
	}
	return nil
}

// questionMaxPoints is the best achievable score for q; 0 when q has no options.
func questionMaxPoints(q *Question) int {
	best := 0
	for _, opt := range q.Options {
		if opt.PointValue > best {
			best = opt.PointValue
		}
	}
	return best
}
