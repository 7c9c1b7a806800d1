package services

// Statistics summarises an assessment definition. MaxPossibleScore uses the same
// per-question rule as Score, applied to every question.
func Statistics(a *Assessment) *AssessmentStats {
	totalQuestions := 0
	maxScore := 0
	for _, sec := range a.Sections {
		totalQuestions += len(sec.Questions)
		for qi := range sec.Questions {
			maxScore += questionMaxPoints(&sec.Questions[qi])
		}
	}
	levels := make([]RiskLevel, len(a.RiskLevels))
	copy(levels, a.RiskLevels)
	return &AssessmentStats{
		AssessmentID:     a.ID,
		Title:            a.Title,
		TotalSections:    len(a.Sections),
		TotalQuestions:   totalQuestions,
		MaxPossibleScore: maxScore,
		IsActive:         a.IsActive,
		RiskLevels:       levels,
	}
}
