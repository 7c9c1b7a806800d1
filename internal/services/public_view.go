package services

// ForUserView projects an active assessment into the structure shown before
// submission. Point values never leave this function.
func ForUserView(a *Assessment) (*PublicAssessment, error) {
	if a == nil {
		return nil, NewInvalidError("assessment required")
	}
	if !a.IsActive {
		return nil, NewNotActiveError("this assessment is not currently active")
	}
	out := &PublicAssessment{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Sections:    make([]PublicSection, 0, len(a.Sections)),
	}
	for _, sec := range a.Sections {
		ps := PublicSection{
			ID:          sec.ID,
			Name:        sec.Name,
			Description: sec.Description,
			Order:       sec.Order,
			Questions:   make([]PublicQuestion, 0, len(sec.Questions)),
		}
		for _, q := range sec.Questions {
			pq := PublicQuestion{
				ID:           q.ID,
				QuestionText: q.QuestionText,
				Explanation:  q.Explanation,
				Order:        q.Order,
				Options:      make([]PublicOption, 0, len(q.Options)),
			}
			for _, opt := range q.Options {
				pq.Options = append(pq.Options, PublicOption{ID: opt.ID, Text: opt.Text, Order: opt.Order})
			}
			ps.Questions = append(ps.Questions, pq)
		}
		out.Sections = append(out.Sections, ps)
	}
	return out, nil
}
