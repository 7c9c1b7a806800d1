package services

import "sort"

// SortAssessment orders the nested content of a by Order, keeping insertion
// order for ties. Stores call it before handing a definition to the services.
func SortAssessment(a *Assessment) {
	if a == nil {
		return
	}
	sortSections(a.Sections)
	for si := range a.Sections {
		sortQuestions(a.Sections[si].Questions)
		for qi := range a.Sections[si].Questions {
			sortOptions(a.Sections[si].Questions[qi].Options)
		}
	}
	sort.SliceStable(a.RiskLevels, func(i, j int) bool { return a.RiskLevels[i].Order < a.RiskLevels[j].Order })
}

func sortSections(s []Section) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Order < s[j].Order })
}

func sortQuestions(q []Question) {
	sort.SliceStable(q, func(i, j int) bool { return q[i].Order < q[j].Order })
}

func sortOptions(o []Option) {
	sort.SliceStable(o, func(i, j int) bool { return o[i].Order < o[j].Order })
}
