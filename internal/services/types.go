package services

import "time"

// Assessment is a fully loaded questionnaire definition. Store accessors return
// sections, questions, options and risk levels sorted by Order; callers treat the
// value as read-only.
type Assessment struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Sections    []Section   `json:"sections"`
	RiskLevels  []RiskLevel `json:"riskLevels"`
}

type Section struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Order       int        `json:"order"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	ID           string   `json:"id"`
	QuestionText string   `json:"questionText"`
	Explanation  string   `json:"explanation,omitempty"`
	Order        int      `json:"order"`
	Options      []Option `json:"options"`
}

type Option struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Order      int    `json:"order"`
	PointValue int    `json:"pointValue"`
}

// RiskLevel maps the inclusive score band [MinScore, MaxScore] to a label.
type RiskLevel struct {
	ID        string   `json:"id,omitempty"`
	MinScore  int      `json:"minScore"`
	MaxScore  int      `json:"maxScore"`
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Resources []string `json:"resources"`
	Order     int      `json:"order"`
}

// AssessmentSummary is the list projection without nested content.
type AssessmentSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type AssessmentResult struct {
	AssessmentID      string         `json:"assessmentId"`
	AssessmentTitle   string         `json:"assessmentTitle"`
	TotalQuestions    int            `json:"totalQuestions"`
	AnsweredQuestions int            `json:"answeredQuestions"`
	TotalScore        int            `json:"totalScore"`
	MaxPossibleScore  int            `json:"maxPossibleScore"`
	RiskLevel         RiskLevelView  `json:"riskLevel"`
	SectionBreakdown  []SectionScore `json:"sectionBreakdown"`
	DetailedAnswers   []AnswerDetail `json:"detailedAnswers"`
	SubmittedAt       time.Time      `json:"submittedAt"`
}

type RiskLevelView struct {
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Resources []string `json:"resources"`
}

type SectionScore struct {
	Name          string `json:"name"`
	Score         int    `json:"score"`
	MaxScore      int    `json:"maxScore"`
	QuestionCount int    `json:"questionCount"`
}

type AnswerDetail struct {
	QuestionID         string `json:"questionId"`
	QuestionText       string `json:"questionText"`
	SelectedOptionText string `json:"selectedOptionText"`
	PointsScored       int    `json:"pointsScored"`
	SectionName        string `json:"sectionName"`
}

// PublicAssessment is the pre-submission view. It has no point values.
type PublicAssessment struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Sections    []PublicSection `json:"sections"`
}

type PublicSection struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Order       int              `json:"order"`
	Questions   []PublicQuestion `json:"questions"`
}

type PublicQuestion struct {
	ID           string         `json:"id"`
	QuestionText string         `json:"questionText"`
	Explanation  string         `json:"explanation,omitempty"`
	Order        int            `json:"order"`
	Options      []PublicOption `json:"options"`
}

type PublicOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type AssessmentStats struct {
	AssessmentID     string      `json:"assessmentId"`
	Title            string      `json:"title"`
	TotalSections    int         `json:"totalSections"`
	TotalQuestions   int         `json:"totalQuestions"`
	MaxPossibleScore int         `json:"maxPossibleScore"`
	IsActive         bool        `json:"isActive"`
	RiskLevels       []RiskLevel `json:"riskLevels"`
}

// User is an account linked to an external identity provider.
type User struct {
	ID          string    `json:"id"`
	ProviderUID string    `json:"providerUid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}
