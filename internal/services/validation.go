package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CreateAssessmentRequest struct {
	Title       string                 `json:"title" validate:"required"`
	Description string                 `json:"description"`
	IsActive    *bool                  `json:"isActive"`
	Sections    []CreateSectionRequest `json:"sections" validate:"required,min=1,dive"`
	RiskLevels  []RiskLevelRequest     `json:"riskLevels" validate:"required,min=1,dive"`
}

type CreateSectionRequest struct {
	Name        string                  `json:"name" validate:"required"`
	Description string                  `json:"description"`
	Order       int                     `json:"order" validate:"min=0"`
	Questions   []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	QuestionText string                `json:"questionText" validate:"required"`
	Explanation  string                `json:"explanation"`
	Order        int                   `json:"order" validate:"min=0"`
	Options      []CreateOptionRequest `json:"options" validate:"required,min=2,dive"`
}

type CreateOptionRequest struct {
	Text       string `json:"text" validate:"required"`
	PointValue *int   `json:"pointValue" validate:"required,min=0"`
	Order      int    `json:"order" validate:"min=0"`
}

type RiskLevelRequest struct {
	MinScore  *int     `json:"minScore" validate:"required,min=0"`
	MaxScore  *int     `json:"maxScore" validate:"required,min=0"`
	Level     string   `json:"level" validate:"required"`
	Message   string   `json:"message" validate:"required"`
	Resources []string `json:"resources"`
}

// UpdateAssessmentRequest carries the mutable top-level fields. Nil means unchanged;
// an empty title is ignored.
type UpdateAssessmentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *AssessmentService) validateCreate(req *CreateAssessmentRequest) error {
	if req == nil {
		return NewInvalidError("assessment payload required")
	}
	trimCreate(req)
	if err := s.validate.Struct(req); err != nil {
		return validationError(err)
	}
	for i, lvl := range req.RiskLevels {
		if *lvl.MinScore > *lvl.MaxScore {
			return NewInvalidError(fmt.Sprintf("riskLevels[%d]: minScore must not exceed maxScore", i))
		}
	}
	return nil
}

func trimCreate(req *CreateAssessmentRequest) {
	req.Title = strings.TrimSpace(req.Title)
	for si := range req.Sections {
		sec := &req.Sections[si]
		sec.Name = strings.TrimSpace(sec.Name)
		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			q.QuestionText = strings.TrimSpace(q.QuestionText)
			for oi := range q.Options {
				q.Options[oi].Text = strings.TrimSpace(q.Options[oi].Text)
			}
		}
	}
	for i := range req.RiskLevels {
		req.RiskLevels[i].Level = strings.TrimSpace(req.RiskLevels[i].Level)
		req.RiskLevels[i].Message = strings.TrimSpace(req.RiskLevels[i].Message)
	}
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return NewInvalidError(err.Error())
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		parts = append(parts, ns+": "+fe.Tag())
	}
	return NewInvalidError("validation failed: " + strings.Join(parts, "; "))
}
