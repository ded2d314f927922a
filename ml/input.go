package ml

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Attribute names one form field.
type Attribute string

const (
	AttrAge                  Attribute = "Age"
	AttrGender               Attribute = "Gender"
	AttrStudyHours           Attribute = "Study_Hours_per_Week"
	AttrOnlineCourses        Attribute = "Online_Courses_Completed"
	AttrParticipation        Attribute = "Participation_in_Discussions"
	AttrAssignmentCompletion Attribute = "Assignment_Completion_Rate"
	AttrExamScore            Attribute = "Exam_Score"
	AttrAttendance           Attribute = "Attendance_Rate"
	AttrTechUse              Attribute = "Use_of_Educational_Tech"
	AttrStressLevel          Attribute = "Self_Reported_Stress_Level"
	AttrSocialMedia          Attribute = "Time_Spent_on_Social_Media"
	AttrSleepHours           Attribute = "Sleep_Hours_per_Night"
)

// Categorical options offered by the form.
var (
	GenderOptions        = []string{"Male", "Female"}
	ParticipationOptions = []string{"Low", "Medium", "High"}
	StressOptions        = []string{"Low", "Medium", "High"}
	TechUseOptions       = []string{"Yes", "No"}
)

// RawInput is one form submission before encoding.
type RawInput struct {
	Age                  float64 `json:"age" validate:"min=10,max=30"`
	Gender               string  `json:"gender" validate:"oneof=Male Female"`
	StudyHours           float64 `json:"study_hours" validate:"min=0,max=40"`
	OnlineCourses        float64 `json:"online_courses" validate:"min=0,max=20"`
	Participation        string  `json:"participation" validate:"oneof=Low Medium High"`
	AssignmentCompletion float64 `json:"assignment_completion" validate:"min=0,max=100"`
	ExamScore            float64 `json:"exam_score" validate:"min=0,max=100"`
	Attendance           float64 `json:"attendance" validate:"min=0,max=100"`
	TechUse              string  `json:"tech_use" validate:"oneof=Yes No"`
	StressLevel          string  `json:"stress_level" validate:"oneof=Low Medium High"`
	SocialMedia          float64 `json:"social_media" validate:"min=0,max=50"`
	SleepHours           float64 `json:"sleep_hours" validate:"min=0,max=12"`
}

// DefaultInput mirrors the initial state of the form.
func DefaultInput() RawInput {
	return RawInput{
		Age:                  18,
		Gender:               "Male",
		StudyHours:           10,
		OnlineCourses:        2,
		Participation:        "Low",
		AssignmentCompletion: 85,
		ExamScore:            70,
		Attendance:           80,
		TechUse:              "Yes",
		StressLevel:          "Low",
		SocialMedia:          10,
		SleepHours:           7,
	}
}

var optionCaser = cases.Title(language.English)

// Normalize fixes the casing of categorical options so "medium" and
// " MEDIUM " both select "Medium".
func (in RawInput) Normalize() RawInput {
	in.Gender = normalizeOption(in.Gender)
	in.Participation = normalizeOption(in.Participation)
	in.TechUse = normalizeOption(in.TechUse)
	in.StressLevel = normalizeOption(in.StressLevel)
	return in
}

func normalizeOption(v string) string {
	return optionCaser.String(strings.TrimSpace(v))
}

func (in RawInput) numeric() map[Attribute]float64 {
	return map[Attribute]float64{
		AttrAge:                  in.Age,
		AttrStudyHours:           in.StudyHours,
		AttrOnlineCourses:        in.OnlineCourses,
		AttrAssignmentCompletion: in.AssignmentCompletion,
		AttrExamScore:            in.ExamScore,
		AttrAttendance:           in.Attendance,
		AttrSocialMedia:          in.SocialMedia,
		AttrSleepHours:           in.SleepHours,
	}
}

func (in RawInput) categorical() map[Attribute]string {
	return map[Attribute]string{
		AttrGender:        in.Gender,
		AttrParticipation: in.Participation,
		AttrTechUse:       in.TechUse,
		AttrStressLevel:   in.StressLevel,
	}
}

// FieldError describes one out-of-range or unknown field value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against the ranges offered by the form.
func (in RawInput) Validate() error {
	err := inputValidator.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: describeFieldError(fe),
		})
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
