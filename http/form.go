package http

import (
	"net/url"
	"strconv"
	"strings"

	"studentpass/ml"
)

// sliderField is a numeric form control with its allowed range.
type sliderField struct {
	Name  string
	Label string
	Min   int
	Max   int
	Value float64
}

// selectField is a categorical form control.
type selectField struct {
	Name    string
	Label   string
	Options []string
	Value   string
}

// formControl renders either a slider or a select.
type formControl struct {
	Slider *sliderField
	Select *selectField
}

// formColumns lays the controls out in the two columns of the form.
func formColumns(in ml.RawInput) [2][]formControl {
	slider := func(name, label string, min, max int, v float64) formControl {
		return formControl{Slider: &sliderField{Name: name, Label: label, Min: min, Max: max, Value: v}}
	}
	choice := func(name, label string, options []string, v string) formControl {
		return formControl{Select: &selectField{Name: name, Label: label, Options: options, Value: v}}
	}
	return [2][]formControl{
		{
			slider("age", "Age", 10, 30, in.Age),
			choice("gender", "Gender", ml.GenderOptions, in.Gender),
			slider("study_hours", "Study Hours/Week", 0, 40, in.StudyHours),
			slider("online_courses", "Online Courses Completed", 0, 20, in.OnlineCourses),
			choice("participation", "Participation in Discussions", ml.ParticipationOptions, in.Participation),
			slider("assignment_completion", "Assignment Completion Rate (%)", 0, 100, in.AssignmentCompletion),
		},
		{
			slider("exam_score", "Exam Score (%)", 0, 100, in.ExamScore),
			slider("attendance", "Attendance Rate (%)", 0, 100, in.Attendance),
			choice("tech_use", "Use of Educational Tech", ml.TechUseOptions, in.TechUse),
			choice("stress_level", "Self-Reported Stress Level", ml.StressOptions, in.StressLevel),
			slider("social_media", "Time on Social Media (hrs/week)", 0, 50, in.SocialMedia),
			slider("sleep_hours", "Sleep Hours per Night", 0, 12, in.SleepHours),
		},
	}
}

// parseForm reads a submission. Absent fields keep their form defaults;
// fields that are not numbers are reported together.
func parseForm(values url.Values) (ml.RawInput, error) {
	in := ml.DefaultInput()
	var fields []ml.FieldError

	number := func(name string, dst *float64) {
		v := strings.TrimSpace(values.Get(name))
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fields = append(fields, ml.FieldError{Field: name, Message: "must be a number"})
			return
		}
		*dst = f
	}
	text := func(name string, dst *string) {
		if v := strings.TrimSpace(values.Get(name)); v != "" {
			*dst = v
		}
	}

	number("age", &in.Age)
	text("gender", &in.Gender)
	number("study_hours", &in.StudyHours)
	number("online_courses", &in.OnlineCourses)
	text("participation", &in.Participation)
	number("assignment_completion", &in.AssignmentCompletion)
	number("exam_score", &in.ExamScore)
	number("attendance", &in.Attendance)
	text("tech_use", &in.TechUse)
	text("stress_level", &in.StressLevel)
	number("social_media", &in.SocialMedia)
	number("sleep_hours", &in.SleepHours)

	if len(fields) > 0 {
		return in, &ml.ValidationError{Fields: fields}
	}
	return in, nil
}
