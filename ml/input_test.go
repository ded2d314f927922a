package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultInputIsValid(t *testing.T) {
	require.NoError(t, DefaultInput().Validate())
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawInput)
		field  string
	}{
		{"age too low", func(in *RawInput) { in.Age = 9 }, "age"},
		{"age too high", func(in *RawInput) { in.Age = 31 }, "age"},
		{"study hours", func(in *RawInput) { in.StudyHours = 41 }, "study_hours"},
		{"online courses", func(in *RawInput) { in.OnlineCourses = -1 }, "online_courses"},
		{"assignment completion", func(in *RawInput) { in.AssignmentCompletion = 101 }, "assignment_completion"},
		{"exam score", func(in *RawInput) { in.ExamScore = 120 }, "exam_score"},
		{"attendance", func(in *RawInput) { in.Attendance = -5 }, "attendance"},
		{"social media", func(in *RawInput) { in.SocialMedia = 51 }, "social_media"},
		{"sleep hours", func(in *RawInput) { in.SleepHours = 13 }, "sleep_hours"},
		{"gender", func(in *RawInput) { in.Gender = "Other" }, "gender"},
		{"participation", func(in *RawInput) { in.Participation = "Sometimes" }, "participation"},
		{"tech use", func(in *RawInput) { in.TechUse = "" }, "tech_use"},
		{"stress level", func(in *RawInput) { in.StressLevel = "Extreme" }, "stress_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInput()
			tt.mutate(&in)

			err := in.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.NotEmpty(t, verr.Fields[0].Message)
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	in := DefaultInput()
	in.Age = 100
	in.Gender = "x"

	var verr *ValidationError
	require.ErrorAs(t, in.Validate(), &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Error(), "age: must be at most 30")
	assert.Contains(t, verr.Error(), "gender: must be one of Male, Female")
}

func TestNormalize(t *testing.T) {
	in := DefaultInput()
	in.Gender = "female"
	in.Participation = " MEDIUM "
	in.TechUse = "no"
	in.StressLevel = "hIGH"

	got := in.Normalize()
	assert.Equal(t, "Female", got.Gender)
	assert.Equal(t, "Medium", got.Participation)
	assert.Equal(t, "No", got.TechUse)
	assert.Equal(t, "High", got.StressLevel)
	require.NoError(t, got.Validate())
}
