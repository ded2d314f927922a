package ml

import "errors"

// trainingColumns is the column layout of the reference training set,
// identifier dummies included.
var trainingColumns = []string{
	"Student_ID_S00001",
	"Student_ID_S00002",
	"Age",
	"Study_Hours_per_Week",
	"Online_Courses_Completed",
	"Assignment_Completion_Rate (%)",
	"Exam_Score (%)",
	"Attendance_Rate (%)",
	"Time_Spent_on_Social_Media (hours/week)",
	"Sleep_Hours_per_Night",
	"Gender_Female",
	"Gender_Male",
	"Participation_in_Discussions_High",
	"Participation_in_Discussions_Low",
	"Participation_in_Discussions_Medium",
	"Self_Reported_Stress_Level_High",
	"Self_Reported_Stress_Level_Low",
	"Self_Reported_Stress_Level_Medium",
	"Use_of_Educational_Tech_No",
	"Use_of_Educational_Tech_Yes",
}

// featureColumns is trainingColumns without the identifier dummies.
var featureColumns = trainingColumns[2:]

// passCoefficients weight exam score and attendance heavily, so the
// reference profile passes and a low exam score fails.
var passCoefficients = []float64{
	0.0, 0.05, 0.02, 0.02, 0.08, 0.03, -0.03, 0.05,
	0.0, 0.0, 0.1, -0.1, 0.0, -0.1, 0.0, 0.0, 0.0, 0.0,
}

const passIntercept = -8.5

// referenceInput is the worked example: an 18 year old male who studies 10
// hours, scores 70 and attends 80%.
func referenceInput() RawInput {
	in := DefaultInput()
	in.Age = 18
	in.StudyHours = 10
	in.ExamScore = 70
	in.Attendance = 80
	in.Gender = "Male"
	in.Participation = "Medium"
	in.StressLevel = "Low"
	in.TechUse = "Yes"
	return in
}

type stubPredictor struct {
	label    int
	err      error
	panicMsg string
	width    int
	calls    int
}

func (s *stubPredictor) Predict(features []float64) (int, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.label, s.err
}

func (s *stubPredictor) NumFeatures() int { return s.width }

var errStub = errors.New("stub failure")
