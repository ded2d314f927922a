package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"studentpass/ml"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict Pass or Fail for one student profile given as flags",
	RunE:  runPredict,
}

func init() {
	d := ml.DefaultInput()
	f := predictCmd.Flags()
	f.Float64("age", d.Age, "Age [10,30]")
	f.String("gender", d.Gender, "Gender: Male or Female")
	f.Float64("study-hours", d.StudyHours, "Study hours per week [0,40]")
	f.Float64("online-courses", d.OnlineCourses, "Online courses completed [0,20]")
	f.String("participation", d.Participation, "Participation in discussions: Low, Medium or High")
	f.Float64("assignment-completion", d.AssignmentCompletion, "Assignment completion rate % [0,100]")
	f.Float64("exam-score", d.ExamScore, "Exam score % [0,100]")
	f.Float64("attendance", d.Attendance, "Attendance rate % [0,100]")
	f.String("tech-use", d.TechUse, "Use of educational tech: Yes or No")
	f.String("stress-level", d.StressLevel, "Self-reported stress level: Low, Medium or High")
	f.Float64("social-media", d.SocialMedia, "Time on social media, hours per week [0,50]")
	f.Float64("sleep-hours", d.SleepHours, "Sleep hours per night [0,12]")
	f.Bool("show-row", false, "Print the encoded row sent to the model")
	f.Bool("json", false, "Print the result as JSON")
}

func inputFromFlags(cmd *cobra.Command) ml.RawInput {
	f := cmd.Flags()
	var in ml.RawInput
	in.Age, _ = f.GetFloat64("age")
	in.Gender, _ = f.GetString("gender")
	in.StudyHours, _ = f.GetFloat64("study-hours")
	in.OnlineCourses, _ = f.GetFloat64("online-courses")
	in.Participation, _ = f.GetString("participation")
	in.AssignmentCompletion, _ = f.GetFloat64("assignment-completion")
	in.ExamScore, _ = f.GetFloat64("exam-score")
	in.Attendance, _ = f.GetFloat64("attendance")
	in.TechUse, _ = f.GetString("tech-use")
	in.StressLevel, _ = f.GetString("stress-level")
	in.SocialMedia, _ = f.GetFloat64("social-media")
	in.SleepHours, _ = f.GetFloat64("sleep-hours")
	return in
}

func runPredict(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	pred, err := e.svc.Predict(cmd.Context(), inputFromFlags(cmd))
	if err != nil {
		var perr *ml.PredictionError
		if errors.As(err, &perr) {
			return fmt.Errorf("prediction failed: %w", perr)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"label":      int(pred.Label),
			"prediction": pred.Label.String(),
			"row":        pred.Row.Features(),
		})
	}
	if showRow, _ := cmd.Flags().GetBool("show-row"); showRow {
		for _, feat := range pred.Row.Features() {
			fmt.Fprintf(out, "%-45s %g\n", feat.Column, feat.Value)
		}
	}
	fmt.Fprintln(out, pred.Label)
	return nil
}
