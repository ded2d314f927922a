package ml

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// numericColumns maps direct scalar attributes to their training columns.
var numericColumns = map[Attribute]string{
	AttrAge:                  "Age",
	AttrStudyHours:           "Study_Hours_per_Week",
	AttrOnlineCourses:        "Online_Courses_Completed",
	AttrAssignmentCompletion: "Assignment_Completion_Rate (%)",
	AttrExamScore:            "Exam_Score (%)",
	AttrAttendance:           "Attendance_Rate (%)",
	AttrSocialMedia:          "Time_Spent_on_Social_Media (hours/week)",
	AttrSleepHours:           "Sleep_Hours_per_Night",
}

type optionKey struct {
	attr   Attribute
	option string
}

// oneHotColumns enumerates every (attribute, option) indicator column the
// form can set.
var oneHotColumns = map[optionKey]string{
	{AttrGender, "Male"}:          "Gender_Male",
	{AttrGender, "Female"}:        "Gender_Female",
	{AttrParticipation, "Low"}:    "Participation_in_Discussions_Low",
	{AttrParticipation, "Medium"}: "Participation_in_Discussions_Medium",
	{AttrParticipation, "High"}:   "Participation_in_Discussions_High",
	{AttrStressLevel, "Low"}:      "Self_Reported_Stress_Level_Low",
	{AttrStressLevel, "Medium"}:   "Self_Reported_Stress_Level_Medium",
	{AttrStressLevel, "High"}:     "Self_Reported_Stress_Level_High",
	{AttrTechUse, "Yes"}:          "Use_of_Educational_Tech_Yes",
	{AttrTechUse, "No"}:           "Use_of_Educational_Tech_No",
}

// Feature is one named cell of an encoded row.
type Feature struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// EncodedRow is a single feature vector aligned to the effective schema.
type EncodedRow struct {
	columns []string
	values  []float64
}

func (r EncodedRow) Columns() []string { return append([]string(nil), r.columns...) }

func (r EncodedRow) Values() []float64 { return append([]float64(nil), r.values...) }

func (r EncodedRow) Len() int { return len(r.values) }

// Get returns the value of column, or false if the row has no such column.
func (r EncodedRow) Get(column string) (float64, bool) {
	for i, name := range r.columns {
		if name == column {
			return r.values[i], true
		}
	}
	return 0, false
}

// Features returns the row as ordered (column, value) pairs.
func (r EncodedRow) Features() []Feature {
	out := make([]Feature, len(r.columns))
	for i := range r.columns {
		out[i] = Feature{Column: r.columns[i], Value: r.values[i]}
	}
	return out
}

// key is a compact fingerprint of the values, used for memoization.
func (r EncodedRow) key() string {
	var b strings.Builder
	for i, v := range r.values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// Encoder turns raw form input into rows aligned with a model schema.
// The attribute-to-column mapping is resolved against the schema once, in
// NewEncoder; Encode never builds column names.
type Encoder struct {
	schema   *Schema
	dropped  []string
	numeric  map[Attribute]int
	oneHot   map[optionKey]int
	unmapped []string
}

// NewEncoder resolves the column mapping against schema after removing the
// columns matched by identifiers (nil keeps every column).
func NewEncoder(schema *Schema, identifiers *regexp.Regexp) (*Encoder, error) {
	effective, dropped, err := schema.WithoutIdentifiers(identifiers)
	if err != nil {
		return nil, err
	}
	enc := &Encoder{
		schema:  effective,
		dropped: dropped,
		numeric: make(map[Attribute]int, len(numericColumns)),
		oneHot:  make(map[optionKey]int, len(oneHotColumns)),
	}
	for attr, column := range numericColumns {
		if i, ok := effective.Index(column); ok {
			enc.numeric[attr] = i
		} else {
			enc.unmapped = append(enc.unmapped, column)
		}
	}
	for key, column := range oneHotColumns {
		if i, ok := effective.Index(column); ok {
			enc.oneHot[key] = i
		} else {
			enc.unmapped = append(enc.unmapped, column)
		}
	}
	sort.Strings(enc.unmapped)
	return enc, nil
}

// Schema is the effective schema every encoded row follows.
func (e *Encoder) Schema() *Schema { return e.schema }

// Dropped lists identifier columns removed from the model schema.
func (e *Encoder) Dropped() []string { return append([]string(nil), e.dropped...) }

// Unmapped lists form columns that the model schema does not contain.
// Inputs that would set them are ignored.
func (e *Encoder) Unmapped() []string { return append([]string(nil), e.unmapped...) }

// Check reports every unmapped column as a combined error, or nil.
func (e *Encoder) Check() error {
	var err error
	for _, column := range e.unmapped {
		err = multierr.Append(err, fmt.Errorf("column %q not in model schema", column))
	}
	return err
}

// Encode builds the row for in. Columns the input does not set stay 0.
func (e *Encoder) Encode(in RawInput) EncodedRow {
	row := EncodedRow{
		columns: e.schema.columns,
		values:  make([]float64, e.schema.Len()),
	}
	for attr, v := range in.numeric() {
		if i, ok := e.numeric[attr]; ok {
			row.values[i] = v
		}
	}
	for attr, option := range in.categorical() {
		if i, ok := e.oneHot[optionKey{attr, option}]; ok {
			row.values[i] = 1
		}
	}
	return row
}
