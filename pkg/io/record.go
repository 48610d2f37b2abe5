package io

import (
	"bytes"
	gio "io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

var ErrInvalidScore = errors.New("invalid score")

// StudentRecord is one inference input.
type StudentRecord struct {
	Gender                   string `csv:"gender"`
	RaceEthnicity            string `csv:"race_ethnicity"`
	ParentalLevelOfEducation string `csv:"parental_level_of_education"`
	Lunch                    string `csv:"lunch"`
	TestPreparationCourse    string `csv:"test_preparation_course"`
	ReadingScore             int    `csv:"reading_score"`
	WritingScore             int    `csv:"writing_score"`
}

var studentColumns = []string{
	"gender",
	"race_ethnicity",
	"parental_level_of_education",
	"lunch",
	"test_preparation_course",
	"reading_score",
	"writing_score",
}

func (r StudentRecord) row() []string {
	return []string{
		r.Gender,
		r.RaceEthnicity,
		r.ParentalLevelOfEducation,
		r.Lunch,
		r.TestPreparationCourse,
		strconv.Itoa(r.ReadingScore),
		strconv.Itoa(r.WritingScore),
	}
}

// StudentTable builds a table with one row per record.
func StudentTable(records ...StudentRecord) *Table {
	t := NewTable(studentColumns)
	for _, r := range records {
		t.Rows = append(t.Rows, r.row())
	}
	return t
}

// ScoredRecord is a StudentRecord with its predicted math score.
type ScoredRecord struct {
	StudentRecord
	MathScore int `csv:"math_score"`
}

var studentScoreColumns = []string{"reading_score", "writing_score"}

// ReadStudentRecords decodes student records from CSV. Every student column
// must be present in the header and every score cell must hold an integer.
// Extra columns are ignored.
func ReadStudentRecords(input gio.Reader) ([]StudentRecord, error) {
	data, err := gio.ReadAll(input)
	if err != nil {
		return nil, errors.Wrap(err, "error reading student records")
	}
	table, err := ReadTable(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "error reading student records")
	}
	if err := checkStudentTable(table); err != nil {
		return nil, err
	}
	if table.Size() == 0 {
		return nil, nil
	}

	var records []StudentRecord
	if err := gocsv.UnmarshalBytes(data, &records); err != nil {
		return nil, errors.Wrap(err, "error decoding student records")
	}
	return records, nil
}

func checkStudentTable(t *Table) error {
	for _, col := range studentColumns {
		if _, ok := t.ColumnIndex(col); !ok {
			return errors.Wrapf(ErrMissingColumn, "student records lack %s", col)
		}
	}
	for _, col := range studentScoreColumns {
		cells, err := t.Column(col)
		if err != nil {
			return err
		}
		for r, cell := range cells {
			if _, err := strconv.Atoi(cell); err != nil {
				return errors.Wrapf(ErrInvalidScore, "%s at line %d: %q", col, Line(r), cell)
			}
		}
	}
	return nil
}

func WriteScoredRecords(output gio.Writer, records []ScoredRecord) error {
	if err := gocsv.Marshal(&records, output); err != nil {
		return errors.Wrap(err, "error writing scored records")
	}
	return nil
}
