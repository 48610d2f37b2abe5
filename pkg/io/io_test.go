package io

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type testModel struct {
	Name    string
	Weights []float64
}

func init() {
	gob.Register(&testModel{})
}

const testParameters = `
test_size: 0.25
random_state: 7
target: math_score
numeric_features: [reading_score, writing_score]
nominal_features: [gender, lunch]
ordinal:
  features: [parental_level_of_education]
  categories:
    parental_level_of_education: [some high school, high school, some college]
imputer:
  strategy: median
`

func testTable() *Table {
	t := NewTable([]string{"gender", "reading_score", "math_score"})
	t.Rows = [][]string{
		{"male", "72", "70"},
		{"female", "", "65"},
		{"NA", "90", "88"},
		{"female", "55", "51"},
	}
	return t
}

func TestStore_TableRoundTrip(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	table := testTable()

	require.NoError(t, store.SaveTable("artifacts/train.csv", table))
	require.True(t, store.Exists("artifacts/train.csv"))
	require.False(t, store.Exists("artifacts/train.csv.tmp"))

	loaded, err := store.LoadTable("artifacts/train.csv")
	require.NoError(t, err)
	require.Equal(t, table.Columns, loaded.Columns)
	require.Equal(t, table.Rows, loaded.Rows)

	col, err := loaded.Column("gender")
	require.NoError(t, err)
	require.Equal(t, []string{"male", "female", "NA", "female"}, col)
}

func TestStore_Config(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "conf/parameters.yml", []byte(testParameters), 0644))
	store := NewStore(fs)

	p, err := store.LoadConfig("conf/parameters.yml")
	require.NoError(t, err)
	require.Equal(t, 0.25, p.TestSize)
	require.NotNil(t, p.RandomState)
	require.Equal(t, int64(7), *p.RandomState)
	require.Equal(t, "math_score", p.Target)
	require.Equal(t, []string{"gender", "lunch"}, p.NominalFeatures)
	require.Equal(t, []string{"parental_level_of_education"}, p.Ordinal.Features)
	require.Equal(t, "high school", p.Ordinal.Categories["parental_level_of_education"][1])
	require.Equal(t, ImputeMedian, p.Imputer.Strategy)
	// not present in the file, so the default survives
	require.Equal(t, 1.0, p.Model.Alpha)

	require.NoError(t, store.SaveConfig("conf/copy.yml", p))
	copied, err := store.LoadConfig("conf/copy.yml")
	require.NoError(t, err)
	require.Equal(t, p, copied)
}

func TestReadParameters_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"test size", "test_size: 1.5\ntarget: y\n"},
		{"target", "test_size: 0.2\n"},
		{"strategy", "target: y\nimputer:\n  strategy: knn\n"},
		{"alpha", "target: y\nmodel:\n  alpha: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadParameters(strings.NewReader(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestStore_ModelRoundTrip(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	m := &testModel{Name: "ridge", Weights: []float64{0.5, -1.25}}

	require.NoError(t, store.SaveModel("artifacts/model.pkl", m))
	loaded, err := store.LoadModel("artifacts/model.pkl")
	require.NoError(t, err)
	require.Equal(t, m, loaded)
}

func TestStore_Errors(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())

	_, err := store.LoadTable("artifacts/missing.csv")
	require.Error(t, err)

	err = store.Save("artifacts/x", &Artifact{Kind: ArtifactKind(9), Table: testTable()})
	require.True(t, errors.Is(err, ErrUnknownArtifactKind))

	err = store.Save("artifacts/x", &Artifact{Kind: ModelArtifact, Table: testTable()})
	require.True(t, errors.Is(err, ErrArtifactKindMismatch))

	_, err = store.Load(ArtifactKind(9), "artifacts/x")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(store.Fs(), "artifacts/broken.pkl", []byte("not gob"), 0644))
	_, err = store.LoadModel("artifacts/broken.pkl")
	require.Error(t, err)
}

type statErrorFs struct {
	afero.Fs
}

func (statErrorFs) Stat(name string) (os.FileInfo, error) {
	return nil, os.ErrPermission
}

func TestStore_ExistsOnStatError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "artifacts/model.pkl", []byte("x"), 0644))
	require.True(t, NewStore(fs).Exists("artifacts/model.pkl"))
	require.False(t, NewStore(statErrorFs{fs}).Exists("artifacts/model.pkl"))
}

func TestReadTable_RaggedRow(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n1,2\n3\n"))
	require.Error(t, err)
}

func TestTable_Float64Column(t *testing.T) {
	table := testTable()
	values, missing, err := table.Float64Column("reading_score")
	require.NoError(t, err)
	require.Equal(t, []float64{72, 0, 90, 55}, values)
	require.Equal(t, []bool{false, true, false, false}, missing)

	_, _, err = table.Float64Column("gender")
	require.Error(t, err)
	// "male" is the first data row, line 2 of the file
	require.Contains(t, err.Error(), "line 2")

	_, _, err = table.Float64Column("writing_score")
	require.True(t, errors.Is(err, ErrMissingColumn))
}

func TestDataSet_TrainTestSplit(t *testing.T) {
	table := NewTable([]string{"id"})
	for i := 0; i < 10; i++ {
		require.NoError(t, table.Append([]string{string(rune('a' + i))}))
	}

	split := func(seed int64) (*Table, *Table) {
		ds := NewDataSet(table, rand.New(rand.NewSource(seed)))
		train, test, err := ds.TrainTestSplit(0.25)
		require.NoError(t, err)
		return train, test
	}

	train, test := split(42)
	require.Equal(t, 7, train.Size())
	require.Equal(t, 3, test.Size())

	seen := NewSet()
	for _, row := range append(train.Rows, test.Rows...) {
		seen[row[0]] = Void
	}
	require.Equal(t, 10, len(seen))

	train2, test2 := split(42)
	require.Equal(t, train.Rows, train2.Rows)
	require.Equal(t, test.Rows, test2.Rows)

	_, _, err := NewDataSet(NewTable([]string{"id"}), rand.New(rand.NewSource(1))).TrainTestSplit(0.5)
	require.Error(t, err)

	_, err = NewDataSet(table, rand.New(rand.NewSource(1))).RandomSplit(8, 3)
	require.Error(t, err)
}

func TestStudentRecords(t *testing.T) {
	input := "gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,reading_score,writing_score\n" +
		"female,group B,bachelor's degree,standard,none,72,74\n" +
		"male,group C,some college,free/reduced,completed,20,20\n"

	records, err := ReadStudentRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 2, len(records))
	require.Equal(t, "free/reduced", records[1].Lunch)
	require.Equal(t, 74, records[0].WritingScore)

	table := StudentTable(records...)
	require.Equal(t, 2, table.Size())
	require.Equal(t, []string{"male", "group C", "some college", "free/reduced", "completed", "20", "20"}, table.Rows[1])

	var out bytes.Buffer
	require.NoError(t, WriteScoredRecords(&out, []ScoredRecord{{StudentRecord: records[0], MathScore: 71}}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, 2, len(lines))
	require.True(t, strings.HasSuffix(lines[0], "math_score"))
	require.True(t, strings.HasSuffix(lines[1], ",71"))
}

func TestReadStudentRecords_Rejects(t *testing.T) {
	header := "gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,reading_score,writing_score\n"
	tests := map[string]struct {
		input string
		want  error
		line  string
	}{
		"missing score column": {
			input: "gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,writing_score\n" +
				"female,group B,bachelor's degree,standard,none,74\n",
			want: ErrMissingColumn,
		},
		"missing categorical column": {
			input: "gender,race_ethnicity,parental_level_of_education,test_preparation_course,reading_score,writing_score\n" +
				"female,group B,bachelor's degree,none,72,74\n",
			want: ErrMissingColumn,
		},
		"empty score": {
			input: header +
				"female,group B,bachelor's degree,standard,none,72,74\n" +
				"male,group C,some college,standard,none,,70\n",
			want: ErrInvalidScore,
			line: "line 3",
		},
		"fractional score": {
			input: header + "female,group B,bachelor's degree,standard,none,72.9,74\n",
			want:  ErrInvalidScore,
			line:  "line 2",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadStudentRecords(strings.NewReader(tt.input))
			require.True(t, errors.Is(err, tt.want), "%v", err)
			if tt.line != "" {
				require.Contains(t, err.Error(), tt.line)
			}
		})
	}

	records, err := ReadStudentRecords(strings.NewReader(header))
	require.NoError(t, err)
	require.Empty(t, records)
}
