package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifactGlob = "../../models/*.model.json"

func loadTitanic(t *testing.T) *Pipeline {
	t.Helper()
	p, err := Load(artifactGlob)
	require.NoError(t, err)
	return p
}

func kellyRow() map[string][]any {
	return map[string][]any{
		"PassengerId": {892.0},
		"Pclass":      {3.0},
		"Name":        {"Kelly, Mr. James"},
		"Sex":         {"male"},
		"Age":         {34.5},
		"SibSp":       {0.0},
		"Fare":        {7.8292},
		"Embarked":    {"S"},
	}
}

// Scores the model on the last 100 rows of the training set.
func TestAccuracy(t *testing.T) {
	p := loadTitanic(t)
	train, err := ReadCSVFile("testdata/train.csv")
	require.NoError(t, err)

	features, labels, err := train.SplitLabels(p.LabelColumn())
	require.NoError(t, err)

	acc, err := p.Score(context.Background(), features.Tail(100), labels[len(labels)-100:])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.85)
}

func TestPipelineSteps(t *testing.T) {
	p := loadTitanic(t)
	steps := p.Steps()
	require.Len(t, steps, 2)

	_, ok := steps[0].Estimator.(*ColumnTransformer)
	assert.True(t, ok, "first step should be the column transformer, got %T", steps[0].Estimator)
	_, ok = steps[1].Estimator.(*LogisticRegression)
	assert.True(t, ok, "second step should be the classifier, got %T", steps[1].Estimator)
}

func TestPredictTestSet(t *testing.T) {
	p := loadTitanic(t)
	test, err := ReadCSVFile("testdata/test.csv")
	require.NoError(t, err)

	preds, err := p.Predict(context.Background(), test.Head(10))
	require.NoError(t, err)
	require.Len(t, preds, 10)
	for _, label := range preds {
		assert.Contains(t, []int{0, 1}, label)
	}
	assert.Equal(t, 0, preds[0])
}

func TestPredictBatch(t *testing.T) {
	p := loadTitanic(t)
	ctx := context.Background()

	f, err := NewFrame(kellyRow())
	require.NoError(t, err)
	preds, err := p.Predict(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, preds)

	f, err = NewFrame(map[string][]any{
		"PassengerId": {1.0, 2.0},
		"Pclass":      {1.0, 3.0},
		"Name":        {"Cumings, Mrs. Florence", "Braund, Mr. Owen"},
		"Sex":         {"female", "male"},
		"Age":         {29.0, 22.0},
		"SibSp":       {0.0, 1.0},
		"Fare":        {80.0, 7.25},
		"Embarked":    {"C", "S"},
	})
	require.NoError(t, err)
	preds, err = p.Predict(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, preds)
}

func TestPredictIsDeterministic(t *testing.T) {
	p := loadTitanic(t)
	test, err := ReadCSVFile("testdata/test.csv")
	require.NoError(t, err)

	first, err := p.Predict(context.Background(), test)
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), test)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictMissingValuesAreImputed(t *testing.T) {
	p := loadTitanic(t)
	data := kellyRow()
	for _, c := range []string{"Pclass", "Sex", "Age", "SibSp", "Fare", "Embarked"} {
		data[c] = []any{nil}
	}
	f, err := NewFrame(data)
	require.NoError(t, err)

	preds, err := p.Predict(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, preds)
}

func TestPredictVector(t *testing.T) {
	p := loadTitanic(t)
	ctx := context.Background()

	label, err := p.PredictVector(ctx, []any{892.0, 3.0, 0.0, 0.0, 34.5, 0.0, 7.8292, 0.0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	label, err = p.PredictVector(ctx, []any{892.0, 1.0, "Cumings, Mrs. Florence", "female", 29.0, 0.0, 80.0, "C"})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestPredictInputErrors(t *testing.T) {
	p := loadTitanic(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		kind InputErrorKind
	}{
		{
			name: "short vector",
			run: func() error {
				_, err := p.PredictVector(ctx, []any{892.0, 3.0})
				return err
			},
			kind: ShapeError,
		},
		{
			name: "missing column",
			run: func() error {
				data := kellyRow()
				delete(data, "Fare")
				f, err := NewFrame(data)
				require.NoError(t, err)
				_, err = p.Predict(ctx, f)
				return err
			},
			kind: ShapeError,
		},
		{
			name: "string in numeric column",
			run: func() error {
				data := kellyRow()
				data["Age"] = []any{"thirty"}
				f, err := NewFrame(data)
				require.NoError(t, err)
				_, err = p.Predict(ctx, f)
				return err
			},
			kind: TypeError,
		},
		{
			name: "labels do not match rows",
			run: func() error {
				f, err := NewFrame(kellyRow())
				require.NoError(t, err)
				_, err = p.Score(ctx, f, []int{0, 1})
				return err
			},
			kind: ShapeError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.kind, ie.Kind)
		})
	}
}

func TestPredictCanceledContext(t *testing.T) {
	p := loadTitanic(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, err := NewFrame(kellyRow())
	require.NoError(t, err)
	_, err = p.Predict(ctx, f)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInfo(t *testing.T) {
	p := loadTitanic(t)
	info := p.Info()
	assert.Equal(t, "titanic-survival", info.Name)
	assert.Equal(t, "0.0.1", info.Version)
	assert.Equal(t, []int{0, 1}, info.Classes)
	assert.Equal(t, "logistic_regression", info.Classifier)
	assert.Equal(t, []string{"PassengerId", "Pclass", "Name", "Sex", "Age", "SibSp", "Fare", "Embarked"}, info.InputColumns)
	assert.Len(t, info.Digest, 64)
}

func TestLoadErrors(t *testing.T) {
	valid, err := os.ReadFile("../../models/titanic.model.json")
	require.NoError(t, err)

	t.Run("no match", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "*.model.json"))
		assert.ErrorIs(t, err, ErrNoArtifact)
	})

	t.Run("ambiguous glob", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.model.json"), valid, 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.model.json"), valid, 0o600))
		_, err := Load(filepath.Join(dir, "*.model.json"))
		assert.ErrorIs(t, err, ErrAmbiguousArtifact)
	})

	t.Run("literal path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ml_model.json")
		require.NoError(t, os.WriteFile(path, valid, 0o600))
		_, err := Load(path)
		assert.NoError(t, err)
	})

	t.Run("corrupt", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "broken.model.json")
		require.NoError(t, os.WriteFile(path, valid[:len(valid)/2], 0o600))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrCorruptArtifact)
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{
			name:    "unknown format",
			payload: `{"format":"pickle"}`,
			want:    ErrUnsupportedFormat,
		},
		{
			name: "unknown classifier",
			payload: `{"format":"pipeline/v1","input_columns":["x"],
				"preprocessor":{"transformers":[{"name":"num","kind":"numeric","columns":["x"],"statistics":[0]}]},
				"classifier":{"kind":"svm","params":{}}}`,
			want: ErrUnknownClassifier,
		},
		{
			name: "width mismatch",
			payload: `{"format":"pipeline/v1","input_columns":["x"],
				"preprocessor":{"transformers":[{"name":"num","kind":"numeric","columns":["x"],"statistics":[0]}]},
				"classifier":{"kind":"logistic_regression","params":{"classes":[0,1],"coef":[1,2],"intercept":0}}}`,
			want: ErrCorruptArtifact,
		},
		{
			name: "transformer column not an input",
			payload: `{"format":"pipeline/v1","input_columns":["x"],
				"preprocessor":{"transformers":[{"name":"num","kind":"numeric","columns":["y"],"statistics":[0]}]},
				"classifier":{"kind":"logistic_regression","params":{"classes":[0,1],"coef":[1],"intercept":0}}}`,
			want: ErrCorruptArtifact,
		},
		{
			name: "statistics do not match columns",
			payload: `{"format":"pipeline/v1","input_columns":["x"],
				"preprocessor":{"transformers":[{"name":"num","kind":"numeric","columns":["x"]}]},
				"classifier":{"kind":"logistic_regression","params":{"classes":[0,1],"coef":[1],"intercept":0}}}`,
			want: ErrCorruptArtifact,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
