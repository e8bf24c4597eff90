package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

// BodyClass is the class label for non-heading lines.
const BodyClass = 99

// classLevels maps model class labels to heading levels.
var classLevels = map[int]int{0: 1, 1: 2, 2: 3, 3: 4, 4: 5, BodyClass: 0}

// LevelOf returns the heading level of a class label; unknown labels are body.
func LevelOf(class int) int {
	return classLevels[class]
}

// Classifier labels lines with a tree model over encoded features. A nil
// model labels every line as body.
type Classifier struct {
	model    *Model
	encoders *EncoderCache
	log      *slog.Logger
}

func New(model *Model, encoders *EncoderCache, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	if encoders == nil {
		encoders = NewEncoderCache("", log)
	}
	return &Classifier{model: model, encoders: encoders, log: log}
}

// Load opens the model and encoder artifacts. A missing model is not an
// error: the classifier then treats every line as body.
func Load(modelPath, encoderPath string, log *slog.Logger) (*Classifier, error) {
	if log == nil {
		log = slog.Default()
	}
	var model *Model
	if modelPath != "" {
		m, err := LoadModel(modelPath)
		switch {
		case err == nil:
			model = m
		case errors.Is(err, os.ErrNotExist):
			log.Warn("classifier model not found, all lines will be body", "path", modelPath)
		default:
			return nil, fmt.Errorf("load model: %w", err)
		}
	}
	return New(model, NewEncoderCache(encoderPath, log), log), nil
}

// HasModel reports whether a trained model is loaded.
func (c *Classifier) HasModel() bool { return c.model != nil }

// Matrix builds the encoded feature matrix of lines and its column names.
func (c *Classifier) Matrix(lines []layout.Line) ([]string, [][]float64, error) {
	feats := make([]Features, len(lines))
	for i, l := range lines {
		feats[i] = FeaturesOf(l)
	}
	enc, err := c.encoders.Get(feats)
	if err != nil {
		return nil, nil, err
	}

	cols := append(append([]string{}, NumericColumns...), enc.Columns()...)
	rows := make([][]float64, len(feats))
	for i, f := range feats {
		rows[i] = append(f.Numeric(), enc.Encode(f)...)
	}
	return cols, rows, nil
}

// Label implements heading.Labeler.
func (c *Classifier) Label(lines []layout.Line) ([]int, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	cols, rows, err := c.Matrix(lines)
	if err != nil {
		return nil, err
	}

	levels := make([]int, len(lines))
	if c.model == nil {
		return levels, nil
	}

	rows, drift := Reconcile(cols, rows, c.model.FeatureNames)
	if err := drift.Err(); err != nil {
		c.log.Warn("feature schema reconciled", "error", err,
			"missing", len(drift.Missing), "extra", len(drift.Extra))
	}
	for i, class := range c.model.Predict(rows) {
		levels[i] = LevelOf(class)
	}
	return levels, nil
}
