package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Node is one node of a tree in the XGBoost JSON dump format. Leaves carry
// Leaf; split nodes send values below SplitCondition to Yes.
type Node struct {
	NodeID         int      `json:"nodeid"`
	Split          string   `json:"split,omitempty"`
	SplitCondition float64  `json:"split_condition,omitempty"`
	Yes            int      `json:"yes,omitempty"`
	No             int      `json:"no,omitempty"`
	Missing        int      `json:"missing,omitempty"`
	Leaf           *float64 `json:"leaf,omitempty"`
	Children       []*Node  `json:"children,omitempty"`

	feature int
	yes     *Node
	no      *Node
}

// Model is a boosted tree ensemble. For NumClass > 2 tree i contributes to
// class i % NumClass; otherwise all trees add to one logistic margin and
// Classes must name the negative and positive labels.
type Model struct {
	FeatureNames []string `json:"feature_names"`
	NumClass     int      `json:"num_class"`
	BaseScore    float64  `json:"base_score"`
	Classes      []int    `json:"classes,omitempty"`
	Trees        []*Node  `json:"trees"`
}

// LoadModel reads and compiles a model artifact. A missing file is reported
// with an error satisfying errors.Is(err, os.ErrNotExist).
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseModel(data)
}

// ParseModel decodes and compiles a model artifact.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) classCount() int {
	if m.NumClass > 2 {
		return m.NumClass
	}
	return 2
}

func (m *Model) compile() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("model: no feature names")
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model: no trees")
	}
	if m.NumClass <= 2 && m.Classes == nil {
		return fmt.Errorf("model: binary model needs class labels")
	}
	if m.Classes != nil && len(m.Classes) != m.classCount() {
		return fmt.Errorf("model: %d class labels for %d classes", len(m.Classes), m.classCount())
	}
	cols := make(map[string]int, len(m.FeatureNames))
	for i, n := range m.FeatureNames {
		cols[n] = i
	}
	for i, t := range m.Trees {
		if err := compileNode(t, cols, len(m.FeatureNames)); err != nil {
			return fmt.Errorf("model: tree %d: %w", i, err)
		}
	}
	return nil
}

func compileNode(n *Node, cols map[string]int, width int) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	if n.Leaf != nil {
		return nil
	}
	idx, ok := cols[n.Split]
	if !ok {
		// Models trained without names refer to columns as f<index>.
		i, err := strconv.Atoi(strings.TrimPrefix(n.Split, "f"))
		if err != nil || !strings.HasPrefix(n.Split, "f") || i < 0 || i >= width {
			return fmt.Errorf("node %d: unknown feature %q", n.NodeID, n.Split)
		}
		idx = i
	}
	n.feature = idx
	for _, c := range n.Children {
		switch c.NodeID {
		case n.Yes:
			n.yes = c
		case n.No:
			n.no = c
		}
	}
	if n.yes == nil || n.no == nil {
		return fmt.Errorf("node %d: missing children", n.NodeID)
	}
	if err := compileNode(n.yes, cols, width); err != nil {
		return err
	}
	return compileNode(n.no, cols, width)
}

func (n *Node) eval(row []float64) float64 {
	for n.Leaf == nil {
		if row[n.feature] < n.SplitCondition {
			n = n.yes
		} else {
			n = n.no
		}
	}
	return *n.Leaf
}

// Predict returns the class label of each row. Rows must follow
// FeatureNames.
func (m *Model) Predict(rows [][]float64) []int {
	out := make([]int, len(rows))
	for i, row := range rows {
		out[i] = m.label(m.predictIndex(row))
	}
	return out
}

func (m *Model) predictIndex(row []float64) int {
	if m.NumClass <= 2 {
		margin := logit(m.BaseScore)
		for _, t := range m.Trees {
			margin += t.eval(row)
		}
		if margin > 0 {
			return 1
		}
		return 0
	}

	sums := make([]float64, m.NumClass)
	for i, t := range m.Trees {
		sums[i%m.NumClass] += t.eval(row)
	}
	best := 0
	for k := 1; k < len(sums); k++ {
		if sums[k] > sums[best] {
			best = k
		}
	}
	return best
}

func (m *Model) label(idx int) int {
	if m.Classes != nil {
		return m.Classes[idx]
	}
	return idx
}

func logit(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return math.Log(p / (1 - p))
}
