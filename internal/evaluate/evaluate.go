package evaluate

import (
	"fmt"
	"strings"
)

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarizes binary classification quality. Classes is indexed by
// label; Macro averages the two classes evenly while Weighted averages
// them by support.
type Report struct {
	Classes  [2]ClassMetrics
	Accuracy float64
	Macro    ClassMetrics
	Weighted ClassMetrics
}

// Accuracy returns the fraction of predictions matching the true labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLabels(yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// ConfusionMatrix counts predictions per true class. Rows are true labels,
// columns predicted labels, both in class order 0 then 1.
func ConfusionMatrix(yTrue, yPred []int) ([2][2]int, error) {
	var m [2][2]int
	if err := checkLabels(yTrue, yPred); err != nil {
		return m, err
	}
	for i := range yTrue {
		m[yTrue[i]][yPred[i]]++
	}
	return m, nil
}

// FormatConfusionMatrix renders a confusion matrix as an aligned
// two-row grid, e.g.
//
//	[[3 0]
//	 [1 2]]
func FormatConfusionMatrix(m [2][2]int) string {
	width := 1
	for _, row := range m {
		for _, n := range row {
			if w := len(fmt.Sprint(n)); w > width {
				width = w
			}
		}
	}
	return fmt.Sprintf("[[%*d %*d]\n [%*d %*d]]",
		width, m[0][0], width, m[0][1],
		width, m[1][0], width, m[1][1])
}

// ClassificationReport computes per-class precision, recall, F1 and
// support plus accuracy and macro/weighted averages. Undefined ratios
// (zero denominators) are reported as 0.
func ClassificationReport(yTrue, yPred []int) (Report, error) {
	var r Report
	m, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return r, err
	}

	total := len(yTrue)
	for c := 0; c < 2; c++ {
		tp := m[c][c]
		predicted := m[0][c] + m[1][c]
		actual := m[c][0] + m[c][1]

		cm := ClassMetrics{Support: actual}
		cm.Precision = ratio(tp, predicted)
		cm.Recall = ratio(tp, actual)
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		r.Classes[c] = cm
	}

	r.Accuracy = float64(m[0][0]+m[1][1]) / float64(total)
	r.Macro = ClassMetrics{
		Precision: (r.Classes[0].Precision + r.Classes[1].Precision) / 2,
		Recall:    (r.Classes[0].Recall + r.Classes[1].Recall) / 2,
		F1:        (r.Classes[0].F1 + r.Classes[1].F1) / 2,
		Support:   total,
	}
	r.Weighted = ClassMetrics{Support: total}
	for c := 0; c < 2; c++ {
		frac := float64(r.Classes[c].Support) / float64(total)
		r.Weighted.Precision += frac * r.Classes[c].Precision
		r.Weighted.Recall += frac * r.Classes[c].Recall
		r.Weighted.F1 += frac * r.Classes[c].F1
	}
	return r, nil
}

// Format renders the report as an aligned table: one row per class, a
// blank line, then accuracy and macro/weighted average rows.
func (r Report) Format(classNames [2]string) string {
	width := len("weighted avg")
	for _, name := range classNames {
		if len(name) > width {
			width = len(name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s ", width, "")
	for _, h := range []string{"precision", "recall", "f1-score", "support"} {
		fmt.Fprintf(&b, " %9s", h)
	}
	b.WriteString("\n\n")

	row := func(name string, m ClassMetrics) {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, name, m.Precision, m.Recall, m.F1, m.Support)
	}
	row(classNames[0], r.Classes[0])
	row(classNames[1], r.Classes[1])
	b.WriteString("\n")

	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Macro.Support)
	row("macro avg", r.Macro)
	row("weighted avg", r.Weighted)
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func checkLabels(yTrue, yPred []int) error {
	if len(yTrue) == 0 {
		return fmt.Errorf("evaluate: no labels")
	}
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("evaluate: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	for i := range yTrue {
		if yTrue[i] != 0 && yTrue[i] != 1 {
			return fmt.Errorf("evaluate: true label %d at index %d is not binary", yTrue[i], i)
		}
		if yPred[i] != 0 && yPred[i] != 1 {
			return fmt.Errorf("evaluate: predicted label %d at index %d is not binary", yPred[i], i)
		}
	}
	return nil
}
