package dataset

import "fmt"

// Label is the sentiment class of a comment.
type Label int

const (
	Negative Label = iota
	Positive
)

// String returns the human-readable class name.
func (l Label) String() string {
	switch l {
	case Negative:
		return "Negative"
	case Positive:
		return "Positive"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Example is a single labeled comment.
type Example struct {
	Text  string
	Label Label
}

// Corpus returns the built-in labeled comment corpus used for training.
// The first half is positive, the second half negative.
func Corpus() []Example {
	return []Example{
		{Text: "This video is amazing! Great content!", Label: Positive},
		{Text: "Love it! Very helpful tutorial.", Label: Positive},
		{Text: "Excellent work, keep it up!", Label: Positive},
		{Text: "Best video I've seen on this topic", Label: Positive},
		{Text: "Thank you for sharing this!", Label: Positive},
		{Text: "Very informative and well explained", Label: Positive},
		{Text: "Great quality content, subscribed!", Label: Positive},
		{Text: "This helped me a lot, thanks!", Label: Positive},
		{Text: "Perfect! Exactly what I needed", Label: Positive},
		{Text: "Outstanding video, loved it", Label: Positive},
		{Text: "Brilliant explanation, thank you!", Label: Positive},
		{Text: "This is exactly what I was looking for", Label: Positive},
		{Text: "Awesome content, very useful", Label: Positive},
		{Text: "Really appreciate this tutorial", Label: Positive},
		{Text: "Fantastic work, well done!", Label: Positive},
		{Text: "This is terrible, waste of time", Label: Negative},
		{Text: "Boring content, don't recommend", Label: Negative},
		{Text: "Not helpful at all", Label: Negative},
		{Text: "Disliked, very poor quality", Label: Negative},
		{Text: "This video is misleading", Label: Negative},
		{Text: "Awful content, unsubscribed", Label: Negative},
		{Text: "Worst tutorial ever", Label: Negative},
		{Text: "Complete waste of my time", Label: Negative},
		{Text: "Disappointed with this video", Label: Negative},
		{Text: "Horrible, do not watch", Label: Negative},
		{Text: "This is useless information", Label: Negative},
		{Text: "Terrible quality, very bad", Label: Negative},
		{Text: "Not worth watching at all", Label: Negative},
		{Text: "I regret watching this", Label: Negative},
		{Text: "Poorly made and unhelpful", Label: Negative},
	}
}

// DemoComments returns the fixed comments classified after training as a
// spot check of the fitted model.
func DemoComments() []string {
	return []string{
		"This is great!",
		"This is terrible!",
		"Amazing tutorial, thanks!",
		"Waste of time, very bad",
	}
}

// Texts extracts the comment texts from a slice of examples.
func Texts(examples []Example) []string {
	texts := make([]string, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
	}
	return texts
}

// Labels extracts the class labels from a slice of examples as ints.
func Labels(examples []Example) []int {
	labels := make([]int, len(examples))
	for i, ex := range examples {
		labels[i] = int(ex.Label)
	}
	return labels
}
