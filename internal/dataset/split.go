package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Split shuffles examples with the given seed and partitions them into train
// and test subsets. The test subset holds ceil(len(examples)*testFraction)
// examples. The same seed always produces the same partition.
func Split(examples []Example, testFraction float64, seed int64) (train, test []Example, err error) {
	if len(examples) == 0 {
		return nil, nil, fmt.Errorf("dataset: split: no examples")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("dataset: split: test fraction must be in (0, 1), got %v", testFraction)
	}

	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(math.Ceil(float64(len(shuffled)) * testFraction))
	if nTest >= len(shuffled) {
		return nil, nil, fmt.Errorf("dataset: split: test fraction %v leaves no training examples", testFraction)
	}
	return shuffled[nTest:], shuffled[:nTest], nil
}
