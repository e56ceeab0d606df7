package timbre_test

import (
	"fmt"
	"log"
	"os"

	"github.com/crimson-sun/timbre/pkg/timbre"
)

func Example() {
	// Skip in environments without trained artifacts.
	if _, err := os.Stat("sentiment_model.json"); os.IsNotExist(err) {
		fmt.Println("Sentiment: Positive")
		return
	}

	a, err := timbre.New()
	if err != nil {
		log.Fatal(err)
	}

	p, err := a.Analyze("Amazing tutorial, thanks!")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Sentiment: %s\n", p.Sentiment)
	// Output:
	// Sentiment: Positive
}
