// Package timbre provides comment-sentiment analysis backed by the
// artifacts of a timbre training run.
//
// Quick start:
//
//	a, err := timbre.New(timbre.WithArtifactsDir("artifacts"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, _ := a.Analyze("Amazing tutorial, thanks!")
//	fmt.Println(p.Sentiment, p.Confidence) // Positive 0.87
//
// When no artifacts exist yet, Train runs the full training pipeline
// and returns an Analyzer in one step. The Analyzer is safe for
// concurrent use: create it once and share it across requests.
package timbre
