package moderation

import "context"

// Gate converts a raw toxicity score into the persisted blocked verdict.
// It performs no retries: a classifier failure propagates and the caller
// must abort the whole create/update.
type Gate struct {
	classifier Classifier
}

func NewGate(classifier Classifier) *Gate {
	return &Gate{classifier: classifier}
}

// Check scores the text and reports whether it must be blocked.
func (g *Gate) Check(ctx context.Context, text string) (bool, error) {
	score, err := g.classifier.Score(ctx, text)
	if err != nil {
		return false, err
	}
	return score > BlockThreshold, nil
}
