package sentiment

import "math"

// Anchor values mapping each class onto the 1..5 mood scale.
const (
	anchorNegative = 1.0
	anchorNeutral  = 3.0
	anchorPositive = 5.0
)

// NeutralComposite is the composite score of a fully neutral distribution.
// Callers display it when an entry has no stored sentiment.
const NeutralComposite = anchorNeutral

// Score is a 3-class sentiment distribution with its composite mood score.
// The probabilities are each in [0,1] and sum to 1; Composite is in
// [1.0, 5.0] and rounded to 2 decimal places.
type Score struct {
	Negative  float64 `json:"negative" bson:"negative"`
	Neutral   float64 `json:"neutral" bson:"neutral"`
	Positive  float64 `json:"positive" bson:"positive"`
	Composite float64 `json:"composite_score" bson:"composite_score"`
}

// scoreFromLogits converts the classifier's three raw class scores into a
// Score. Logit order follows the model's label order: negative, neutral,
// positive.
func scoreFromLogits(logits []float32) Score {
	probs := softmax(logits)
	return Score{
		Negative:  probs[0],
		Neutral:   probs[1],
		Positive:  probs[2],
		Composite: compose(probs[0], probs[1], probs[2]),
	}
}

// softmax converts three logits into probabilities. The maximum logit is
// subtracted before exponentiation to keep the computation stable for
// large magnitudes.
func softmax(logits []float32) [3]float64 {
	var max float64 = math.Inf(-1)
	for _, l := range logits {
		if float64(l) > max {
			max = float64(l)
		}
	}

	var exps [3]float64
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l) - max)
		exps[i] = e
		sum += e
	}

	var probs [3]float64
	for i := range exps {
		probs[i] = exps[i] / sum
	}
	return probs
}

// compose maps a probability distribution onto the 1..5 scale via the
// fixed anchors, rounded to 2 decimal places.
func compose(neg, neu, pos float64) float64 {
	return round2(neg*anchorNegative + neu*anchorNeutral + pos*anchorPositive)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
