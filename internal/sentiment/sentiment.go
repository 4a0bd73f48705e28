package sentiment

import (
	"github.com/jonreiter/govader"
	"github.com/nemirov/pulse-bot/internal/models"
)

// Tagger converts text into a sentiment score and label using a lexical
// polarity model. It is pure: any input, including the empty string,
// produces a result.
type Tagger struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewTagger() *Tagger {
	return &Tagger{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Analyze maps the model's compound polarity in [-1,1] onto a score in
// [0,100]: score > 60 is positive, score < 40 is negative, anything in
// between is neutral.
func (t *Tagger) Analyze(text string) models.Sentiment {
	polarity := t.analyzer.PolarityScores(text).Compound
	score := (polarity + 1) * 50

	return models.Sentiment{
		Score: score,
		Label: labelFor(score),
	}
}

func labelFor(score float64) string {
	switch {
	case score > 60:
		return models.SentimentPositive
	case score < 40:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
