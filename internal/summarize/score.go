package summarize

import (
	"math"
	"sort"
)

// Weights tunes the relative contribution of the three sentence-scoring
// signals. The defaults favor salience, with position as a strong secondary
// signal; they are deliberately configuration, not constants, so deployments
// can adjust them per corpus.
type Weights struct {
	Position float64 // earlier sentences favored
	Salience float64 // content-word frequency weighted by inverse sentence frequency
	Length   float64 // penalty for very short or very long sentences
	IdealLen int     // word count at which the length signal peaks
}

// DefaultWeights returns the documented default scoring weights.
func DefaultWeights() Weights {
	return Weights{Position: 0.3, Salience: 0.5, Length: 0.2, IdealLen: 20}
}

func (w Weights) normalized() Weights {
	if w.Position <= 0 && w.Salience <= 0 && w.Length <= 0 {
		w = DefaultWeights()
	}
	if w.IdealLen <= 0 {
		w.IdealLen = 20
	}
	return w
}

type scored struct {
	index int
	score float64
}

// scoreSentences computes a deterministic score per sentence and returns the
// indices sorted best-first. Ties resolve to the earlier sentence.
func scoreSentences(sentences []string, w Weights) []scored {
	w = w.normalized()
	n := len(sentences)

	tokens := make([][]string, n)
	for i, s := range sentences {
		tokens[i] = contentWords(Tokenize(s))
	}

	// Term frequency across the section and per-sentence occurrence counts.
	tf := map[string]float64{}
	sf := map[string]float64{}
	for _, ts := range tokens {
		seen := map[string]struct{}{}
		for _, t := range ts {
			tf[t]++
			if _, ok := seen[t]; !ok {
				sf[t]++
				seen[t] = struct{}{}
			}
		}
	}

	var maxSal float64
	salience := make([]float64, n)
	for i, ts := range tokens {
		var sum float64
		for _, t := range ts {
			// tf-isf: frequent words matter, but words present in every
			// sentence discriminate nothing.
			sum += tf[t] * math.Log(1+float64(n)/sf[t])
		}
		if len(ts) > 0 {
			salience[i] = sum / float64(len(ts))
		}
		if salience[i] > maxSal {
			maxSal = salience[i]
		}
	}

	out := make([]scored, n)
	for i := range sentences {
		sal := 0.0
		if maxSal > 0 {
			sal = salience[i] / maxSal
		}
		pos := 1.0 / float64(1+i)
		length := lengthSignal(len(Tokenize(sentences[i])), w.IdealLen)
		out[i] = scored{
			index: i,
			score: w.Position*pos + w.Salience*sal + w.Length*length,
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].score != out[b].score {
			return out[a].score > out[b].score
		}
		return out[a].index < out[b].index
	})
	return out
}

// lengthSignal is 1.0 at the ideal word count, falling off linearly to 0 at
// zero words and at twice the ideal.
func lengthSignal(words, ideal int) float64 {
	d := math.Abs(float64(words - ideal))
	v := 1 - d/float64(ideal)
	if v < 0 {
		return 0
	}
	return v
}

func contentWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}
