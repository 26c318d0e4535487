package tidlrt

import (
	"math"
	"testing"
)

func TestTopK(t *testing.T) {

	// index 0 holds the highest score but is the background class
	scores := []float32{0.9, 0.1, 0.5, 0.3, 0.5, 0.05}

	probs := TopK(scores, 3, 1)

	if len(probs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(probs))
	}

	// ties between index 2 and 4 break by ascending index
	expected := []Probability{
		{LabelIndex: 2, Probability: 0.5},
		{LabelIndex: 4, Probability: 0.5},
		{LabelIndex: 3, Probability: 0.3},
	}

	for i, want := range expected {
		if probs[i] != want {
			t.Errorf("result %d: expected %+v, got %+v", i, want, probs[i])
		}
	}
}

func TestTopKDescending(t *testing.T) {

	scores := []float32{0.01, 0.2, 0.9, 0.15, 0.4, 0.05, 0.3}

	probs := TopK(scores, 5, 1)

	for i := 1; i < len(probs); i++ {
		if probs[i].Probability > probs[i-1].Probability {
			t.Errorf("probabilities not descending: index %d has %v > previous %v",
				i, probs[i].Probability, probs[i-1].Probability)
		}
	}
}

func TestTopKShortScores(t *testing.T) {

	probs := TopK([]float32{0.5, 0.3}, 5, 1)

	if len(probs) != 1 {
		t.Fatalf("expected 1 result for 2 scores with background skip, got %d",
			len(probs))
	}

	if probs[0].LabelIndex != 1 {
		t.Errorf("expected label index 1, got %d", probs[0].LabelIndex)
	}
}

func TestTopKNegativeK(t *testing.T) {

	probs := TopK([]float32{0.1, 0.5, 0.3}, -1, 1)

	if len(probs) != 0 {
		t.Errorf("expected no results for negative k, got %d", len(probs))
	}
}

func TestGetTop5NoOutputs(t *testing.T) {

	if probs := GetTop5(nil); probs != nil {
		t.Errorf("expected nil for empty outputs, got %d results", len(probs))
	}

	// an output tensor with no data yields no matches rather than panicking
	probs := GetTop5([]Output{{Index: 0}})

	if len(probs) != 0 {
		t.Errorf("expected no results for empty score vector, got %d", len(probs))
	}
}

func TestGetTop5SkipsBackground(t *testing.T) {

	scores := make([]float32, 1001)
	scores[0] = 1.0
	scores[42] = 0.8
	scores[7] = 0.6

	outputs := []Output{{Index: 0, BufFloat: scores}}

	probs := GetTop5(outputs)

	if len(probs) != 5 {
		t.Fatalf("expected 5 results, got %d", len(probs))
	}

	for _, p := range probs {
		if p.LabelIndex == 0 {
			t.Errorf("background class index 0 included in top5")
		}
	}

	if probs[0].LabelIndex != 42 || probs[1].LabelIndex != 7 {
		t.Errorf("expected classes 42, 7 on top, got %d, %d",
			probs[0].LabelIndex, probs[1].LabelIndex)
	}
}

func TestDequantize(t *testing.T) {

	buf := []uint8{0, 128, 255}

	out := dequantize(buf, 128, 0.0078125)

	expected := []float32{-1.0, 0.0, 0.9921875}

	for i, want := range expected {
		if math.Abs(float64(out[i]-want)) > 1e-6 {
			t.Errorf("value %d: expected %f, got %f", i, want, out[i])
		}
	}
}

func TestDecodeLabels(t *testing.T) {

	labels := []string{"background", "tabby", "tiger"}

	probs := []Probability{
		{LabelIndex: 1, Probability: 0.9},
		{LabelIndex: 5, Probability: 0.1},
	}

	names := DecodeLabels(probs, labels)

	if names[0] != "tabby" {
		t.Errorf("expected tabby, got %s", names[0])
	}

	if names[1] != "class 5" {
		t.Errorf("expected fallback name for out of range index, got %s", names[1])
	}
}
