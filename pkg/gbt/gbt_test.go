package gbt

import (
	"encoding/json"
	"math"
	"testing"
)

func trainingData(n int) ([][]float64, []float64) {
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := float64(i % 17)
		b := float64((i * 7) % 11)
		x[i] = []float64{a, b, 1.0}
		y[i] = 3*a - 2*b + 5
	}
	return x, y
}

func TestTrainFitsDeterministicTarget(t *testing.T) {
	x, y := trainingData(200)
	model, err := Train(x, y, DefaultParams())
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	var sse float64
	for i := range x {
		p, err := model.Predict(x[i])
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		d := p - y[i]
		sse += d * d
	}
	rmse := math.Sqrt(sse / float64(len(x)))
	if rmse > 1.0 {
		t.Fatalf("rmse too high: %v", rmse)
	}
}

func TestTrainDeterministicForFixedSeed(t *testing.T) {
	x, y := trainingData(120)
	m1, err := Train(x, y, DefaultParams())
	if err != nil {
		t.Fatalf("train m1: %v", err)
	}
	m2, err := Train(x, y, DefaultParams())
	if err != nil {
		t.Fatalf("train m2: %v", err)
	}
	probe := []float64{4, 9, 1}
	p1, _ := m1.Predict(probe)
	p2, _ := m2.Predict(probe)
	if p1 != p2 {
		t.Fatalf("same seed produced different predictions: %v vs %v", p1, p2)
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	x, y := trainingData(60)
	model, err := Train(x, y, DefaultParams())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := model.Predict([]float64{1, 2}); err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestFeatureImportancesNormalized(t *testing.T) {
	x, y := trainingData(150)
	model, err := Train(x, y, DefaultParams())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	imp := model.FeatureImportances()
	if len(imp) != 3 {
		t.Fatalf("expected 3 importances, got %d", len(imp))
	}
	sum := 0.0
	for _, v := range imp {
		if v < 0 {
			t.Fatalf("negative importance %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("importances sum to %v, want 1", sum)
	}
	// the constant third column can never split
	if imp[2] != 0 {
		t.Fatalf("constant column got importance %v", imp[2])
	}
}

func TestRoundTripJSON(t *testing.T) {
	x, y := trainingData(80)
	model, err := Train(x, y, DefaultParams())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	b, err := json.Marshal(model)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Regressor
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	probe := []float64{3, 7, 1}
	p1, _ := model.Predict(probe)
	p2, _ := restored.Predict(probe)
	if p1 != p2 {
		t.Fatalf("restored model predicts %v, original %v", p2, p1)
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	if _, err := Train(nil, nil, DefaultParams()); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := Train([][]float64{{1}, {1, 2}}, []float64{1, 2}, DefaultParams()); err == nil {
		t.Fatalf("expected error for ragged rows")
	}
}
