package features

import (
	"math"
	"testing"
	"time"

	"StockSight/internal/domain/models"
	"StockSight/internal/services/pipeline"
)

func metricsSeries(n int) []models.MetricsRow {
	points := make([]models.PricePoint, n)
	for i := range points {
		c := 100 + float64(i) + 2*math.Sin(float64(i)/3)
		points[i] = models.PricePoint{
			Symbol: "AAPL",
			Date:   time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), // a Monday
			Open:   c - 0.4,
			High:   c + 1.2,
			Low:    c - 1.1,
			Close:  c,
			Volume: 1000 + float64(i%9)*120,
		}
	}
	return pipeline.ComputeMetrics(points)
}

func TestEngineerProducesCanonicalColumns(t *testing.T) {
	f := Engineer(metricsSeries(60))
	present := f.Present(FeatureColumns())
	if len(present) != len(FeatureColumns()) {
		t.Fatalf("missing columns: have %d of %d", len(present), len(FeatureColumns()))
	}
}

func TestEngineerLeavesNoNaN(t *testing.T) {
	f := Engineer(metricsSeries(40))
	for _, name := range f.Names() {
		for i, v := range f.Col(name) {
			if math.IsNaN(v) {
				t.Fatalf("column %q row %d is NaN", name, i)
			}
		}
	}
}

func TestEngineerGapAndLags(t *testing.T) {
	rows := metricsSeries(30)
	f := Engineer(rows)

	gap := f.Col("gap")
	want := rows[1].Open - rows[0].Close
	if math.Abs(gap[1]-want) > 1e-9 {
		t.Fatalf("gap[1]: got %v, want %v", gap[1], want)
	}

	lag1 := f.Col("close_lag_1")
	for i := 1; i < len(rows); i++ {
		if lag1[i] != rows[i-1].Close {
			t.Fatalf("close_lag_1[%d]: got %v, want %v", i, lag1[i], rows[i-1].Close)
		}
	}
	// warm-up row is backfilled from the first computable value
	if lag1[0] != lag1[1] {
		t.Fatalf("close_lag_1[0] should backfill to %v, got %v", lag1[1], lag1[0])
	}
}

func TestEngineerClosePositionDegenerateRange(t *testing.T) {
	rows := metricsSeries(10)
	for i := range rows {
		rows[i].High = rows[i].Close
		rows[i].Low = rows[i].Close
	}
	f := Engineer(rows)
	for i, v := range f.Col("close_position") {
		if v != 0.5 {
			t.Fatalf("close_position[%d]: got %v, want 0.5", i, v)
		}
	}
}

func TestEngineerVolumeRatioWarmup(t *testing.T) {
	f := Engineer(metricsSeries(20))
	ratio := f.Col("volume_ratio")
	for i := 0; i < 4; i++ {
		if ratio[i] != 1 {
			t.Fatalf("volume_ratio[%d] during warm-up: got %v, want 1", i, ratio[i])
		}
	}
}

func TestEngineerCalendarFeatures(t *testing.T) {
	rows := metricsSeries(8)
	f := Engineer(rows)
	dow := f.Col("day_of_week")
	if dow[0] != 0 {
		t.Fatalf("Monday should map to 0, got %v", dow[0])
	}
	if dow[5] != 5 || dow[6] != 6 {
		t.Fatalf("weekend should map to 5/6, got %v/%v", dow[5], dow[6])
	}
	if dow[7] != 0 {
		t.Fatalf("the following Monday should map to 0, got %v", dow[7])
	}
	if f.Col("month")[0] != 3 {
		t.Fatalf("month: got %v, want 3", f.Col("month")[0])
	}
}

func TestEngineerRollingMean(t *testing.T) {
	rows := metricsSeries(30)
	f := Engineer(rows)
	roll := f.Col("close_roll_mean_5")
	i := 10
	want := 0.0
	for j := i - 4; j <= i; j++ {
		want += rows[j].Close
	}
	want /= 5
	if math.Abs(roll[i]-want) > 1e-9 {
		t.Fatalf("close_roll_mean_5[%d]: got %v, want %v", i, roll[i], want)
	}
}

func TestTrainingData(t *testing.T) {
	rows := metricsSeries(50)
	f := Engineer(rows)
	x, y, names, err := TrainingData(f, 1)
	if err != nil {
		t.Fatalf("training data: %v", err)
	}
	if len(x) != 49 || len(y) != 49 {
		t.Fatalf("expected 49 samples, got %d/%d", len(x), len(y))
	}
	if len(names) != len(FeatureColumns()) {
		t.Fatalf("expected %d feature names, got %d", len(FeatureColumns()), len(names))
	}
	for i := range y {
		if y[i] != rows[i+1].Close {
			t.Fatalf("y[%d]: got %v, want next close %v", i, y[i], rows[i+1].Close)
		}
	}
	if len(x[0]) != len(names) {
		t.Fatalf("row width %d != names %d", len(x[0]), len(names))
	}
}

func TestTrainingDataErrors(t *testing.T) {
	f := Engineer(metricsSeries(5))
	if _, _, _, err := TrainingData(f, 0); err == nil {
		t.Fatalf("expected error for horizon 0")
	}
	if _, _, _, err := TrainingData(f, 5); err == nil {
		t.Fatalf("expected error when horizon consumes every row")
	}
}
