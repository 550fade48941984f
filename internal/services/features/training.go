package features

import (
	"fmt"
)

// TrainingData builds the supervised learning matrix from a feature frame.
// The target for row i is the close at row i+horizon; the trailing horizon
// rows have no target and are dropped. Returned names are the canonical
// feature columns present in the frame, in canonical order.
func TrainingData(f *Frame, horizon int) (x [][]float64, y []float64, names []string, err error) {
	if horizon < 1 {
		return nil, nil, nil, fmt.Errorf("features: horizon must be >= 1, got %d", horizon)
	}
	n := f.Len() - horizon
	if n <= 0 {
		return nil, nil, nil, fmt.Errorf("features: %d rows is too few for horizon %d", f.Len(), horizon)
	}

	names = f.Present(FeatureColumns())
	cls := f.Col("close")

	x = make([][]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		row, rerr := f.Row(i, names)
		if rerr != nil {
			return nil, nil, nil, rerr
		}
		x[i] = row
		y[i] = cls[i+horizon]
	}
	return x, y, names, nil
}
