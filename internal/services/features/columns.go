package features

// FeatureColumns is the canonical ordered list of model input columns.
// Training, importance reporting and prediction all index features through
// this list, so its order is part of the persisted model contract.
func FeatureColumns() []string {
	return []string{
		// price
		"open", "high", "low", "close", "volume",
		"daily_return", "ma_7", "ma_20",
		"volatility", "momentum",
		"price_range", "price_range_pct",
		"gap", "gap_pct", "close_position",

		// volume
		"volume_change", "volume_ratio",

		// calendar
		"day_of_week", "day_of_month", "month",

		// lags
		"close_lag_1", "close_lag_2", "close_lag_3", "close_lag_5", "close_lag_7",
		"daily_return_lag_1", "daily_return_lag_2", "daily_return_lag_3",

		// rolling
		"close_roll_mean_5", "close_roll_mean_10", "close_roll_mean_20",
		"close_roll_std_5", "close_roll_std_10",
	}
}
