package models

// Requests for the stock analytics HTTP endpoints. Defined in domain for
// consistency and reuse.

type MetricsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Period string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y"`
	Days   int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=1000"`
}

type SummaryRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Period string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y"`
}

type TrainRequest struct {
	Symbol string `json:"symbol" validate:"required_without=All"`
	Period string `json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y"`
	All    bool   `json:"all"`
}

type PredictRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Period string `json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y"`
	Days   int    `json:"days" default:"7" validate:"gte=1,lte=30"`
}

type ImportanceRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Top    int    `query:"top" json:"top" default:"10" validate:"gte=1,lte=50"`
}

type CompareRequest struct {
	Symbol1 string `query:"symbol1" json:"symbol1" validate:"required"`
	Symbol2 string `query:"symbol2" json:"symbol2" validate:"required"`
	Period  string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y"`
}
