package models

// Dimension is a top-level category of complementary activity. HourCap
// bounds the cumulative approved hours a single student may accrue across
// all activities under the dimension.
type Dimension struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	HourCap float64 `db:"hour_cap" json:"hour_cap"`
}

// Activity is a recognized activity type owned by exactly one dimension,
// with its own per-student cumulative cap.
type Activity struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	DimensionID string  `db:"dimension_id" json:"dimension_id"`
	HourCap     float64 `db:"hour_cap" json:"hour_cap"`
}

// ProofMode describes how a submission proves participation (certificate,
// declaration, attendance list...). Reference data.
type ProofMode struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
