package analytics

import (
	"time"

	"github.com/abdul-hamid-achik/tally/internal/tally/client"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

type RecommendationType string

const (
	RecommendationDiscount     RecommendationType = "discount"
	RecommendationMarketing    RecommendationType = "marketing"
	RecommendationOptimization RecommendationType = "optimization"
)

// AnalyticsView is the normalized dashboard state. A view is never mutated
// after Merge returns; a refresh builds a new one.
type AnalyticsView struct {
	RevenueTrend     []RevenuePoint   `json:"revenue_trend"`
	RevenueByChannel []ChannelStat    `json:"revenue_by_channel"`
	CohortAnalysis   []CohortPoint    `json:"cohort_analysis"`
	ROIMetrics       []ROIMetric      `json:"roi_metrics"`
	Summary          Summary          `json:"summary"`
	Forecasts        *Forecasts       `json:"forecasts,omitempty"`
	Anomalies        []Anomaly        `json:"anomalies"`
	Recommendations  []Recommendation `json:"recommendations"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

type RevenuePoint struct {
	Date              string  `json:"date"`
	Revenue           float64 `json:"revenue"`
	TransactionsCount int64   `json:"transactions_count"`
}

type ChannelStat struct {
	Channel        string  `json:"channel"`
	Revenue        float64 `json:"revenue"`
	Transactions   int64   `json:"transactions"`
	Customers      int64   `json:"customers"`
	ROI            float64 `json:"roi"`
	ConversionRate float64 `json:"conversion_rate"`
}

type CohortPoint struct {
	Cohort    string  `json:"cohort"`
	Period    int     `json:"period"`
	Retention float64 `json:"retention"`
	Customers int64   `json:"customers"`
}

type ROIMetric struct {
	Source         string   `json:"source"`
	Investment     float64  `json:"investment"`
	Revenue        float64  `json:"revenue"`
	ROI            float64  `json:"roi"`
	Profit         float64  `json:"profit"`
	Transactions   *int64   `json:"transactions,omitempty"`
	Customers      *int64   `json:"customers,omitempty"`
	AvgTransaction *float64 `json:"avg_transaction,omitempty"`
	CPA            *float64 `json:"cpa,omitempty"`
	ConversionRate *float64 `json:"conversion_rate,omitempty"`
}

type Summary struct {
	TotalRevenue        float64 `json:"total_revenue"`
	TotalTransactions   int64   `json:"total_transactions"`
	ActiveCustomers     int64   `json:"active_customers"`
	AvgTransactionValue float64 `json:"avg_transaction_value"`
	CancellationRate    float64 `json:"cancellation_rate"`
}

type Forecasts struct {
	RevenueForecast []ForecastPoint `json:"revenue_forecast"`
	// CancellationProbability is a percentage rounded to two decimals.
	CancellationProbability float64 `json:"cancellation_probability"`
}

type ForecastPoint struct {
	Date       string   `json:"date"`
	Predicted  float64  `json:"predicted"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
	Actual     *float64 `json:"actual,omitempty"`
}

type Anomaly struct {
	TransactionID    string    `json:"transaction_id"`
	Date             string    `json:"date"`
	Amount           float64   `json:"amount"`
	AnomalyScore     float64   `json:"anomaly_score"`
	RiskScore        float64   `json:"risk_score"`
	Reason           string    `json:"reason"`
	RiskLevel        RiskLevel `json:"risk_level"`
	City             string    `json:"city,omitempty"`
	Channel          string    `json:"channel,omitempty"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	MerchantCategory string    `json:"merchant_category,omitempty"`
	IsRefunded       *bool     `json:"is_refunded,omitempty"`
	IsCanceled       *bool     `json:"is_canceled,omitempty"`
}

type Recommendation struct {
	ID                   string             `json:"id"`
	Type                 RecommendationType `json:"type"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	ExpectedImpact       string             `json:"expected_impact"`
	Priority             Priority           `json:"priority"`
	Segment              string             `json:"segment,omitempty"`
	EstimatedBenefit     string             `json:"estimated_benefit"`
	ImplementationEffort Effort             `json:"implementation_effort"`
}

// RawResponses carries one backend payload per dashboard section. A nil
// payload means the section's request failed.
type RawResponses struct {
	Revenue         client.Payload
	Channels        client.Payload
	Retention       client.Payload
	Suspicious      client.Payload
	ROI             client.Payload
	Forecast        client.Payload
	Cancellation    client.Payload
	Recommendations client.Payload
}
