package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultAnomalyReason = "Anomaly detected by ML model"

	defaultRecommendationTitle   = "Recommendation"
	defaultRecommendationImpact  = "Improved performance"
	defaultRecommendationBenefit = "Requires assessment"

	// fallbackMarketingShare is the share of channel revenue assumed spent on
	// acquisition when the backend has no ROI breakdown.
	fallbackMarketingShare = 0.15

	// forecastBand widens a bare prediction into a confidence interval.
	forecastBand = 0.2
)

type mergeConfig struct {
	now   func() time.Time
	newID func() string
}

type MergeOption func(*mergeConfig)

// WithClock overrides the time source used for GeneratedAt and for
// anomaly and forecast rows without a date.
func WithClock(now func() time.Time) MergeOption {
	return func(c *mergeConfig) {
		c.now = now
	}
}

// WithIDGenerator overrides how missing recommendation ids are minted.
func WithIDGenerator(newID func() string) MergeOption {
	return func(c *mergeConfig) {
		c.newID = newID
	}
}

// Merge assembles a view from whatever the backend returned. Each nil
// payload degrades its own section only; Merge never fails.
func Merge(raw RawResponses, opts ...MergeOption) *AnalyticsView {
	cfg := mergeConfig{
		now:   time.Now,
		newID: func() string { return "rec_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	now := cfg.now()

	view := &AnalyticsView{
		RevenueTrend:     revenueTrend(raw.Revenue),
		RevenueByChannel: channels(raw.Channels),
		CohortAnalysis:   cohorts(raw.Retention),
		Anomalies:        anomalies(raw.Suspicious, now),
		Forecasts:        forecasts(raw.Forecast, raw.Cancellation, now),
		Recommendations:  recommendations(raw.Recommendations, cfg.newID),
		GeneratedAt:      now,
	}
	view.ROIMetrics = roiMetrics(raw.ROI, view.RevenueByChannel)
	view.Summary = summary(raw.Revenue, raw.Retention, view.Forecasts)
	return view
}

func objects(list []any, fn func(i int, obj map[string]any)) {
	for i, v := range list {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		fn(i, obj)
	}
}

func revenueTrend(p map[string]any) []RevenuePoint {
	out := []RevenuePoint{}
	objects(Slice(p, "revenue_by_date"), func(_ int, obj map[string]any) {
		out = append(out, RevenuePoint{
			Date:              StringOr(obj, FirstKey(obj), "date", "Date"),
			Revenue:           FloatOr(obj, 0, "revenue", "amount", "value"),
			TransactionsCount: Int(obj, "count", "transactions"),
		})
	})
	return out
}

func channels(p map[string]any) []ChannelStat {
	out := []ChannelStat{}
	objects(Slice(p, "channel_performance"), func(_ int, obj map[string]any) {
		out = append(out, ChannelStat{
			Channel:        StringOr(obj, "Unknown", "channel", "name"),
			Revenue:        FloatOr(obj, 0, "revenue", "total_revenue", "amount"),
			Transactions:   Int(obj, "transactions", "count"),
			Customers:      Int(obj, "customers", "unique_customers"),
			ROI:            channelROI(obj),
			ConversionRate: FloatOr(obj, 0, "conversion_rate", "conversion"),
		})
	})
	return out
}

func channelROI(obj map[string]any) float64 {
	if roi, ok := Float(obj, "roi"); ok {
		return roi
	}
	revenue, okRevenue := Float(obj, "revenue")
	investment, okInvestment := Float(obj, "investment")
	if okRevenue && okInvestment {
		return (revenue - investment) / investment * 100
	}
	return 0
}

func cohorts(p map[string]any) []CohortPoint {
	out := []CohortPoint{}
	objects(Slice(p, "customer_segment_retention"), func(i int, obj map[string]any) {
		period := 0
		if v, ok := FloatAt(obj, "period"); ok && v > 0 {
			period = int(math.Trunc(v))
		}
		out = append(out, CohortPoint{
			Cohort:    StringOr(obj, fmt.Sprintf("Cohort %d", i), "cohort", "segment", "customer_segment"),
			Period:    period,
			Retention: FloatOr(obj, 0, "retention_rate", "retention"),
			Customers: Int(obj, "customers", "count", "unique_customers"),
		})
	})
	return out
}

func roiMetrics(p map[string]any, chans []ChannelStat) []ROIMetric {
	list, ok := p["roi_metrics"].([]any)
	if !ok {
		return roiFromChannels(chans)
	}

	out := []ROIMetric{}
	objects(list, func(_ int, obj map[string]any) {
		source, _ := String(obj, "source")
		out = append(out, ROIMetric{
			Source:         source,
			Investment:     FloatOr(obj, 0, "investment"),
			Revenue:        FloatOr(obj, 0, "revenue"),
			ROI:            FloatOr(obj, 0, "roi"),
			Profit:         FloatOr(obj, 0, "profit"),
			Transactions:   optionalInt(obj, "transactions"),
			Customers:      optionalInt(obj, "customers"),
			AvgTransaction: optionalFloat(obj, "avg_transaction"),
			CPA:            optionalFloat(obj, "cpa"),
			ConversionRate: optionalFloat(obj, "conversion_rate"),
		})
	})
	return out
}

func roiFromChannels(chans []ChannelStat) []ROIMetric {
	out := make([]ROIMetric, 0, len(chans))
	for _, c := range chans {
		investment := c.Revenue * fallbackMarketingShare
		transactions, customers := c.Transactions, c.Customers
		out = append(out, ROIMetric{
			Source:       c.Channel,
			Investment:   investment,
			Revenue:      c.Revenue,
			ROI:          c.ROI,
			Profit:       c.Revenue - investment,
			Transactions: &transactions,
			Customers:    &customers,
		})
	}
	return out
}

func summary(revenue, retention map[string]any, f *Forecasts) Summary {
	s := Summary{
		TotalRevenue:        FloatOr(revenue, 0, "total_revenue"),
		TotalTransactions:   Int(revenue, "transaction_count"),
		AvgTransactionValue: FloatOr(revenue, 0, "average_transaction"),
	}
	if rate, ok := Float(retention, "retention_rate"); ok {
		s.ActiveCustomers = int64(math.Round(float64(s.TotalTransactions) * rate / 100))
	}
	if f != nil {
		s.CancellationRate = f.CancellationProbability
	}
	return s
}

func anomalies(p map[string]any, now time.Time) []Anomaly {
	list := Slice(p, "suspicious_transactions")
	if len(list) > MaxAnomalies {
		list = list[:MaxAnomalies]
	}

	out := []Anomaly{}
	objects(list, func(i int, obj map[string]any) {
		anomalyScore := FloatOr(obj, defaultScore, "anomaly_score", "risk_score", "suspicious_score")
		riskScore := FloatOr(obj, defaultScore, "risk_score", "anomaly_score")

		reason, ok := String(obj, "reason")
		if !ok {
			reason = Strings(obj, "risk_factors", ", ")
		}
		if reason == "" {
			reason = defaultAnomalyReason
		}

		explicit, _ := String(obj, "risk_level")
		city, _ := String(obj, "city")
		channel, _ := String(obj, "channel")
		method, _ := String(obj, "payment_method")
		category, _ := String(obj, "merchant_category")

		out = append(out, Anomaly{
			TransactionID:    StringOr(obj, fmt.Sprintf("txn_%d", i), "transaction_id", "id"),
			Date:             StringOr(obj, now.UTC().Format(time.RFC3339), "date", "transaction_date"),
			Amount:           FloatOr(obj, 0, "amount_kzt", "amount"),
			AnomalyScore:     anomalyScore,
			RiskScore:        riskScore,
			Reason:           reason,
			RiskLevel:        ClassifyRisk(explicit, anomalyScore, riskScore),
			City:             city,
			Channel:          channel,
			PaymentMethod:    method,
			MerchantCategory: category,
			IsRefunded:       Bool(obj, "is_refunded"),
			IsCanceled:       Bool(obj, "is_canceled"),
		})
	})
	return out
}

func forecasts(forecast, cancellation map[string]any, now time.Time) *Forecasts {
	if forecast == nil {
		return nil
	}

	points := []ForecastPoint{}
	objects(Slice(forecast, "predicted_volume"), func(_ int, obj map[string]any) {
		point := ForecastPoint{
			Date:      StringOr(obj, now.UTC().Format(time.RFC3339), "date", "Date"),
			Predicted: FloatOr(obj, 0, "predicted_revenue", "revenue", "amount"),
		}
		base, hasBase := Float(obj, "predicted_revenue")
		point.LowerBound = bound(obj, "lower_bound", base, hasBase, 1-forecastBand)
		point.UpperBound = bound(obj, "upper_bound", base, hasBase, 1+forecastBand)
		points = append(points, point)
	})

	probability := FloatOr(cancellation, 0, "cancellation_probability") * 100
	return &Forecasts{
		RevenueForecast:         points,
		CancellationProbability: math.Round(probability*100) / 100,
	}
}

func bound(obj map[string]any, key string, base float64, hasBase bool, factor float64) *float64 {
	v, ok := Float(obj, key)
	switch {
	case ok:
	case hasBase:
		v = base * factor
	default:
		v = 0
	}
	return &v
}

func recommendations(p map[string]any, newID func() string) []Recommendation {
	out := []Recommendation{}
	objects(Slice(p, "recommendations"), func(_ int, obj map[string]any) {
		description, _ := String(obj, "description")
		segment, _ := String(obj, "segment")
		id, ok := String(obj, "id")
		if !ok {
			id = newID()
		}
		out = append(out, Recommendation{
			ID:                   id,
			Type:                 recommendationType(obj),
			Title:                StringOr(obj, defaultRecommendationTitle, "title"),
			Description:          description,
			ExpectedImpact:       StringOr(obj, defaultRecommendationImpact, "expected_impact"),
			Priority:             Priority(level(obj, "priority")),
			Segment:              segment,
			EstimatedBenefit:     StringOr(obj, defaultRecommendationBenefit, "estimated_benefit"),
			ImplementationEffort: Effort(level(obj, "implementation_effort")),
		})
	})
	return out
}

func recommendationType(obj map[string]any) RecommendationType {
	t, _ := String(obj, "type")
	switch RecommendationType(strings.ToLower(t)) {
	case RecommendationDiscount:
		return RecommendationDiscount
	case RecommendationMarketing:
		return RecommendationMarketing
	default:
		return RecommendationOptimization
	}
}

// level reads a low/medium/high field, defaulting to medium.
func level(obj map[string]any, key string) string {
	v, _ := String(obj, key)
	switch v = strings.ToLower(v); v {
	case "low", "medium", "high":
		return v
	default:
		return "medium"
	}
}

func optionalInt(obj map[string]any, key string) *int64 {
	v, ok := FloatAt(obj, key)
	if !ok {
		return nil
	}
	n := int64(math.Round(v))
	return &n
}

func optionalFloat(obj map[string]any, key string) *float64 {
	v, ok := FloatAt(obj, key)
	if !ok {
		return nil
	}
	return &v
}
