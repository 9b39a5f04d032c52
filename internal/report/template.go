package report

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Analytics report</title>
    <style>
        * { box-sizing: border-box; }
        body { margin: 0; padding: 24px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #ECEFF4; color: #2E3440; line-height: 1.6; }
        .container { max-width: 1200px; margin: 0 auto; background-color: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 12px rgba(46, 52, 64, 0.15); }
        .header { padding: 32px 40px; background-color: #3B4252; color: #ECEFF4; }
        .header h1 { margin: 0 0 8px; color: #88C0D0; font-size: 28px; }
        .header .meta { margin: 0; color: #D8DEE9; font-size: 14px; }
        .content { padding: 32px 40px; }
        .section { margin-bottom: 40px; }
        .section-title { margin: 0 0 16px; padding-bottom: 8px; border-bottom: 2px solid #88C0D0; color: #3B4252; font-size: 20px; }
        .summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; }
        .summary-card { padding: 20px; border-left: 4px solid #5E81AC; border-radius: 6px; background-color: #E5E9F0; }
        .summary-card.alert { border-left-color: #BF616A; }
        .summary-card .label { color: #4C566A; font-size: 13px; }
        .summary-card .value { margin-top: 4px; font-size: 22px; font-weight: 600; }
        .data-table { width: 100%; border-collapse: collapse; font-size: 14px; }
        .data-table th { padding: 10px 12px; background-color: #434C5E; color: #ECEFF4; text-align: left; }
        .data-table td { padding: 10px 12px; border-bottom: 1px solid #D8DEE9; vertical-align: top; }
        .caption { margin-top: 8px; color: #4C566A; font-size: 13px; }
        .chart { display: block; max-width: 100%; margin: 0 auto 16px; border-radius: 6px; }
        .risk-high, .priority-high { color: #BF616A; font-weight: 600; }
        .risk-medium, .priority-medium { color: #D08770; font-weight: 600; }
        .risk-low, .priority-low { color: #A3BE8C; font-weight: 600; }
        .chat-message { margin-bottom: 16px; padding: 16px; border-radius: 6px; }
        .chat-message.user { margin-left: 15%; background-color: #E5E9F0; }
        .chat-message.assistant { margin-right: 15%; border-left: 4px solid #88C0D0; background-color: #F4F6F9; }
        .chat-message .role { margin-bottom: 6px; color: #5E81AC; font-size: 13px; font-weight: 600; }
        .chat-message .timestamp { margin-top: 6px; color: #4C566A; font-size: 12px; }
        .chat-message code { padding: 1px 4px; border-radius: 3px; background-color: #D8DEE9; font-family: 'SF Mono', Menlo, Consolas, monospace; }
        .no-data { padding: 24px; color: #4C566A; text-align: center; font-style: italic; }
        .footer { padding: 20px 40px; background-color: #3B4252; color: #D8DEE9; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Transaction analytics report</h1>
        <p class="meta">Generated {{.GeneratedAt}}{{if .DatasetID}} &middot; dataset {{.DatasetID}}{{end}}</p>
    </div>
    <div class="content">
        <div class="section">
            <h2 class="section-title">Key metrics</h2>
            <div class="summary-grid">
                {{- range .Summary}}
                <div class="summary-card{{if .Alert}} alert{{end}}">
                    <div class="label">{{.Title}}</div>
                    <div class="value">{{.Value}}</div>
                </div>
                {{- end}}
            </div>
        </div>
        {{- if or .RevenueChart .ChannelChart}}
        <div class="section">
            <h2 class="section-title">Charts</h2>
            {{- if .RevenueChart}}
            <img class="chart" alt="Revenue trend" src="{{.RevenueChart}}">
            {{- end}}
            {{- if .ChannelChart}}
            <img class="chart" alt="Revenue by channel" src="{{.ChannelChart}}">
            {{- end}}
        </div>
        {{- end}}
        <div class="section">
            <h2 class="section-title">Top channels</h2>
            {{- if .Channels}}
            <table class="data-table">
                <thead>
                    <tr><th>Channel</th><th>Revenue</th><th>Transactions</th><th>Customers</th><th>ROI</th></tr>
                </thead>
                <tbody>
                    {{- range .Channels}}
                    <tr class="channel-row"><td>{{.Channel}}</td><td>{{.Revenue}}</td><td>{{.Transactions}}</td><td>{{.Customers}}</td><td>{{.ROI}}</td></tr>
                    {{- end}}
                </tbody>
            </table>
            {{- else}}
            <div class="no-data">No channel data</div>
            {{- end}}
        </div>
        <div class="section">
            <h2 class="section-title">Detected anomalies ({{.AnomalyTotal}})</h2>
            {{- if .Anomalies}}
            <table class="data-table">
                <thead>
                    <tr><th>Transaction</th><th>Date</th><th>Amount</th><th>Score</th><th>Risk</th><th>Reason</th></tr>
                </thead>
                <tbody>
                    {{- range .Anomalies}}
                    <tr class="anomaly-row"><td>{{.TransactionID}}</td><td>{{.Date}}</td><td>{{.Amount}}</td><td>{{.Score}}</td><td class="risk-{{.RiskLevel}}">{{upper .RiskLevel}}</td><td>{{.Reason}}</td></tr>
                    {{- end}}
                </tbody>
            </table>
            {{- if .AnomalyCaption}}
            <p class="caption">{{.AnomalyCaption}}</p>
            {{- end}}
            {{- else}}
            <div class="no-data">No anomalies detected</div>
            {{- end}}
        </div>
        <div class="section">
            <h2 class="section-title">AI recommendations</h2>
            {{- if .Recommendations}}
            <table class="data-table">
                <thead>
                    <tr><th>Recommendation</th><th>Type</th><th>Priority</th><th>Expected impact</th><th>Benefit</th><th>Effort</th></tr>
                </thead>
                <tbody>
                    {{- range .Recommendations}}
                    <tr class="recommendation-row"><td><strong>{{.Title}}</strong>{{if .Description}}<br>{{.Description}}{{end}}</td><td>{{.Type}}</td><td class="priority-{{.Priority}}">{{upper .Priority}}</td><td>{{.ExpectedImpact}}</td><td>{{.Benefit}}</td><td>{{.Effort}}</td></tr>
                    {{- end}}
                </tbody>
            </table>
            {{- else}}
            <div class="no-data">No recommendations</div>
            {{- end}}
        </div>
        <div class="section">
            <h2 class="section-title">AI chat history ({{len .Messages}} messages)</h2>
            {{- range .Messages}}
            <div class="chat-message {{.Role}}">
                <div class="role">{{.Author}}</div>
                <div class="body">{{.Content}}</div>
                <div class="timestamp">{{.Timestamp}}</div>
            </div>
            {{- else}}
            <div class="no-data">Chat history is empty</div>
            {{- end}}
        </div>
    </div>
    <div class="footer">Generated by tally. This report is self-contained and can be shared as a single file.</div>
</div>
</body>
</html>
`
