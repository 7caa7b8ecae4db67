package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/K0NGR3SS/minewatch/internal/models"
)

// maxListed caps how many apps are listed per level before summarizing.
const maxListed = 5

type SlackNotifier struct {
	WebhookURL string
	Channel    string
	Client     *http.Client
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Channel:    channel,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSession posts a summary of session. Sessions without HIGH or MEDIUM
// apps are reported as clean.
func (s *SlackNotifier) SendSession(ctx context.Context, session models.ScanSession) error {
	if session.HighRiskApps == 0 && session.MediumRiskApps == 0 {
		return s.sendCleanReport(ctx, session)
	}

	text := fmt.Sprintf("🚨 *MineWatch Scan Complete*\n*%d* of %d apps show signs of covert mining", session.HighRiskApps, session.TotalApps)

	attachments := []slackAttachment{
		{
			Color: "danger",
			Title: fmt.Sprintf("Session %s (%d apps, %d ms)", session.ID, session.TotalApps, session.DurationMillis),
			Fields: []slackField{
				{Title: "High", Value: fmt.Sprintf("%d", session.HighRiskApps), Short: true},
				{Title: "Medium", Value: fmt.Sprintf("%d", session.MediumRiskApps), Short: true},
				{Title: "Low", Value: fmt.Sprintf("%d", session.LowRiskApps), Short: true},
			},
			Footer: "MineWatch",
		},
	}

	if high := filterByRisk(session.ScanResults, models.RiskHigh); len(high) > 0 {
		attachments = append(attachments, slackAttachment{
			Color: "danger",
			Title: "🔴 High Risk Apps",
			Text:  listResults(high),
		})
	}

	if medium := filterByRisk(session.ScanResults, models.RiskMedium); len(medium) > 0 {
		attachments = append(attachments, slackAttachment{
			Color: "warning",
			Title: "🟠 Medium Risk Apps",
			Text:  listResults(medium),
		})
	}

	return s.sendMessage(ctx, slackMessage{
		Channel:     s.Channel,
		Username:    "MineWatch",
		IconEmoji:   ":pick:",
		Text:        text,
		Attachments: attachments,
	})
}

func listResults(results []models.ScanResult) string {
	text := ""
	for i, r := range results {
		if i >= maxListed {
			text += fmt.Sprintf("\n_...and %d more_", len(results)-maxListed)
			break
		}
		text += fmt.Sprintf("• *%s* `%s` score %d, cpu %.1f%%\n", r.AppName, r.PackageName, r.RiskScore, r.CPUUsagePercent)
	}
	return text
}

func (s *SlackNotifier) sendCleanReport(ctx context.Context, session models.ScanSession) error {
	return s.sendMessage(ctx, slackMessage{
		Channel:   s.Channel,
		Username:  "MineWatch",
		IconEmoji: ":white_check_mark:",
		Text:      fmt.Sprintf("✅ *MineWatch Scan Complete*\nNo mining behavior found in %d apps.", session.TotalApps),
	})
}

func (s *SlackNotifier) sendMessage(ctx context.Context, msg slackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned non-200 status: %d", resp.StatusCode)
	}

	return nil
}

func filterByRisk(results []models.ScanResult, risk models.RiskLevel) []models.ScanResult {
	var filtered []models.ScanResult
	for _, r := range results {
		if r.RiskLevel == risk {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
