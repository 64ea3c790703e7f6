package notify

import "github.com/slack-go/slack"

// colorByLevel maps a notification level to a Slack attachment color.
var colorByLevel = map[Level]string{
	LevelInfo:    "#36a3eb",
	LevelSuccess: "#2eb67d",
	LevelWarning: "#ecb22e",
	LevelError:   "#e01e5a",
	LevelAlert:   "#e01e5a",
}

// Slack posts notifications to an incoming webhook.
type Slack struct {
	WebhookURL string
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{WebhookURL: webhookURL}
}

// Notify posts a single attachment to the configured webhook. Delivery
// failures are swallowed, matching every other notifier in this
// package.
func (s *Slack) Notify(title, message string, level Level) error {
	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{
			{
				Color: colorByLevel[level],
				Title: title,
				Text:  message,
			},
		},
	}
	_ = slack.PostWebhook(s.WebhookURL, msg)
	return nil
}
