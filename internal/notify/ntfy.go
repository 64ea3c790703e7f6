package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// priorityByLevel and tagByLevel mirror ntfy's own priority/tag
// conventions per notification level.
var priorityByLevel = map[Level]string{
	LevelInfo:    "3",
	LevelSuccess: "3",
	LevelWarning: "4",
	LevelError:   "5",
	LevelAlert:   "5",
}

var tagByLevel = map[Level]string{
	LevelInfo:    "information_source",
	LevelSuccess: "white_check_mark",
	LevelWarning: "warning",
	LevelError:   "x",
	LevelAlert:   "rotating_light",
}

// Ntfy posts notifications to an ntfy.sh-compatible topic over HTTP.
type Ntfy struct {
	Server string
	Topic  string
	client *http.Client
}

func NewNtfy(server, topic string) *Ntfy {
	return &Ntfy{
		Server: strings.TrimRight(server, "/"),
		Topic:  topic,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts to the configured topic. Network and HTTP errors are
// swallowed (returned as nil) since a missing notification channel
// must never interrupt orchestration.
func (n *Ntfy) Notify(title, message string, level Level) error {
	if n.client == nil {
		n.client = &http.Client{Timeout: 10 * time.Second}
	}

	url := fmt.Sprintf("%s/%s", n.Server, n.Topic)
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return nil
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", priorityByLevel[level])
	req.Header.Set("Tags", tagByLevel[level])

	resp, err := n.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	return nil
}
