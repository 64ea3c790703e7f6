package notify

// Composite fans a notification out to multiple notifiers. Each
// notifier's failure is passed to the onError callback (when set) and
// never stops the others from running — a broken webhook must not
// silence the console. Notify itself always returns nil.
type Composite struct {
	notifiers []Notifier
	onError   func(Notifier, error)
}

func NewComposite(onError func(Notifier, error), notifiers ...Notifier) *Composite {
	return &Composite{notifiers: notifiers, onError: onError}
}

func (c *Composite) Notify(title, message string, level Level) error {
	for _, n := range c.notifiers {
		if err := n.Notify(title, message, level); err != nil && c.onError != nil {
			c.onError(n, err)
		}
	}
	return nil
}
