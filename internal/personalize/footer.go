package personalize

import "fmt"

// UnsubscribeFooter is the compliance text appended to every outgoing body.
type UnsubscribeFooter struct {
	Text string
}

func (f UnsubscribeFooter) Render() string {
	return fmt.Sprintf("\n\n---\n%s", f.Text)
}
