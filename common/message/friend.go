package message

import (
	"fmt"
	"time"
)

// TimeLayout is how timestamps appear in rendered lines.
const TimeLayout = "2006-01-02 15:04:05"

type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestAccepted RequestState = "accepted"
	RequestRejected RequestState = "rejected"
)

// Request is a friend request or a group join application.
type Request struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Note  string       `json:"note"`
	Time  time.Time    `json:"time"`
	State RequestState `json:"state"`
}

func (r *Request) Pending() bool { return r.State == RequestPending }

// FriendLine renders a request in the system message list.
func (r *Request) FriendLine() string {
	return fmt.Sprintf("friend request from %s: %s (%s) [%s]", r.From, r.Note, r.Time.Format(TimeLayout), r.State)
}

// ApplyLine renders an application in a group's request list.
func (r *Request) ApplyLine() string {
	return fmt.Sprintf("%s applies to join %s: %s (%s) [%s]", r.From, r.To, r.Note, r.Time.Format(TimeLayout), r.State)
}

// GroupChatMes is one entry of a group conversation.
type GroupChatMes struct {
	From    string    `json:"from"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Render formats the entry for viewer; name is the sender's display name.
func (m *GroupChatMes) Render(viewer, name string) string {
	who := name
	if m.From == viewer {
		who = "me"
	}
	return FormatLine(who, m.Content, m.Time)
}

// FormatLine is the display form shared by direct and group history.
func FormatLine(who, content string, t time.Time) string {
	return fmt.Sprintf("%s: %s .......... %s", who, content, t.Format(TimeLayout))
}
