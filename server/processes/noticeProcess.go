package processes

import (
	"chatserver/common/message"
	"chatserver/server/model"
	"fmt"
	"sort"
	"strings"
)

// NewMessage summarizes the unread counters of uid without clearing them.
func (e *Engine) NewMessage(uid string) ([]string, error) {
	unread, err := e.dao.Unread(uid)
	if err != nil {
		return nil, err
	}
	lines := []string{
		fmt.Sprintf("%s: %d", model.CategorySystem, unread[model.CategorySystem]),
		fmt.Sprintf("%s: %d", model.CategoryNotice, unread[model.CategoryNotice]),
	}
	var from []string
	for category, n := range unread {
		if n > 0 && strings.HasPrefix(category, model.CategoryFrom("")) {
			from = append(from, category)
		}
	}
	sort.Strings(from)
	for _, category := range from {
		id := strings.TrimPrefix(category, model.CategoryFrom(""))
		lines = append(lines, fmt.Sprintf("from %s: %d", id, unread[category]))
	}
	return lines, nil
}

// LookSystem lists friend requests received by uid. The system counter
// tracks unresolved requests, so viewing does not clear it.
func (e *Engine) LookSystem(uid string) (message.ListResult, []string, error) {
	reqs, err := e.dao.FriendRequests(uid)
	if err != nil {
		return "", nil, err
	}
	if len(reqs) == 0 {
		return message.ListNone, nil, nil
	}
	lines := make([]string, 0, len(reqs))
	for _, req := range reqs {
		lines = append(lines, req.FriendLine())
	}
	return message.ListEnd, lines, nil
}

// LookNotice lists the notices of uid, oldest first, and clears the notice
// counter.
func (e *Engine) LookNotice(uid string) (message.ListResult, []string, error) {
	if err := e.dao.ClearUnread(uid, model.CategoryNotice); err != nil {
		return "", nil, err
	}
	notices, err := e.dao.Notices(uid)
	if err != nil {
		return "", nil, err
	}
	if len(notices) == 0 {
		return message.ListNone, nil, nil
	}
	return message.ListEnd, notices, nil
}
