package model

import "chatserver/common/message"

// CurUser is the account a client is logged in as.
type CurUser struct {
	UID      string
	LoggedIn bool
	Bound    bool
}

// EnvelopeUID is the uid carried by outgoing commands.
func (u *CurUser) EnvelopeUID() string {
	if u.UID == "" {
		return message.Anonymous
	}
	return u.UID
}
