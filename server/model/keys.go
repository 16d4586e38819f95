package model

// Key layout shared by every Store driver.
const (
	AccountsKey = "accounts"
	GroupsKey   = "groups"

	// HistoryOrigin is pushed first into every conversation list.
	HistoryOrigin = "begin"

	CategorySystem = "system"
	CategoryNotice = "notice"
	categoryFrom   = "from:"
)

// Account hash fields.
const (
	FieldUID      = "uid"
	FieldPassword = "password"
	FieldName     = "name"
	FieldGender   = "gender"
	FieldBio      = "bio"
	FieldOnline   = "online"
	FieldNotify   = "notify"
	FieldPeer     = "peer"
)

// Group info hash fields.
const (
	FieldGroupID  = "gid"
	FieldCreated  = "created"
	FieldIntro    = "intro"
	FieldAnnounce = "announce"
)

func accountKey(uid string) string { return "account:" + uid }
func friendsKey(uid string) string { return "friends:" + uid }
func sysMsgKey(uid string) string { return "sysmsg:" + uid }
func unreadKey(uid string) string { return "unread:" + uid }
func noticesKey(uid string) string { return "notices:" + uid }
func shieldKey(uid string) string { return "shield:" + uid }
func chatKey(owner, peer string) string { return "chat:" + owner + ":" + peer }
func groupKey(gid string) string { return "group:" + gid }
func membersKey(gid string) string { return "members:" + gid }
func groupListKey(uid string) string { return "grouplist:" + uid }
func appliesKey(gid string) string { return "applies:" + gid }
func groupChatKey(gid string) string { return "gchat:" + gid }

// CategoryFrom is the unread category of messages from a friend or group.
func CategoryFrom(id string) string { return categoryFrom + id }
