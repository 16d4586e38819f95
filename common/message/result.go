package message

// Result is the single-token reply of an operation. Every operation has its
// own closed set of variants; Token is what goes on the wire.
type Result interface {
	Token() string
}

// Tokens shared by list replies and every operation.
const (
	TokenEnd     = "end"
	TokenNone    = "none"
	TokenHave    = "have"
	TokenOK      = "ok"
	TokenFail    = "fail"
	TokenInvalid = "invalid"
	TokenUnauth  = "unauth"
	TokenNo      = "no"
)

// Generic is a failure any handler can report.
type Generic string

const (
	Fail         Generic = TokenFail
	Invalid      Generic = TokenInvalid
	Unauthorized Generic = TokenUnauth
)

func (r Generic) Token() string { return string(r) }

type LoginResult string

const (
	LoginOK        LoginResult = TokenOK
	LoginIncorrect LoginResult = "incorrect"
	LoginOnline    LoginResult = "online"
)

func (r LoginResult) Token() string { return string(r) }

type BindResult string

const (
	BindOK     BindResult = TokenOK
	BindDenied BindResult = TokenNo
)

func (r BindResult) Token() string { return string(r) }

type AddFriendResult string

const (
	AddFriendOK           AddFriendResult = TokenOK
	AddFriendNotFound     AddFriendResult = "nofind"
	AddFriendAlready      AddFriendResult = "had"
	AddFriendInboundOpen  AddFriendResult = "cannot1"
	AddFriendOutboundOpen AddFriendResult = "cannot2"
)

func (r AddFriendResult) Token() string { return string(r) }

// ResolveFriendResult answers AgreeAddFriend and RefuseAddFriend.
type ResolveFriendResult string

const (
	ResolveFriendOK       ResolveFriendResult = TokenOK
	ResolveFriendNotFound ResolveFriendResult = "nofind"
	ResolveFriendHandled  ResolveFriendResult = "haddeal"
	ResolveFriendAlready  ResolveFriendResult = "had"
)

func (r ResolveFriendResult) Token() string { return string(r) }

type DeleteFriendResult string

const (
	DeleteFriendOK       DeleteFriendResult = TokenOK
	DeleteFriendNotFound DeleteFriendResult = "nofind"
)

func (r DeleteFriendResult) Token() string { return string(r) }

type ShieldResult string

const (
	ShieldOK        ShieldResult = TokenOK
	ShieldNotFriend ShieldResult = TokenNo
	ShieldAlready   ShieldResult = "had"
)

func (r ShieldResult) Token() string { return string(r) }

type RestoreResult string

const (
	RestoreOK          RestoreResult = TokenOK
	RestoreNotFriend   RestoreResult = "nohave"
	RestoreNotShielded RestoreResult = "nofind"
)

func (r RestoreResult) Token() string { return string(r) }

// OpenChatResult answers ChatFriend and ChatGroup.
type OpenChatResult string

const (
	OpenChatHave     OpenChatResult = TokenHave
	OpenChatNone     OpenChatResult = TokenNone
	OpenChatNotFound OpenChatResult = "nofind"
	OpenChatNoGroup  OpenChatResult = "nohave"
)

func (r OpenChatResult) Token() string { return string(r) }

// SendResult answers FriendMsg and GroupMsg.
type SendResult string

const (
	SendOK     SendResult = TokenOK
	SendNoPeer SendResult = "nohave"
)

func (r SendResult) Token() string { return string(r) }

// ExitChatResult answers ExitChat and ExitGroupChat.
type ExitChatResult string

const (
	ExitChatOK    ExitChatResult = TokenOK
	ExitChatNotIn ExitChatResult = TokenNo
)

func (r ExitChatResult) Token() string { return string(r) }

// ListResult closes or replaces a list reply.
type ListResult string

const (
	ListEnd       ListResult = TokenEnd
	ListNone      ListResult = TokenNone
	ListForbidden ListResult = "cannot"
	ListNoGroup   ListResult = "nohave"
	ListNotFound  ListResult = "nofind"
)

func (r ListResult) Token() string { return string(r) }

// CreateGroupResult carries either the new group id or the first member id
// that is not a friend of the founder.
type CreateGroupResult struct {
	GroupID string
	Missing string
}

func (r CreateGroupResult) OK() bool { return r.GroupID != "" }

func (r CreateGroupResult) Token() string {
	if r.OK() {
		return r.GroupID
	}
	return "nofind" + r.Missing
}

type AddGroupResult string

const (
	AddGroupOK       AddGroupResult = TokenOK
	AddGroupNotFound AddGroupResult = "nofind"
	AddGroupAlready  AddGroupResult = "had"
	AddGroupPending  AddGroupResult = "cannot"
)

func (r AddGroupResult) Token() string { return string(r) }

type AboutGroupResult string

const (
	AboutGroupMember    AboutGroupResult = TokenOK
	AboutGroupNotMember AboutGroupResult = TokenNo
	AboutGroupNoGroup   AboutGroupResult = "nohave"
)

func (r AboutGroupResult) Token() string { return string(r) }

// ResolveApplyResult answers PassApply and DenyApply.
type ResolveApplyResult string

const (
	ResolveApplyOK        ResolveApplyResult = TokenOK
	ResolveApplyForbidden ResolveApplyResult = "cannot"
	ResolveApplyAlready   ResolveApplyResult = "had"
	ResolveApplyNotFound  ResolveApplyResult = "nofind"
	ResolveApplyHandled   ResolveApplyResult = "haddeal"
)

func (r ResolveApplyResult) Token() string { return string(r) }

type SetMemberResult string

const (
	SetMemberOK        SetMemberResult = TokenOK
	SetMemberForbidden SetMemberResult = "cannot"
	SetMemberNotMember SetMemberResult = "nohave"
	SetMemberSelf      SetMemberResult = "cannot1"
	SetMemberBadRole   SetMemberResult = "cannot2"
	SetMemberAlready   SetMemberResult = "hadis"
)

func (r SetMemberResult) Token() string { return string(r) }

type ExitGroupResult string

const (
	ExitGroupOK        ExitGroupResult = TokenOK
	ExitGroupOwner     ExitGroupResult = "cannot"
	ExitGroupNotMember ExitGroupResult = "nohave"
)

func (r ExitGroupResult) Token() string { return string(r) }

type RemoveMemberResult string

const (
	RemoveMemberOK         RemoveMemberResult = TokenOK
	RemoveMemberForbidden  RemoveMemberResult = "cannot"
	RemoveMemberPrivileged RemoveMemberResult = "cannot0"
	RemoveMemberNotMember  RemoveMemberResult = TokenNo
)

func (r RemoveMemberResult) Token() string { return string(r) }

type DissolveResult string

const (
	DissolveOK        DissolveResult = TokenOK
	DissolveForbidden DissolveResult = "cannot"
	DissolveNoGroup   DissolveResult = "nohave"
)

func (r DissolveResult) Token() string { return string(r) }

// FileResult answers the handshake of SendFile and SendFileGroup.
type FileResult string

const (
	FileReady   FileResult = TokenOK
	FileNoPeer  FileResult = "nohave"
	FileInvalid FileResult = TokenInvalid
	FileMissing FileResult = TokenNo
)

func (r FileResult) Token() string { return string(r) }
