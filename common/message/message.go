package message

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// OpCode identifies the operation carried by a Command.
type OpCode int

// Operation codes. The numbering is part of the wire protocol.
const (
	SetRecvFd       OpCode = -1
	Quit            OpCode = 0
	LoginCheck      OpCode = 1
	Register        OpCode = 2
	AddFriend       OpCode = 3
	AgreeAddFriend  OpCode = 4
	ListFriend      OpCode = 5
	ChatFriend      OpCode = 6
	FriendMsg       OpCode = 7
	ExitChat        OpCode = 8
	ShieldFriend    OpCode = 9
	DeleteFriend    OpCode = 10
	RestoreFriend   OpCode = 11
	NewMessage      OpCode = 12
	LookSystem      OpCode = 13
	RefuseAddFriend OpCode = 14
	CreateGroup     OpCode = 15
	ListGroup       OpCode = 16
	AddGroup        OpCode = 17
	Add             OpCode = 18
	LookNotice      OpCode = 19
	AboutGroup      OpCode = 20
	RequestList     OpCode = 21
	PassApply       OpCode = 22
	DenyApply       OpCode = 23
	SetMember       OpCode = 24
	ExitGroup       OpCode = 25
	DisplayMember   OpCode = 26
	RemoveMember    OpCode = 27
	Info            OpCode = 28
	ChatGroup       OpCode = 29
	GroupMsg        OpCode = 30
	ExitGroupChat   OpCode = 31
	SendFile        OpCode = 32
	RecvFile        OpCode = 33
	SendFileGroup   OpCode = 34
	RecvFileGroup   OpCode = 35
	Dissolve        OpCode = 36
)

var opNames = map[OpCode]string{
	SetRecvFd:       "SetRecvFd",
	Quit:            "Quit",
	LoginCheck:      "LoginCheck",
	Register:        "Register",
	AddFriend:       "AddFriend",
	AgreeAddFriend:  "AgreeAddFriend",
	ListFriend:      "ListFriend",
	ChatFriend:      "ChatFriend",
	FriendMsg:       "FriendMsg",
	ExitChat:        "ExitChat",
	ShieldFriend:    "ShieldFriend",
	DeleteFriend:    "DeleteFriend",
	RestoreFriend:   "RestoreFriend",
	NewMessage:      "NewMessage",
	LookSystem:      "LookSystem",
	RefuseAddFriend: "RefuseAddFriend",
	CreateGroup:     "CreateGroup",
	ListGroup:       "ListGroup",
	AddGroup:        "AddGroup",
	Add:             "Add",
	LookNotice:      "LookNotice",
	AboutGroup:      "AboutGroup",
	RequestList:     "RequestList",
	PassApply:       "PassApply",
	DenyApply:       "DenyApply",
	SetMember:       "SetMember",
	ExitGroup:       "ExitGroup",
	DisplayMember:   "DisplayMember",
	RemoveMember:    "RemoveMember",
	Info:            "Info",
	ChatGroup:       "ChatGroup",
	GroupMsg:        "GroupMsg",
	ExitGroupChat:   "ExitGroupChat",
	SendFile:        "SendFile",
	RecvFile:        "RecvFile",
	SendFileGroup:   "SendFileGroup",
	RecvFileGroup:   "RecvFileGroup",
	Dissolve:        "Dissolve",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "OpCode(" + strconv.Itoa(int(op)) + ")"
}

// Anonymous is the uid carried by commands sent before login.
const Anonymous = "0"

// Raw frame payloads that close the session without going through a worker.
const (
	QuitSentinel  = "quit"
	CloseSentinel = "close"
)

// Command is the request envelope sent by a client.
type Command struct {
	UID    string   `json:"uid"`
	Flag   OpCode   `json:"flag"`
	Option []string `json:"option"`
}

func NewCommand(uid string, flag OpCode, option ...string) *Command {
	if option == nil {
		option = []string{}
	}
	return &Command{UID: uid, Flag: flag, Option: option}
}

// Arg returns the i-th argument or "" when absent.
func (c *Command) Arg(i int) string {
	if i < 0 || i >= len(c.Option) {
		return ""
	}
	return c.Option[i]
}

func (c *Command) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode command %s: %w", c.Flag, err)
	}
	return data, nil
}

func DecodeCommand(data []byte) (*Command, error) {
	cmd := &Command{}
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return cmd, nil
}

// IsQuit reports whether a raw frame asks for the session to be closed.
func IsQuit(data []byte) bool {
	s := string(data)
	return s == QuitSentinel || s == CloseSentinel
}
