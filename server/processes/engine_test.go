package processes

import (
	"chatserver/common/message"
	"chatserver/common/utils"
	"chatserver/server/model"
	srvutils "chatserver/server/utils"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t   *testing.T
	dao *model.UserDao
	mgr *UserMgr
	eng *Engine
	fd  int
}

func newHarness(t *testing.T) *harness {
	log := srvutils.NewWriter(srvutils.LevelNone, io.Discard, "test")
	dao := model.NewUserDao(model.NewMemStore())
	mgr := NewUserMgr(dao, log)
	eng := NewEngine(dao, mgr, EngineOptions{FileDir: t.TempDir(), MaxFile: 1 << 20}, log)
	return &harness{t: t, dao: dao, mgr: mgr, eng: eng, fd: 100}
}

// conn is the client end of a session; frames collects what the server
// wrote to it.
type conn struct {
	s      *Session
	peer   net.Conn
	tf     *utils.Transfer
	frames chan string
}

func (h *harness) connect() *conn {
	h.fd++
	server, client := net.Pipe()
	s := NewSession(h.fd, server)
	h.mgr.AddSession(s)
	c := &conn{s: s, peer: client, tf: utils.NewTransfer(client), frames: make(chan string, 256)}
	go func() {
		defer close(c.frames)
		for {
			line, err := c.tf.ReadString()
			if err != nil {
				return
			}
			c.frames <- line
		}
	}()
	h.t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return c
}

func (c *conn) next(t *testing.T) string {
	t.Helper()
	select {
	case line, ok := <-c.frames:
		require.True(t, ok, "connection closed")
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return ""
	}
}

func (c *conn) expect(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, c.next(t), substr)
}

func (c *conn) quiet(t *testing.T) {
	t.Helper()
	select {
	case line := <-c.frames:
		t.Fatalf("unexpected frame %q", line)
	case <-time.After(50 * time.Millisecond):
	}
}

type account struct {
	uid  string
	cmd  *conn
	push *conn
}

// register creates an account that stays offline.
func (h *harness) register(name string) *account {
	uid, err := h.eng.Register("pw", name)
	require.NoError(h.t, err)
	return &account{uid: uid}
}

// online creates an account with both sockets bound.
func (h *harness) online(name string) *account {
	a := h.register(name)
	h.login(a)
	return a
}

func (h *harness) login(a *account) {
	a.cmd, a.push = h.connect(), h.connect()
	res, err := h.eng.Login(a.cmd.s, a.uid, "pw")
	require.NoError(h.t, err)
	require.Equal(h.t, message.LoginOK, res)
	bind, err := h.eng.BindNotify(a.push.s, a.uid)
	require.NoError(h.t, err)
	require.Equal(h.t, message.BindOK, bind)
}

func (h *harness) befriend(a, b *account) {
	res, err := h.eng.AddFriend(a.uid, b.uid, "hi")
	require.NoError(h.t, err)
	require.Equal(h.t, message.AddFriendOK, res)
	agree, err := h.eng.AgreeAddFriend(b.uid, a.uid)
	require.NoError(h.t, err)
	require.Equal(h.t, message.ResolveFriendOK, agree)
}

func (h *harness) unread(uid, category string) int64 {
	counters, err := h.dao.Unread(uid)
	require.NoError(h.t, err)
	return counters[category]
}

func TestLoginAndBind(t *testing.T) {
	h := newHarness(t)
	a := h.register("alice")

	res, err := h.eng.Login(h.connect().s, a.uid, "wrong")
	require.NoError(t, err)
	assert.Equal(t, message.LoginIncorrect, res)
	res, err = h.eng.Login(h.connect().s, "9999", "pw")
	require.NoError(t, err)
	assert.Equal(t, message.LoginIncorrect, res)

	bind, err := h.eng.BindNotify(h.connect().s, a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.BindDenied, bind, "binding before login")

	h.login(a)
	res, err = h.eng.Login(h.connect().s, a.uid, "pw")
	require.NoError(t, err)
	assert.Equal(t, message.LoginOnline, res)

	h.mgr.Teardown(a.cmd.s)
	up, err := h.mgr.IsOnline(a.uid)
	require.NoError(t, err)
	assert.False(t, up)
	s, err := h.mgr.LookupNotificationChannel(a.uid)
	require.NoError(t, err)
	assert.Nil(t, s, "logging out drops the notification binding")
	assert.False(t, h.mgr.Push(a.uid, "lost"))
}

func TestTeardownKeepsNewerPresence(t *testing.T) {
	h := newHarness(t)
	a := h.online("alice")
	old := a.cmd.s

	h.mgr.Teardown(old)
	h.login(a)
	h.mgr.Teardown(old)

	up, err := h.mgr.IsOnline(a.uid)
	require.NoError(t, err)
	assert.True(t, up)
	s, err := h.mgr.LookupNotificationChannel(a.uid)
	require.NoError(t, err)
	assert.Equal(t, a.push.s, s)
}

func TestFriendLifecycle(t *testing.T) {
	h := newHarness(t)
	a, b := h.online("alice"), h.online("bob")

	res, err := h.eng.AddFriend(a.uid, b.uid, "hi")
	require.NoError(t, err)
	require.Equal(t, message.AddFriendOK, res)
	b.push.expect(t, "wants to add you as a friend: hi")
	assert.EqualValues(t, 1, h.unread(b.uid, model.CategorySystem))

	res, err = h.eng.AddFriend(a.uid, b.uid, "again")
	require.NoError(t, err)
	assert.Equal(t, message.AddFriendOutboundOpen, res)
	res, err = h.eng.AddFriend(b.uid, a.uid, "crossed")
	require.NoError(t, err)
	assert.Equal(t, message.AddFriendInboundOpen, res)

	_, lines, err := h.eng.LookSystem(b.uid)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "friend request from "+a.uid+": hi")
	assert.EqualValues(t, 1, h.unread(b.uid, model.CategorySystem), "viewing does not clear pending requests")

	agree, err := h.eng.AgreeAddFriend(b.uid, a.uid)
	require.NoError(t, err)
	require.Equal(t, message.ResolveFriendOK, agree)
	a.push.expect(t, "accepted your friend request")
	assert.EqualValues(t, 0, h.unread(b.uid, model.CategorySystem))

	for _, pair := range [][2]string{{a.uid, b.uid}, {b.uid, a.uid}} {
		ok, err := h.dao.IsFriend(pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok, "%s -> %s", pair[0], pair[1])
	}

	agree, err = h.eng.AgreeAddFriend(b.uid, a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveFriendHandled, agree)
	agree, err = h.eng.RefuseAddFriend(b.uid, a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveFriendHandled, agree)
	assert.EqualValues(t, 0, h.unread(b.uid, model.CategorySystem), "re-resolving changes nothing")

	res, err = h.eng.AddFriend(a.uid, b.uid, "hi")
	require.NoError(t, err)
	assert.Equal(t, message.AddFriendAlready, res)

	_, err = h.eng.FriendMsg(a.uid, b.uid, "hello")
	require.NoError(t, err)
	del, err := h.eng.DeleteFriend(a.uid, b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.DeleteFriendOK, del)
	for _, pair := range [][2]string{{a.uid, b.uid}, {b.uid, a.uid}} {
		ok, err := h.dao.IsFriend(pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, ok)
		history, err := h.dao.ChatHistory(pair[0], pair[1])
		require.NoError(t, err)
		assert.Empty(t, history)
	}
	del, err = h.eng.DeleteFriend(a.uid, b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.DeleteFriendNotFound, del)
}

func TestAddFriendEdges(t *testing.T) {
	h := newHarness(t)
	a, b := h.register("alice"), h.register("bob")

	res, err := h.eng.AddFriend(a.uid, "9999", "x")
	require.NoError(t, err)
	assert.Equal(t, message.AddFriendNotFound, res)
	res, err = h.eng.AddFriend(a.uid, a.uid, "x")
	require.NoError(t, err)
	assert.Equal(t, message.AddFriendNotFound, res)

	agree, err := h.eng.AgreeAddFriend(a.uid, b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveFriendNotFound, agree)

	res, err = h.eng.AddFriend(a.uid, b.uid, "x")
	require.NoError(t, err)
	require.Equal(t, message.AddFriendOK, res)
	refuse, err := h.eng.RefuseAddFriend(b.uid, a.uid)
	require.NoError(t, err)
	require.Equal(t, message.ResolveFriendOK, refuse)
	ok, err := h.dao.IsFriend(a.uid, b.uid)
	require.NoError(t, err)
	assert.False(t, ok, "rejection never creates an edge")
	assert.EqualValues(t, 1, h.unread(a.uid, model.CategoryNotice), "requester is told offline")

	res, err = h.eng.AddFriend(a.uid, b.uid, "once more")
	require.NoError(t, err)
	assert.Equal(t, message.AddFriendOK, res, "a resolved request no longer blocks")
}

func TestDirectMessageDelivery(t *testing.T) {
	h := newHarness(t)
	a, b := h.online("alice"), h.online("bob")
	h.befriend(a, b)
	b.push.next(t)
	a.push.next(t)

	res, err := h.eng.FriendMsg(a.uid, b.uid, "hello")
	require.NoError(t, err)
	require.Equal(t, message.SendOK, res)
	a.push.expect(t, "me: hello")
	b.push.expect(t, "new message from alice("+a.uid+")")
	assert.EqualValues(t, 1, h.unread(b.uid, model.CategoryFrom(a.uid)))

	st, history, err := h.eng.ChatFriend(b.uid, a.uid)
	require.NoError(t, err)
	require.Equal(t, message.OpenChatHave, st)
	require.Len(t, history, 1)
	assert.True(t, strings.HasPrefix(history[0], "alice: hello"))
	assert.EqualValues(t, 0, h.unread(b.uid, model.CategoryFrom(a.uid)))

	_, err = h.eng.FriendMsg(a.uid, b.uid, "second")
	require.NoError(t, err)
	a.push.expect(t, "me: second")
	b.push.expect(t, "alice: second")
	assert.EqualValues(t, 0, h.unread(b.uid, model.CategoryFrom(a.uid)), "viewer gets the line, not a count")

	mine, err := h.dao.ChatHistory(a.uid, b.uid)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, strings.HasPrefix(mine[0], "me: hello"))
	assert.True(t, strings.HasPrefix(mine[1], "me: second"))

	exit, err := h.eng.ExitChat(b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ExitChatOK, exit)
	exit, err = h.eng.ExitChat(b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ExitChatNotIn, exit)
}

func TestOpenChatResults(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")

	st, _, err := h.eng.ChatFriend(a.uid, b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.OpenChatNone, st)

	h.befriend(a, b)
	st, history, err := h.eng.ChatFriend(a.uid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.OpenChatNotFound, st)
	assert.Nil(t, history)

	st, history, err = h.eng.ChatFriend(a.uid, b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.OpenChatHave, st)
	assert.Empty(t, history)

	send, err := h.eng.FriendMsg(a.uid, c.uid, "x")
	require.NoError(t, err)
	assert.Equal(t, message.SendNoPeer, send)
}

func TestShieldSuppressesDelivery(t *testing.T) {
	h := newHarness(t)
	a, b := h.online("alice"), h.online("bob")
	h.befriend(a, b)
	b.push.next(t)
	a.push.next(t)

	sh, err := h.eng.ShieldFriend(b.uid, a.uid)
	require.NoError(t, err)
	require.Equal(t, message.ShieldOK, sh)
	sh, err = h.eng.ShieldFriend(b.uid, a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ShieldAlready, sh)
	a.push.quiet(t)

	_, err = h.eng.FriendMsg(a.uid, b.uid, "psst")
	require.NoError(t, err)
	a.push.expect(t, "me: psst")
	b.push.quiet(t)
	assert.EqualValues(t, 0, h.unread(b.uid, model.CategoryFrom(a.uid)))
	history, err := h.dao.ChatHistory(b.uid, a.uid)
	require.NoError(t, err)
	assert.Len(t, history, 1, "shielded messages are still stored")

	_, lines, err := h.eng.ListFriend(b.uid)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[shielded]")

	rs, err := h.eng.RestoreFriend(b.uid, a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.RestoreOK, rs)
	rs, err = h.eng.RestoreFriend(b.uid, a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.RestoreNotShielded, rs)

	_, lines, err = h.eng.ListFriend(b.uid)
	require.NoError(t, err)
	assert.Contains(t, lines[0], "[online]")

	c := h.register("carol")
	sh, err = h.eng.ShieldFriend(b.uid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ShieldNotFriend, sh)
	rs, err = h.eng.RestoreFriend(b.uid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.RestoreNotFriend, rs)
}

func TestNoticeViews(t *testing.T) {
	h := newHarness(t)
	a, b := h.register("alice"), h.register("bob")
	h.befriend(a, b)
	_, err := h.eng.FriendMsg(b.uid, a.uid, "one")
	require.NoError(t, err)
	_, err = h.eng.FriendMsg(b.uid, a.uid, "two")
	require.NoError(t, err)

	lines, err := h.eng.NewMessage(a.uid)
	require.NoError(t, err)
	assert.Equal(t, []string{"system: 0", "notice: 1", "from " + b.uid + ": 2"}, lines)

	st, notices, err := h.eng.LookNotice(a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ListEnd, st)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "accepted your friend request")
	assert.EqualValues(t, 0, h.unread(a.uid, model.CategoryNotice))

	st, _, err = h.eng.LookSystem(a.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ListNone, st)
	st, _, err = h.eng.LookNotice(b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ListNone, st)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")
	h.befriend(a, b)

	st, lines, err := h.eng.Profile(a.uid, "")
	require.NoError(t, err)
	assert.Equal(t, message.ListEnd, st)
	assert.Contains(t, lines, "name: alice")

	_, lines, err = h.eng.Profile(a.uid, b.uid)
	require.NoError(t, err)
	assert.Contains(t, lines, "uid: "+b.uid)

	st, _, err = h.eng.Profile(a.uid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ListNotFound, st)
}

func (h *harness) group(owner *account, members ...*account) string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.uid)
	}
	res, err := h.eng.CreateGroup(owner.uid, strings.Join(ids, ","), "club")
	require.NoError(h.t, err)
	require.True(h.t, res.OK(), res.Token())
	return res.GroupID
}

func (h *harness) role(gid, uid string) message.RoleInGroupChat {
	role, ok, err := h.dao.Role(gid, uid)
	require.NoError(h.t, err)
	if !ok {
		return ""
	}
	return role
}

func owners(t *testing.T, h *harness, gid string) []string {
	members, err := h.dao.Members(gid)
	require.NoError(t, err)
	var out []string
	for uid, role := range members {
		if role == message.GroupChatOwner {
			out = append(out, uid)
		}
	}
	return out
}

func TestCreateGroup(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")
	h.befriend(a, b)

	res, err := h.eng.CreateGroup(a.uid, b.uid+","+c.uid, "club")
	require.NoError(t, err)
	assert.Equal(t, "nofind"+c.uid, res.Token())

	gid := h.group(a, b)
	assert.True(t, message.ValidGID(gid), gid)
	assert.Equal(t, message.GroupChatOwner, h.role(gid, a.uid))
	assert.Equal(t, message.GroupChatMember, h.role(gid, b.uid))
	assert.EqualValues(t, 1, h.unread(b.uid, model.CategoryNotice))
}

func TestJoinApplication(t *testing.T) {
	h := newHarness(t)
	a, b := h.online("alice"), h.register("bob")
	c := h.online("carol")
	h.befriend(a, b)
	a.push.next(t)
	gid := h.group(a, b)

	res, err := h.eng.AddGroup(c.uid, "999", "please")
	require.NoError(t, err)
	assert.Equal(t, message.AddGroupNotFound, res)
	res, err = h.eng.AddGroup(b.uid, gid, "please")
	require.NoError(t, err)
	assert.Equal(t, message.AddGroupAlready, res)

	res, err = h.eng.AddGroup(c.uid, gid, "please")
	require.NoError(t, err)
	require.Equal(t, message.AddGroupOK, res)
	a.push.expect(t, "applies to join group club("+gid+"): please")
	res, err = h.eng.AddGroup(c.uid, gid, "again")
	require.NoError(t, err)
	assert.Equal(t, message.AddGroupPending, res)

	st, _, err := h.eng.RequestList(b.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.ListForbidden, st)
	st, lines, err := h.eng.RequestList(a.uid, gid)
	require.NoError(t, err)
	require.Equal(t, message.ListEnd, st)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], c.uid+" applies to join "+gid+": please")

	pass, err := h.eng.PassApply(b.uid, gid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveApplyForbidden, pass)
	pass, err = h.eng.PassApply(a.uid, gid, b.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveApplyAlready, pass)
	pass, err = h.eng.PassApply(a.uid, gid, "9999")
	require.NoError(t, err)
	assert.Equal(t, message.ResolveApplyNotFound, pass)

	pass, err = h.eng.PassApply(a.uid, gid, c.uid)
	require.NoError(t, err)
	require.Equal(t, message.ResolveApplyOK, pass)
	c.push.expect(t, "was approved by alice")
	assert.Equal(t, message.GroupChatMember, h.role(gid, c.uid))

	_, roster, err := h.eng.DisplayMember(a.uid, gid)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Contains(t, roster[2], "bob("+b.uid+")")
	assert.Contains(t, roster[2], "[offline]", "offline members come last")

	_, err = h.eng.ExitGroup(c.uid, gid)
	require.NoError(t, err)
	deny, err := h.eng.DenyApply(a.uid, gid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveApplyHandled, deny, "the old application stays resolved")
}

func TestDenyApplication(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")
	h.befriend(a, b)
	gid := h.group(a, b)
	ss, err := h.eng.SetMember(a.uid, gid, b.uid, "admin")
	require.NoError(t, err)
	require.Equal(t, message.SetMemberOK, ss)

	_, err = h.eng.AddGroup(c.uid, gid, "let me in")
	require.NoError(t, err)
	deny, err := h.eng.DenyApply(b.uid, gid, c.uid)
	require.NoError(t, err)
	require.Equal(t, message.ResolveApplyOK, deny)
	assert.Empty(t, h.role(gid, c.uid))

	_, notices, err := h.eng.LookNotice(a.uid)
	require.NoError(t, err)
	assert.Contains(t, notices[len(notices)-1], "denied the application of carol")
	_, notices, err = h.eng.LookNotice(c.uid)
	require.NoError(t, err)
	assert.Contains(t, notices[0], "was denied by bob")

	deny, err = h.eng.PassApply(a.uid, gid, c.uid)
	require.NoError(t, err)
	assert.Equal(t, message.ResolveApplyHandled, deny)
}

func TestSetMemberAndOwnership(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")
	h.befriend(a, b)
	h.befriend(a, c)
	gid := h.group(a, b, c)

	tests := []struct {
		actor, target, role string
		want                message.SetMemberResult
	}{
		{b.uid, c.uid, "admin", message.SetMemberForbidden},
		{a.uid, "9999", "admin", message.SetMemberNotMember},
		{a.uid, a.uid, "admin", message.SetMemberSelf},
		{a.uid, b.uid, "emperor", message.SetMemberBadRole},
		{a.uid, b.uid, "member", message.SetMemberAlready},
		{a.uid, b.uid, "manager", message.SetMemberOK},
		{a.uid, b.uid, "admin", message.SetMemberAlready},
	}
	for _, tt := range tests {
		got, err := h.eng.SetMember(tt.actor, gid, tt.target, tt.role)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s sets %s to %s", tt.actor, tt.target, tt.role)
	}
	assert.Equal(t, message.GroupChatAdmin, h.role(gid, b.uid))

	ex, err := h.eng.ExitGroup(a.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.ExitGroupOwner, ex)

	got, err := h.eng.SetMember(a.uid, gid, c.uid, "leader")
	require.NoError(t, err)
	require.Equal(t, message.SetMemberOK, got)
	assert.Equal(t, []string{c.uid}, owners(t, h, gid))
	assert.Equal(t, message.GroupChatMember, h.role(gid, a.uid))

	dis, err := h.eng.Dissolve(a.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.DissolveForbidden, dis)
	ex, err = h.eng.ExitGroup(a.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.ExitGroupOK, ex)
	ex, err = h.eng.ExitGroup(a.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.ExitGroupNotMember, ex)
	assert.Equal(t, []string{c.uid}, owners(t, h, gid))
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	a, b, c, d := h.register("alice"), h.register("bob"), h.register("carol"), h.register("dave")
	h.befriend(a, b)
	h.befriend(a, c)
	h.befriend(a, d)
	gid := h.group(a, b, c, d)
	_, err := h.eng.SetMember(a.uid, gid, b.uid, "admin")
	require.NoError(t, err)

	tests := []struct {
		actor, target string
		want          message.RemoveMemberResult
	}{
		{c.uid, d.uid, message.RemoveMemberForbidden},
		{b.uid, a.uid, message.RemoveMemberPrivileged},
		{a.uid, b.uid, message.RemoveMemberPrivileged},
		{b.uid, "9999", message.RemoveMemberNotMember},
		{b.uid, d.uid, message.RemoveMemberOK},
		{b.uid, d.uid, message.RemoveMemberNotMember},
	}
	for _, tt := range tests {
		got, err := h.eng.RemoveMember(tt.actor, gid, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s removes %s", tt.actor, tt.target)
	}
	groups, err := h.dao.UserGroups(d.uid)
	require.NoError(t, err)
	assert.NotContains(t, groups, gid)
	_, notices, err := h.eng.LookNotice(d.uid)
	require.NoError(t, err)
	assert.Contains(t, notices[len(notices)-1], "you were removed from club("+gid+")")
}

func TestDissolve(t *testing.T) {
	h := newHarness(t)
	a, b := h.register("alice"), h.register("bob")
	h.befriend(a, b)
	gid := h.group(a, b)
	_, err := h.eng.GroupMsg(a.uid, gid, "bye")
	require.NoError(t, err)

	dis, err := h.eng.Dissolve(b.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.DissolveForbidden, dis)
	dis, err = h.eng.Dissolve(a.uid, gid)
	require.NoError(t, err)
	require.Equal(t, message.DissolveOK, dis)

	exists, err := h.dao.GroupExists(gid)
	require.NoError(t, err)
	assert.False(t, exists)
	for _, uid := range []string{a.uid, b.uid} {
		st, _, err := h.eng.ChatGroup(uid, gid)
		require.NoError(t, err)
		assert.Equal(t, message.OpenChatNone, st)
	}
	res, err := h.eng.AddGroup(b.uid, gid, "back")
	require.NoError(t, err)
	assert.Equal(t, message.AddGroupNotFound, res)
	dis, err = h.eng.Dissolve(a.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.DissolveNoGroup, dis)
	_, notices, err := h.eng.LookNotice(b.uid)
	require.NoError(t, err)
	assert.Contains(t, notices[len(notices)-1], "was dissolved by alice")
}

func TestGroupMessageFanout(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.online("alice"), h.online("bob"), h.register("carol")
	h.befriend(a, b)
	h.befriend(a, c)
	a.push.next(t)
	a.push.next(t)
	b.push.next(t)
	gid := h.group(a, b, c)
	b.push.expect(t, "added you to group club("+gid+")")

	st, _, err := h.eng.ChatGroup(b.uid, gid)
	require.NoError(t, err)
	require.Equal(t, message.OpenChatHave, st)

	res, err := h.eng.GroupMsg(a.uid, gid, "welcome")
	require.NoError(t, err)
	require.Equal(t, message.SendOK, res)
	a.push.expect(t, "me: welcome")
	b.push.expect(t, "["+gid+"] alice: welcome")
	assert.EqualValues(t, 0, h.unread(b.uid, model.CategoryFrom(gid)))
	assert.EqualValues(t, 1, h.unread(c.uid, model.CategoryFrom(gid)))

	_, err = h.eng.ExitChat(b.uid)
	require.NoError(t, err)
	_, err = h.eng.GroupMsg(a.uid, gid, "again")
	require.NoError(t, err)
	b.push.expect(t, "new message in group club("+gid+")")
	assert.EqualValues(t, 1, h.unread(b.uid, model.CategoryFrom(gid)))

	st, lines, err := h.eng.ChatGroup(c.uid, gid)
	require.NoError(t, err)
	require.Equal(t, message.OpenChatHave, st)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "alice: welcome"))
	_, lines, err = h.eng.ChatGroup(a.uid, gid)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(lines[1], "me: again"))
	assert.EqualValues(t, 0, h.unread(c.uid, model.CategoryFrom(gid)))

	d := h.register("dave")
	send, err := h.eng.GroupMsg(d.uid, gid, "x")
	require.NoError(t, err)
	assert.Equal(t, message.SendNoPeer, send)
	st, _, err = h.eng.ChatGroup(b.uid, "999")
	require.NoError(t, err)
	assert.Equal(t, message.OpenChatNoGroup, st)
	about, err := h.eng.AboutGroup(d.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.AboutGroupNotMember, about)
	about, err = h.eng.AboutGroup(b.uid, gid)
	require.NoError(t, err)
	assert.Equal(t, message.AboutGroupMember, about)
}

func TestFileTransfer(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")
	h.befriend(a, b)
	payload := "file body"

	res, _, err := h.eng.StageUpload(a.uid, c.uid, "notes.txt", "9", false)
	require.NoError(t, err)
	assert.Equal(t, message.FileNoPeer, res)
	for _, bad := range [][2]string{{"../x", "9"}, {"notes.txt", "-1"}, {"notes.txt", "lots"}, {"notes.txt", "99999999"}} {
		res, _, err = h.eng.StageUpload(a.uid, b.uid, bad[0], bad[1], false)
		require.NoError(t, err)
		assert.Equal(t, message.FileInvalid, res, "%v", bad)
	}

	res, ticket, err := h.eng.StageUpload(a.uid, b.uid, "notes.txt", "9", false)
	require.NoError(t, err)
	require.Equal(t, message.FileReady, res)
	err = h.eng.StoreUpload(ticket, func(w io.Writer, n int64) error {
		_, err := io.CopyN(w, strings.NewReader(payload[:4]), n)
		return err
	})
	require.Error(t, err, "short upload")
	res, _, _, err = h.eng.OpenDownload(b.uid, a.uid, "notes.txt", false)
	require.NoError(t, err)
	assert.Equal(t, message.FileMissing, res, "a short upload leaves nothing behind")

	err = h.eng.StoreUpload(ticket, func(w io.Writer, n int64) error {
		_, err := io.CopyN(w, strings.NewReader(payload), n)
		return err
	})
	require.NoError(t, err)

	res, f, size, err := h.eng.OpenDownload(b.uid, a.uid, "notes.txt", false)
	require.NoError(t, err)
	require.Equal(t, message.FileReady, res)
	body, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), size)
	assert.Equal(t, payload, string(body))
	require.NoError(t, h.eng.FinishDownload(b.uid, a.uid, "notes.txt", false))

	history, err := h.dao.ChatHistory(a.uid, b.uid)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, strings.HasPrefix(history[0], "me: sent file: notes.txt"))
	assert.Contains(t, history[1], "received file: notes.txt")

	res, _, _, err = h.eng.OpenDownload(c.uid, a.uid, "notes.txt", false)
	require.NoError(t, err)
	assert.Equal(t, message.FileMissing, res)
}

func TestGroupFileTransfer(t *testing.T) {
	h := newHarness(t)
	a, b, c := h.register("alice"), h.register("bob"), h.register("carol")
	h.befriend(a, b)
	gid := h.group(a, b)

	res, _, err := h.eng.StageUpload(c.uid, gid, "pic.png", "3", true)
	require.NoError(t, err)
	assert.Equal(t, message.FileNoPeer, res)

	res, ticket, err := h.eng.StageUpload(a.uid, gid, "pic.png", "3", true)
	require.NoError(t, err)
	require.Equal(t, message.FileReady, res)
	require.NoError(t, h.eng.StoreUpload(ticket, func(w io.Writer, n int64) error {
		_, err := io.CopyN(w, strings.NewReader("png"), n)
		return err
	}))

	res, f, size, err := h.eng.OpenDownload(b.uid, gid, "pic.png", true)
	require.NoError(t, err)
	require.Equal(t, message.FileReady, res)
	f.Close()
	assert.EqualValues(t, 3, size)
	res, _, _, err = h.eng.OpenDownload(c.uid, gid, "pic.png", true)
	require.NoError(t, err)
	assert.Equal(t, message.FileMissing, res)

	assert.EqualValues(t, 1, h.unread(b.uid, model.CategoryFrom(gid)))
}
