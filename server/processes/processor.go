package processes

import (
	"chatserver/common/message"
	srvutils "chatserver/server/utils"
	"io"
	"strconv"
)

type handlerFunc func(p *Processor, s *Session, cmd *message.Command) error

type route struct {
	arity int
	auth  bool
	fn    handlerFunc
}

// Processor routes decoded commands to the engine and writes the replies.
// A returned error means the connection is unusable and must be torn down.
type Processor struct {
	engine *Engine
	routes map[message.OpCode]route
	log    *srvutils.Logger
}

func NewProcessor(engine *Engine, log *srvutils.Logger) *Processor {
	p := &Processor{engine: engine, log: log}
	p.routes = map[message.OpCode]route{
		message.LoginCheck: {1, false, (*Processor).login},
		message.Register:   {1, false, (*Processor).register},

		message.AddFriend:       {2, true, (*Processor).addFriend},
		message.AgreeAddFriend:  {1, true, (*Processor).agreeAddFriend},
		message.RefuseAddFriend: {1, true, (*Processor).refuseAddFriend},
		message.DeleteFriend:    {1, true, (*Processor).deleteFriend},
		message.ShieldFriend:    {1, true, (*Processor).shieldFriend},
		message.RestoreFriend:   {1, true, (*Processor).restoreFriend},

		message.CreateGroup:  {1, true, (*Processor).createGroup},
		message.AddGroup:     {1, true, (*Processor).addGroup},
		message.Add:          {1, true, (*Processor).addGroup},
		message.PassApply:    {2, true, (*Processor).passApply},
		message.DenyApply:    {2, true, (*Processor).denyApply},
		message.SetMember:    {3, true, (*Processor).setMember},
		message.RemoveMember: {2, true, (*Processor).removeMember},
		message.ExitGroup:    {1, true, (*Processor).exitGroup},
		message.Dissolve:     {1, true, (*Processor).dissolve},

		message.ListFriend:    {0, true, (*Processor).listFriend},
		message.ListGroup:     {0, true, (*Processor).listGroup},
		message.NewMessage:    {0, true, (*Processor).newMessage},
		message.LookSystem:    {0, true, (*Processor).lookSystem},
		message.LookNotice:    {0, true, (*Processor).lookNotice},
		message.DisplayMember: {1, true, (*Processor).displayMember},
		message.RequestList:   {1, true, (*Processor).requestList},
		message.AboutGroup:    {1, true, (*Processor).aboutGroup},
		message.Info:          {0, true, (*Processor).info},

		message.ChatFriend:    {1, true, (*Processor).chatFriend},
		message.FriendMsg:     {2, true, (*Processor).friendMsg},
		message.ExitChat:      {0, true, (*Processor).exitChat},
		message.ChatGroup:     {1, true, (*Processor).chatGroup},
		message.GroupMsg:      {2, true, (*Processor).groupMsg},
		message.ExitGroupChat: {0, true, (*Processor).exitChat},

		message.SendFile:      {3, true, (*Processor).sendFile},
		message.RecvFile:      {2, true, (*Processor).recvFile},
		message.SendFileGroup: {3, true, (*Processor).sendFileGroup},
		message.RecvFileGroup: {2, true, (*Processor).recvFileGroup},
	}
	return p
}

func (p *Processor) Engine() *Engine { return p.engine }

// ServerProcessMes dispatches one command read from s.
func (p *Processor) ServerProcessMes(s *Session, cmd *message.Command) error {
	r, ok := p.routes[cmd.Flag]
	if !ok {
		p.log.Warn("%s sent unknown operation %s", s, cmd.Flag)
		return p.reply(s, message.Invalid)
	}
	if r.auth && (s.UID() == "" || s.IsNotify() || cmd.UID != s.UID()) {
		return p.reply(s, message.Unauthorized)
	}
	if len(cmd.Option) < r.arity {
		return p.reply(s, message.Invalid)
	}
	p.log.Debug("%s -> %s %q", s, cmd.Flag, cmd.Option)
	return r.fn(p, s, cmd)
}

// BindNotify handles SetRecvFd, which the multiplexer intercepts before the
// worker pool.
func (p *Processor) BindNotify(s *Session, cmd *message.Command) error {
	if s.UID() != "" {
		return p.reply(s, message.BindDenied)
	}
	res, err := p.engine.BindNotify(s, cmd.UID)
	return p.result(s, res, err)
}

func (p *Processor) reply(s *Session, res message.Result) error {
	return s.Tf.WriteString(res.Token())
}

// result replies with res, or with the generic failure token when the
// engine failed.
func (p *Processor) result(s *Session, res message.Result, err error) error {
	if err != nil {
		p.log.Error("%s: %v", s, err)
		return p.reply(s, message.Fail)
	}
	return p.reply(s, res)
}

// list replies with the lines followed by the closing token, or with the
// token alone when there is nothing to show.
func (p *Processor) list(s *Session, res message.Result, lines []string, err error) error {
	if err != nil {
		p.log.Error("%s: %v", s, err)
		return p.reply(s, message.Fail)
	}
	return s.Tf.WriteStrings(append(lines, res.Token())...)
}

// history replies "have", the lines and the end sentinel.
func (p *Processor) history(s *Session, res message.OpenChatResult, lines []string, err error) error {
	if err != nil {
		p.log.Error("%s: %v", s, err)
		return p.reply(s, message.Fail)
	}
	if res != message.OpenChatHave {
		return p.reply(s, res)
	}
	out := make([]string, 0, len(lines)+2)
	out = append(out, res.Token())
	out = append(out, lines...)
	out = append(out, message.TokenEnd)
	return s.Tf.WriteStrings(out...)
}

// ---- session control ----

func (p *Processor) login(s *Session, cmd *message.Command) error {
	if s.UID() != "" {
		return p.reply(s, message.LoginOnline)
	}
	res, err := p.engine.Login(s, cmd.UID, cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) register(s *Session, cmd *message.Command) error {
	uid, err := p.engine.Register(cmd.Arg(0), cmd.Arg(1))
	if err != nil {
		p.log.Error("%s: register: %v", s, err)
		return p.reply(s, message.Fail)
	}
	return s.Tf.WriteString(uid)
}

// ---- friends ----

func (p *Processor) addFriend(s *Session, cmd *message.Command) error {
	res, err := p.engine.AddFriend(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) agreeAddFriend(s *Session, cmd *message.Command) error {
	res, err := p.engine.AgreeAddFriend(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) refuseAddFriend(s *Session, cmd *message.Command) error {
	res, err := p.engine.RefuseAddFriend(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) deleteFriend(s *Session, cmd *message.Command) error {
	res, err := p.engine.DeleteFriend(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) shieldFriend(s *Session, cmd *message.Command) error {
	res, err := p.engine.ShieldFriend(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) restoreFriend(s *Session, cmd *message.Command) error {
	res, err := p.engine.RestoreFriend(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

// ---- groups ----

func (p *Processor) createGroup(s *Session, cmd *message.Command) error {
	res, err := p.engine.CreateGroup(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) addGroup(s *Session, cmd *message.Command) error {
	res, err := p.engine.AddGroup(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) passApply(s *Session, cmd *message.Command) error {
	res, err := p.engine.PassApply(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) denyApply(s *Session, cmd *message.Command) error {
	res, err := p.engine.DenyApply(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) setMember(s *Session, cmd *message.Command) error {
	res, err := p.engine.SetMember(s.UID(), cmd.Arg(0), cmd.Arg(1), cmd.Arg(2))
	return p.result(s, res, err)
}

func (p *Processor) removeMember(s *Session, cmd *message.Command) error {
	res, err := p.engine.RemoveMember(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) exitGroup(s *Session, cmd *message.Command) error {
	res, err := p.engine.ExitGroup(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) dissolve(s *Session, cmd *message.Command) error {
	res, err := p.engine.Dissolve(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

// ---- read paths ----

func (p *Processor) listFriend(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.ListFriend(s.UID())
	return p.list(s, res, lines, err)
}

func (p *Processor) listGroup(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.ListGroup(s.UID())
	return p.list(s, res, lines, err)
}

func (p *Processor) newMessage(s *Session, cmd *message.Command) error {
	lines, err := p.engine.NewMessage(s.UID())
	return p.list(s, message.ListEnd, lines, err)
}

func (p *Processor) lookSystem(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.LookSystem(s.UID())
	return p.list(s, res, lines, err)
}

func (p *Processor) lookNotice(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.LookNotice(s.UID())
	return p.list(s, res, lines, err)
}

func (p *Processor) displayMember(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.DisplayMember(s.UID(), cmd.Arg(0))
	return p.list(s, res, lines, err)
}

func (p *Processor) requestList(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.RequestList(s.UID(), cmd.Arg(0))
	return p.list(s, res, lines, err)
}

func (p *Processor) aboutGroup(s *Session, cmd *message.Command) error {
	res, err := p.engine.AboutGroup(s.UID(), cmd.Arg(0))
	return p.result(s, res, err)
}

func (p *Processor) info(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.Profile(s.UID(), cmd.Arg(0))
	return p.list(s, res, lines, err)
}

// ---- messaging ----

func (p *Processor) chatFriend(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.ChatFriend(s.UID(), cmd.Arg(0))
	return p.history(s, res, lines, err)
}

func (p *Processor) friendMsg(s *Session, cmd *message.Command) error {
	res, err := p.engine.FriendMsg(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

func (p *Processor) exitChat(s *Session, cmd *message.Command) error {
	res, err := p.engine.ExitChat(s.UID())
	return p.result(s, res, err)
}

func (p *Processor) chatGroup(s *Session, cmd *message.Command) error {
	res, lines, err := p.engine.ChatGroup(s.UID(), cmd.Arg(0))
	return p.history(s, res, lines, err)
}

func (p *Processor) groupMsg(s *Session, cmd *message.Command) error {
	res, err := p.engine.GroupMsg(s.UID(), cmd.Arg(0), cmd.Arg(1))
	return p.result(s, res, err)
}

// ---- files ----

func (p *Processor) sendFile(s *Session, cmd *message.Command) error {
	return p.upload(s, cmd, false)
}

func (p *Processor) sendFileGroup(s *Session, cmd *message.Command) error {
	return p.upload(s, cmd, true)
}

func (p *Processor) recvFile(s *Session, cmd *message.Command) error {
	return p.download(s, cmd, false)
}

func (p *Processor) recvFileGroup(s *Session, cmd *message.Command) error {
	return p.download(s, cmd, true)
}

// upload replies "ok", consumes exactly the announced byte count and
// replies "ok" again. Any failure during the raw phase closes the
// connection since the stream can no longer be framed.
func (p *Processor) upload(s *Session, cmd *message.Command, group bool) error {
	res, ticket, err := p.engine.StageUpload(s.UID(), cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), group)
	if err != nil || res != message.FileReady {
		return p.result(s, res, err)
	}
	if err := p.reply(s, res); err != nil {
		return err
	}
	err = p.engine.StoreUpload(ticket, func(w io.Writer, n int64) error {
		return s.Tf.ReadRaw(w, n)
	})
	if err != nil {
		p.log.Error("%s: upload %s: %v", s, ticket.Name, err)
		return err
	}
	return p.reply(s, message.FileReady)
}

// download replies with the size and streams the raw bytes.
func (p *Processor) download(s *Session, cmd *message.Command, group bool) error {
	res, f, size, err := p.engine.OpenDownload(s.UID(), cmd.Arg(0), cmd.Arg(1), group)
	if err != nil || res != message.FileReady {
		return p.result(s, res, err)
	}
	defer f.Close()
	if err := s.Tf.WriteString(strconv.FormatInt(size, 10)); err != nil {
		return err
	}
	if err := s.Tf.WriteRaw(f, size); err != nil {
		return err
	}
	if err := p.engine.FinishDownload(s.UID(), cmd.Arg(0), cmd.Arg(1), group); err != nil {
		p.log.Error("%s: record download: %v", s, err)
	}
	return nil
}
