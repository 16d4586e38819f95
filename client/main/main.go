package main

import (
	"chatserver/client/processes"
	"chatserver/client/utils"
	"chatserver/common/message"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var serverAddr string

type verb struct {
	op    message.OpCode
	arity int
	list  bool
	usage string
}

var verbs = map[string]verb{
	"add":      {message.AddFriend, 2, false, "add <uid> <note>"},
	"agree":    {message.AgreeAddFriend, 1, false, "agree <uid>"},
	"refuse":   {message.RefuseAddFriend, 1, false, "refuse <uid>"},
	"delete":   {message.DeleteFriend, 1, false, "delete <uid>"},
	"shield":   {message.ShieldFriend, 1, false, "shield <uid>"},
	"restore":  {message.RestoreFriend, 1, false, "restore <uid>"},
	"friends":  {message.ListFriend, 0, true, "friends"},
	"chat":     {message.ChatFriend, 1, true, "chat <uid>"},
	"say":      {message.FriendMsg, 2, false, "say <uid> <text>"},
	"exit":     {message.ExitChat, 0, false, "exit"},
	"unread":   {message.NewMessage, 0, true, "unread"},
	"system":   {message.LookSystem, 0, true, "system"},
	"notices":  {message.LookNotice, 0, true, "notices"},
	"create":   {message.CreateGroup, 2, false, "create <uid,uid,...> <name>"},
	"groups":   {message.ListGroup, 0, true, "groups"},
	"join":     {message.AddGroup, 2, false, "join <gid> <note>"},
	"about":    {message.AboutGroup, 1, false, "about <gid>"},
	"applies":  {message.RequestList, 1, true, "applies <gid>"},
	"pass":     {message.PassApply, 2, false, "pass <gid> <uid>"},
	"deny":     {message.DenyApply, 2, false, "deny <gid> <uid>"},
	"role":     {message.SetMember, 3, false, "role <gid> <uid> <member|admin|owner>"},
	"leave":    {message.ExitGroup, 1, false, "leave <gid>"},
	"members":  {message.DisplayMember, 1, true, "members <gid>"},
	"kick":     {message.RemoveMember, 2, false, "kick <gid> <uid>"},
	"info":     {message.Info, 1, true, "info [uid]"},
	"gchat":    {message.ChatGroup, 1, true, "gchat <gid>"},
	"gsay":     {message.GroupMsg, 2, false, "gsay <gid> <text>"},
	"gexit":    {message.ExitGroupChat, 0, false, "gexit"},
	"dissolve": {message.Dissolve, 1, false, "dissolve <gid>"},
}

var rootCmd = &cobra.Command{
	Use:          "chatclient",
	Short:        "Line-oriented client for chatserver",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := processes.Dial(serverAddr)
		if err != nil {
			return err
		}
		defer c.Close()
		return repl(c, utils.NewInput(cmd.InOrStdin(), cmd.OutOrStdout()), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&serverAddr, "addr", "a", "127.0.0.1:6666", "server address")
}

func usage(out io.Writer) {
	names := make([]string, 0, len(verbs))
	for _, v := range verbs {
		names = append(names, v.usage)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "register <password> [name] | login <uid> <password> | quit")
	fmt.Fprintln(out, "sendfile <uid> <path> | recvfile <uid> <name> | gsendfile <gid> <path> | grecvfile <gid> <name>")
	fmt.Fprintln(out, strings.Join(names, "\n"))
}

func repl(c *processes.Client, in *utils.Input, out io.Writer) error {
	for {
		line, ok := in.ReadLine("> ")
		if !ok {
			return c.Quit()
		}
		if line == "" {
			continue
		}
		name, rest := line, ""
		if i := strings.IndexByte(line, ' '); i > 0 {
			name, rest = line[:i], line[i+1:]
		}
		var err error
		switch name {
		case "quit":
			return c.Quit()
		case "help":
			usage(out)
		case "register":
			args := utils.SplitArgs(rest, 2)
			if len(args) < 1 {
				fmt.Fprintln(out, "register <password> [name]")
				continue
			}
			args = append(args, "")
			var uid string
			if uid, err = c.Register(args[0], args[1]); err == nil {
				fmt.Fprintf(out, "your account id is %s\n", uid)
			}
		case "login":
			args := utils.SplitArgs(rest, 2)
			if len(args) < 2 {
				fmt.Fprintln(out, "login <uid> <password>")
				continue
			}
			var res message.LoginResult
			res, err = c.Login(args[0], args[1])
			fmt.Fprintln(out, res)
			if err == nil && res == message.LoginOK {
				go printPushes(c, out)
			}
		case "sendfile", "gsendfile":
			args := utils.SplitArgs(rest, 2)
			if len(args) < 2 {
				fmt.Fprintln(out, name+" <id> <path>")
				continue
			}
			err = sendFile(c, out, args[0], args[1], name == "gsendfile")
		case "recvfile", "grecvfile":
			args := utils.SplitArgs(rest, 2)
			if len(args) < 2 {
				fmt.Fprintln(out, name+" <id> <name>")
				continue
			}
			err = recvFile(c, out, args[0], args[1], name == "grecvfile")
		default:
			v, ok := verbs[name]
			if !ok {
				usage(out)
				continue
			}
			err = run(c, out, v, utils.SplitArgs(rest, v.arity))
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			if err == io.EOF || strings.Contains(err.Error(), "closed") {
				return err
			}
		}
	}
}

func run(c *processes.Client, out io.Writer, v verb, args []string) error {
	if len(args) < v.arity && v.op != message.Info {
		fmt.Fprintln(out, v.usage)
		return nil
	}
	if !v.list {
		reply, err := c.Call(v.op, args...)
		if err == nil {
			fmt.Fprintln(out, reply)
		}
		return err
	}
	lines, status, err := c.CallList(v.op, args...)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	if status != message.TokenEnd && status != message.TokenHave {
		fmt.Fprintln(out, status)
	}
	return nil
}

func printPushes(c *processes.Client, out io.Writer) {
	for line := range c.Pushes() {
		fmt.Fprintf(out, "\n* %s\n", line)
	}
}

func sendFile(c *processes.Client, out io.Writer, peer, path string, group bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	reply, err := c.SendFile(peer, filepath.Base(path), st.Size(), f, group)
	if err == nil {
		fmt.Fprintln(out, reply)
	}
	return err
}

func recvFile(c *processes.Client, out io.Writer, peer, name string, group bool) error {
	f, err := os.CreateTemp(".", "."+name+".part-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	n, reply, err := c.RecvFile(peer, name, f, group)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n < 0 {
		fmt.Fprintln(out, reply)
		return nil
	}
	if err := os.Rename(f.Name(), name); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s (%d bytes)\n", name, n)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
