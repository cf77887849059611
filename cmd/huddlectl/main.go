package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/client"
	"github.com/matheus3301/huddle/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	_ = godotenv.Load()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName("session", sessionName); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c, err := client.New(session.SocketPath(sessionName))
	if err != nil {
		fail(fmt.Errorf("cannot connect to daemon for session %q: %w", sessionName, err))
	}
	defer func() { _ = c.Close() }()

	out := &printer{w: os.Stdout, json: *jsonFlag}

	if args[0] == "watch" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := cmdWatch(ctx, c, out, args[1:]); err != nil {
			fail(err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		err = cmdStatus(ctx, c, out)
	case "roster":
		err = cmdRoster(ctx, c, out)
	case "messages":
		err = cmdMessages(ctx, c, out)
	case "send":
		err = cmdSend(ctx, c, out, args[1:])
	case "delete":
		if len(args) < 2 {
			fail(errors.New("usage: huddlectl delete <message-id>"))
		}
		err = cmdDelete(ctx, c, out, args[1])
	case "counter":
		err = cmdCounter(ctx, c, out, args[1:])
	case "typing":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			fail(errors.New("usage: huddlectl typing <on|off>"))
		}
		err = cmdTyping(ctx, c, out, args[1] == "on")
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: huddlectl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                     Show session status")
	fmt.Fprintln(os.Stderr, "  roster                     List peers in the session")
	fmt.Fprintln(os.Stderr, "  messages                   List visible chat messages")
	fmt.Fprintln(os.Stderr, "  send [--expires 10s] <text> Send a chat message")
	fmt.Fprintln(os.Stderr, "  delete <id>                Delete one of your messages")
	fmt.Fprintln(os.Stderr, "  counter [get|set N|inc|dec] Show or change the shared counter")
	fmt.Fprintln(os.Stderr, "  typing <on|off>            Set the typing indicator")
	fmt.Fprintln(os.Stderr, "  watch [prefix...]          Stream change notifications")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdStatus(ctx context.Context, c *client.Client, out *printer) error {
	resp, err := c.Session.GetStatus(ctx, &api.GetStatusRequest{})
	if err != nil {
		return err
	}
	if out.json {
		return out.raw(resp)
	}
	out.status(resp)
	return nil
}

func cmdRoster(ctx context.Context, c *client.Client, out *printer) error {
	resp, err := c.Session.ListRoster(ctx, &api.ListRosterRequest{})
	if err != nil {
		return err
	}
	if out.json {
		return out.raw(resp)
	}
	out.roster(resp.Peers, time.Now())
	return nil
}

func cmdMessages(ctx context.Context, c *client.Client, out *printer) error {
	resp, err := c.Session.ListMessages(ctx, &api.ListMessagesRequest{})
	if err != nil {
		return err
	}
	if out.json {
		return out.raw(resp)
	}
	out.messages(resp.Messages)
	return nil
}

func cmdSend(ctx context.Context, c *client.Client, out *printer, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	expires := fs.Duration("expires", 0, "delete the message everywhere after this long (0 = never)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: huddlectl send [--expires 10s] <text>")
	}

	resp, err := c.Session.SendMessage(ctx, &api.SendMessageRequest{
		Text:        fs.Arg(0),
		ExpiresInMs: expires.Milliseconds(),
	})
	if err != nil {
		return err
	}
	if out.json {
		return out.raw(resp)
	}
	out.okf("sent %s", resp.Message.ID)
	return nil
}

func cmdDelete(ctx context.Context, c *client.Client, out *printer, id string) error {
	if _, err := c.Session.DeleteMessage(ctx, &api.DeleteMessageRequest{MessageID: id}); err != nil {
		return err
	}
	if out.json {
		return out.raw(map[string]string{"deleted": id})
	}
	out.okf("deleted %s", id)
	return nil
}

// cmdCounter writes absolute values only; inc and dec read the local value
// first, so a concurrent remote write may be overwritten.
func cmdCounter(ctx context.Context, c *client.Client, out *printer, args []string) error {
	op := "get"
	if len(args) > 0 {
		op = args[0]
	}

	var (
		resp *api.CounterResponse
		err  error
	)
	switch op {
	case "get":
		resp, err = c.Session.GetCounter(ctx, &api.GetCounterRequest{})
	case "set":
		if len(args) != 2 {
			return errors.New("usage: huddlectl counter set <value>")
		}
		v, perr := strconv.ParseInt(args[1], 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid counter value %q: %w", args[1], perr)
		}
		resp, err = c.Session.UpdateCounter(ctx, &api.UpdateCounterRequest{Value: v})
	case "inc", "dec":
		cur, gerr := c.Session.GetCounter(ctx, &api.GetCounterRequest{})
		if gerr != nil {
			return gerr
		}
		resp, err = c.Session.UpdateCounter(ctx, &api.UpdateCounterRequest{Value: step(cur.Value, op)})
	default:
		return fmt.Errorf("unknown counter operation %q", op)
	}
	if err != nil {
		return err
	}
	if out.json {
		return out.raw(resp)
	}
	out.counter(resp)
	return nil
}

func step(v int64, op string) int64 {
	if op == "dec" {
		return v - 1
	}
	return v + 1
}

func cmdTyping(ctx context.Context, c *client.Client, out *printer, on bool) error {
	if _, err := c.Session.MarkTyping(ctx, &api.MarkTypingRequest{IsTyping: on}); err != nil {
		return err
	}
	if !out.json {
		out.okf("typing %s", map[bool]string{true: "on", false: "off"}[on])
	}
	return nil
}

func cmdWatch(ctx context.Context, c *client.Client, out *printer, prefixes []string) error {
	stream, err := c.Session.Watch(ctx, &api.WatchRequest{Prefixes: prefixes})
	if err != nil {
		return err
	}
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if out.json {
			if err := out.line(evt); err != nil {
				return err
			}
			continue
		}
		out.event(evt)
	}
}
