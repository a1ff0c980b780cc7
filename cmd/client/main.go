package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pdxirc/internal/client"
	"github.com/vovakirdan/pdxirc/internal/log"
	"github.com/vovakirdan/pdxirc/internal/proto"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr     string
		user     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "pdxirc-client",
		Short:        "Line-oriented terminal client for a pdxirc server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.NewWithWriter(logLevel, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := client.Dial(ctx, addr, user, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			runErr := make(chan error, 1)
			go func() { runErr <- c.Run(ctx) }()
			go printEvents(cmd.OutOrStdout(), c.Events())

			if err := readCommands(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), c); err != nil {
				return err
			}
			cancel()
			if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "127.0.0.1:5000", "server address")
	flags.StringVar(&user, "user", "", "user name sent with each request")
	flags.StringVar(&logLevel, "log-level", "warn", "log level")
	return cmd
}

// command is one parsed input line.
type command struct {
	verb    string
	channel string
	arg     string
}

var errUsage = errors.New("usage: :LOGIN name | :JOIN chan | :LEAVE chan | :CHAT chan text | :LIST | :USERS chan | :QUIT")

func parseLine(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		return command{}, errUsage
	}

	verb, rest, _ := strings.Cut(line[1:], " ")
	verb = strings.ToUpper(verb)
	rest = strings.TrimSpace(rest)

	switch verb {
	case "LIST", "QUIT":
		return command{verb: verb}, nil
	case "LOGIN", "JOIN", "LEAVE", "USERS":
		if rest == "" || strings.ContainsAny(rest, " \t") {
			return command{}, errUsage
		}
		return command{verb: verb, channel: rest}, nil
	case "CHAT":
		channel, text, ok := strings.Cut(rest, " ")
		if !ok || channel == "" {
			return command{}, errUsage
		}
		return command{verb: verb, channel: channel, arg: text}, nil
	default:
		return command{}, errUsage
	}
}

func readCommands(ctx context.Context, in io.Reader, out io.Writer, c *client.Client) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		switch cmd.verb {
		case "QUIT":
			return nil
		case "LOGIN":
			err = c.Login(cmd.channel, "")
		case "JOIN":
			err = c.Join(cmd.channel)
		case "LEAVE":
			err = c.Leave(cmd.channel)
		case "CHAT":
			err = c.Chat(cmd.channel, cmd.arg)
		case "LIST":
			err = c.ListChannels()
		case "USERS":
			err = c.ListUsers(cmd.channel)
		}
		if errors.Is(err, client.ErrListInFlight) {
			fmt.Fprintln(out, "a listing is still in progress")
			continue
		}
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

func printEvents(out io.Writer, events <-chan client.Event) {
	for ev := range events {
		fmt.Fprintln(out, formatEvent(ev))
	}
}

func formatEvent(ev client.Event) string {
	switch ev.Kind {
	case client.EventChat:
		return fmt.Sprintf("[%s] <%s> %s", ev.Message.Channel, ev.Message.User, ev.Message.Text)
	case client.EventList:
		var b strings.Builder
		if ev.List.Kind == client.ListUsers {
			fmt.Fprintf(&b, "users in %s:", ev.List.Channel)
		} else {
			b.WriteString("channels:")
		}
		for _, item := range ev.List.Items {
			b.WriteString(" ")
			b.WriteString(item)
		}
		if len(ev.List.Items) == 0 {
			fmt.Fprintf(&b, " (none: %s)", ev.List.Response)
		}
		if !ev.List.Complete {
			b.WriteString(" (incomplete)")
		}
		return b.String()
	default:
		msg := ev.Message
		if msg.Response.Has(proto.RespSuccess) {
			return fmt.Sprintf("%s ok", msg.Type)
		}
		return fmt.Sprintf("%s failed: %s", msg.Type, msg.Response)
	}
}
