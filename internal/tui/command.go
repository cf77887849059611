package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// IntentKind says what a line typed into the composer asks for.
type IntentKind int

const (
	IntentSend IntentKind = iota
	IntentDelete
	IntentSetCounter
	IntentStepCounter
	IntentQuit
)

// Intent is a composer line resolved into one session operation.
type Intent struct {
	Kind      IntentKind
	Text      string
	ExpiresIn time.Duration
	MessageID string
	Value     int64
}

var errUsage = errors.New("commands: :expire <dur> <text>, :del <id>, :count <n>, :inc, :dec, :q")

// ParseInput turns a composer line into an intent. Lines starting with ':'
// are commands; "::" escapes a literal leading colon.
func ParseInput(line string) (Intent, error) {
	if strings.HasPrefix(line, "::") || !strings.HasPrefix(line, ":") {
		return Intent{Kind: IntentSend, Text: strings.TrimPrefix(line, ":")}, nil
	}

	cmd := ParseCommand(line[1:])
	switch cmd.Name {
	case "expire", "e":
		dur, text, ok := strings.Cut(cmd.Args, " ")
		if !ok {
			return Intent{}, errUsage
		}
		d, err := time.ParseDuration(dur)
		if err != nil || d <= 0 {
			return Intent{}, fmt.Errorf("invalid expiry %q", dur)
		}
		return Intent{Kind: IntentSend, Text: text, ExpiresIn: d}, nil
	case "del", "delete":
		if cmd.Args == "" {
			return Intent{}, errUsage
		}
		return Intent{Kind: IntentDelete, MessageID: cmd.Args}, nil
	case "count", "counter":
		v, err := strconv.ParseInt(cmd.Args, 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("invalid counter value %q", cmd.Args)
		}
		return Intent{Kind: IntentSetCounter, Value: v}, nil
	case "inc":
		return Intent{Kind: IntentStepCounter, Value: 1}, nil
	case "dec":
		return Intent{Kind: IntentStepCounter, Value: -1}, nil
	case "q", "quit":
		return Intent{Kind: IntentQuit}, nil
	default:
		return Intent{}, errUsage
	}
}
