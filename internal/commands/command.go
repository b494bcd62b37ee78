package commands

import (
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeAdd       Type = "add"
	TypeDone      Type = "done"
	TypeShow      Type = "show"
	TypeWorkspace Type = "workspace"
	TypeExport    Type = "export"
	TypeImport    Type = "import"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs captures "/add <title> [priority:p] [due:YYYY-MM-DD] [tag:t]...".
type AddArgs struct {
	Title    string
	Priority string
	Due      *time.Time
	Tags     []string
}

type DoneArgs struct {
	Target string
}

type ShowArgs struct {
	Subject string
	Tag     string
}

// WorkspaceArgs captures "/workspace <switch|new> <name>".
type WorkspaceArgs struct {
	Action string
	Name   string
}

// ExportArgs captures "/export <json|csv> [path]".
type ExportArgs struct {
	Format string
	Path   string
}

// ImportArgs captures "/import <path>". Only JSON bundles import.
type ImportArgs struct {
	Path string
}

type Command struct {
	Type      Type
	Raw       string
	Add       *AddArgs
	Done      *DoneArgs
	Show      *ShowArgs
	Workspace *WorkspaceArgs
	Export    *ExportArgs
	Import    *ImportArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeWorkspace:
		return parseWorkspace(input, args)
	case TypeExport:
		return parseExport(input, args)
	case TypeImport:
		return parseImport(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}

	out := AddArgs{}
	var titleWords []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "priority:"):
			p := strings.ToLower(strings.TrimPrefix(lower, "priority:"))
			switch p {
			case "low", "medium", "high":
				out.Priority = p
			default:
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown priority: %s", p)}
			}
		case strings.HasPrefix(lower, "due:"):
			value := arg[len("due:"):]
			due, err := time.Parse("2006-01-02", value)
			if err != nil {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("bad due date: %s", value)}
			}
			out.Due = &due
		case strings.HasPrefix(lower, "tag:"):
			tag := strings.TrimSpace(arg[len("tag:"):])
			if tag != "" {
				out.Tags = append(out.Tags, tag)
			}
		default:
			titleWords = append(titleWords, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(titleWords, " "))
	if out.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires a task reference"}
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{Target: args[0]}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject"}
	}
	subject := strings.ToLower(args[0])
	switch subject {
	case "tasks", "today", "overdue", "forest", "stats":
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown show subject: %s", subject)}
	}
	tag := ""
	for _, arg := range args[1:] {
		if strings.HasPrefix(strings.ToLower(arg), "tag:") {
			tag = strings.TrimSpace(arg[len("tag:"):])
		}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject, Tag: tag}}, nil
}

func parseWorkspace(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "workspace requires an action and a name"}
	}
	action := strings.ToLower(args[0])
	switch action {
	case "switch", "new", "delete":
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown workspace action: %s", action)}
	}
	name := strings.TrimSpace(strings.Join(args[1:], " "))
	return Command{Type: TypeWorkspace, Raw: raw, Workspace: &WorkspaceArgs{Action: action, Name: name}}, nil
}

func parseExport(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "export requires a format"}
	}
	format := strings.ToLower(args[0])
	switch format {
	case "json", "csv":
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown export format: %s", format)}
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}
	return Command{Type: TypeExport, Raw: raw, Export: &ExportArgs{Format: format, Path: path}}, nil
}

func parseImport(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "import requires a file path"}
	}
	return Command{Type: TypeImport, Raw: raw, Import: &ImportArgs{Path: args[0]}}, nil
}
