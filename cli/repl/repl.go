package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andrewpaige1/problempad/client"
	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

const (
	prompt     = "problems> "
	editPrompt = "... "
	endOfEdit  = "."

	snapshotTimeout = 2 * time.Second
)

// LineReader is the subset of *readline.Instance the session needs.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// Session drives a controller from terminal commands.
type Session struct {
	ctrl   *client.Controller
	editor *LineEditor
	reader LineReader
	out    io.Writer
}

func New(ctrl *client.Controller, editor *LineEditor, reader LineReader, out io.Writer) *Session {
	return &Session{ctrl: ctrl, editor: editor, reader: reader, out: out}
}

// Run reads commands until exit, end of input or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.ctrl.Load()
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.reader.SetPrompt(prompt)
		line, err := s.reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			s.printLine("parse command failed: %v", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "exit" || tokens[0] == "quit" {
			s.printLine("bye")
			return nil
		}
		if err := s.handleCommand(ctx, tokens[0], tokens[1:]); err != nil {
			s.printLine("error: %v", err)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, name string, args []string) error {
	switch name {
	case "help":
		s.printHelp()
		return nil
	case "reload":
		s.ctrl.Load()
		return nil
	case "list":
		return s.handleList(ctx)
	case "count":
		state, err := s.snapshot(ctx)
		if err != nil {
			return err
		}
		s.printLine("%d problems", state.Count)
		return nil
	case "select":
		if len(args) != 1 {
			return fmt.Errorf("usage: select <id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		s.ctrl.Select(id)
		return nil
	case "show":
		return s.handleShow(ctx)
	case "edit", "append":
		return s.handleEdit(ctx, name == "append")
	case "clear":
		if err := s.requireSelection(ctx); err != nil {
			return err
		}
		s.editor.Clear()
		return nil
	case "draft":
		if len(args) == 0 {
			return s.handleShowDraft(ctx)
		}
		return s.applyDraft(args)
	case "add":
		if err := s.applyDraft(args); err != nil {
			return err
		}
		s.ctrl.SubmitDraft()
		return nil
	case "delete":
		if err := s.requireSelection(ctx); err != nil {
			return err
		}
		s.ctrl.DeleteSelected()
		return nil
	case "lang":
		if len(args) != 1 {
			language, _ := s.editor.Mode()
			s.printLine("language: %s", language)
			return nil
		}
		s.ctrl.SetLanguage(args[0])
		return nil
	default:
		return fmt.Errorf("unknown command: %s", name)
	}
}

func (s *Session) handleList(ctx context.Context) error {
	state, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if len(state.Problems) == 0 {
		s.printLine("no problems")
		return nil
	}
	for _, p := range state.Problems {
		marker := " "
		if state.Selected != nil && state.Selected.ID == p.ID {
			marker = "*"
		}
		solved := ""
		if p.Solved {
			solved = " solved"
		}
		s.printLine("%s %d. %s (%s)%s", marker, p.ID, p.Title, p.Difficulty, solved)
	}
	return nil
}

func (s *Session) handleShow(ctx context.Context) error {
	state, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if state.Selected == nil {
		s.printLine("no problem selected")
		return nil
	}
	p := state.Selected
	s.printLine("%d. %s (%s) solved=%t language=%s", p.ID, p.Title, p.Difficulty, p.Solved, state.Language)
	if state.Code == "" {
		s.printLine("<empty>")
		return nil
	}
	s.printLine("%s", state.Code)
	return nil
}

// handleEdit reads lines until a lone "." and feeds each one to the editor
// as a separate change.
func (s *Session) handleEdit(ctx context.Context, appendOnly bool) error {
	if err := s.requireSelection(ctx); err != nil {
		return err
	}
	s.printLine("enter code, finish with a single %q", endOfEdit)
	s.reader.SetPrompt(editPrompt)

	first := !appendOnly
	for {
		line, err := s.reader.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		if line == endOfEdit {
			return nil
		}
		if first {
			s.editor.Type(line)
			first = false
			continue
		}
		s.editor.AppendLine(line)
	}
}

func (s *Session) handleShowDraft(ctx context.Context) error {
	state, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	d := state.Draft
	s.printLine("title=%q difficulty=%q solved=%t code=%q", d.Title, d.Difficulty, d.Solved, d.Code)
	return nil
}

func (s *Session) applyDraft(args []string) error {
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid param: %s", arg)
		}
		if err := s.ctrl.SetDraftField(parts[0], parts[1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) requireSelection(ctx context.Context) error {
	state, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if state.Selected == nil {
		return fmt.Errorf("select a problem first")
	}
	return nil
}

func (s *Session) snapshot(ctx context.Context) (client.State, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()
	return s.ctrl.Snapshot(ctx)
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	s.printLine("  list | count | reload")
	s.printLine("  select <id> | show | delete")
	s.printLine("  edit | append | clear      edits are saved a moment after the last change")
	s.printLine("  draft [key=value ...]      keys: title difficulty solved code")
	s.printLine("  add [key=value ...]        create a problem from the draft")
	s.printLine("  lang [language]")
	s.printLine("  help | exit")
	s.printLine("example:")
	s.printLine("  add title=\"Two Sum\" difficulty=Easy")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
