package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/andrewpaige1/problempad/models"
	"go.uber.org/zap"
)

const DefaultAutoSaveDelay = time.Second

var ErrStopped = errors.New("controller stopped")

// State is everything the page shows. Problems keeps arrival order.
type State struct {
	Problems []models.Problem
	Selected *models.Problem
	Code     string
	Count    int64
	Draft    Draft
	Language string
}

func (s State) clone() State {
	out := s
	out.Problems = append([]models.Problem(nil), s.Problems...)
	if s.Selected != nil {
		selected := *s.Selected
		out.Selected = &selected
	}
	return out
}

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func WithAutoSaveDelay(delay time.Duration) Option {
	return func(c *Controller) {
		if delay > 0 {
			c.delay = delay
		}
	}
}

func WithEditor(editor Editor, theme string) Option {
	return func(c *Controller) {
		c.editor = editor
		c.theme = theme
	}
}

func WithLanguage(language string) Option {
	return func(c *Controller) {
		if language != "" {
			c.state.Language = language
		}
	}
}

// WithFlushOnSwitch saves a pending edit immediately when the selection
// changes instead of dropping it.
func WithFlushOnSwitch(flush bool) Option {
	return func(c *Controller) { c.flushOnSwitch = flush }
}

// Controller owns the client state. All mutations, timer expiries and
// network results run one at a time on the goroutine executing Run.
type Controller struct {
	api           ProblemAPI
	log           *zap.Logger
	delay         time.Duration
	flushOnSwitch bool
	editor        Editor
	theme         string

	events chan func()
	done   chan struct{}

	state State
	saver *Debouncer
}

func NewController(api ProblemAPI, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		log:    zap.NewNop(),
		delay:  DefaultAutoSaveDelay,
		theme:  DefaultTheme,
		events: make(chan func(), 64),
		done:   make(chan struct{}),
		state:  State{Language: DefaultLanguage},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.saver = NewDebouncer(c.delay, func(fn func()) { c.post(fn) }, c.save)

	if c.editor != nil {
		if c.theme == "" {
			c.theme = DefaultTheme
		}
		c.editor.SetTheme(c.theme)
		c.editor.SetLanguage(c.state.Language)
		c.editor.OnChange(c.Edit)
	}
	return c
}

// Run processes events until ctx is done. A pending auto-save is dropped on
// return.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.saver.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-c.events:
			fn()
		}
	}
}

func (c *Controller) post(fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if !c.post(func() { reply <- c.state.clone() }) {
		return State{}, ErrStopped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-c.done:
		return State{}, ErrStopped
	}
}

// Load fetches the problem list and the count independently.
func (c *Controller) Load() {
	c.post(func() {
		go func() {
			problems, err := c.api.ListProblems(context.Background())
			c.post(func() {
				if err != nil {
					c.log.Error("failed to fetch problems", zap.Error(err))
					return
				}
				c.state.Problems = problems
			})
		}()
		go func() {
			count, err := c.api.CountProblems(context.Background())
			c.post(func() {
				if err != nil {
					c.log.Error("failed to fetch problem count", zap.Error(err))
					return
				}
				c.state.Count = count
			})
		}()
	})
}

// Select makes the problem with id current and seeds the buffer from its
// stored code. An unknown id clears the selection.
func (c *Controller) Select(id int64) {
	c.post(func() { c.selectProblem(id) })
}

// Edit replaces the code buffer and restarts the auto-save countdown. It is
// ignored while nothing is selected.
func (c *Controller) Edit(code string) {
	c.post(func() {
		if c.state.Selected == nil || code == c.state.Code {
			return
		}
		c.state.Code = code
		c.saver.Trigger()
	})
}

func (c *Controller) SetLanguage(language string) {
	c.post(func() {
		c.state.Language = language
		if c.editor != nil {
			c.editor.SetLanguage(language)
		}
	})
}

func (c *Controller) SetDraft(draft Draft) {
	c.post(func() { c.state.Draft = draft })
}

// SetDraftField updates one draft field by its JSON name.
func (c *Controller) SetDraftField(name, value string) error {
	var apply func(*Draft)
	switch name {
	case "title":
		apply = func(d *Draft) { d.Title = value }
	case "difficulty":
		apply = func(d *Draft) { d.Difficulty = value }
	case "code":
		apply = func(d *Draft) { d.Code = value }
	case "solved":
		solved, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("solved must be true or false: %w", err)
		}
		apply = func(d *Draft) { d.Solved = solved }
	default:
		return fmt.Errorf("unknown draft field %q", name)
	}
	c.post(func() { apply(&c.state.Draft) })
	return nil
}

// SubmitDraft creates a problem from the draft. On success the new problem is
// appended, the count goes up by one and the draft is cleared; on failure the
// draft is kept.
func (c *Controller) SubmitDraft() {
	c.post(func() {
		draft := c.state.Draft
		go func() {
			created, err := c.api.CreateProblem(context.Background(), draft)
			c.post(func() {
				if err != nil {
					c.log.Error("Error adding problem", zap.String("title", draft.Title), zap.Error(err))
					return
				}
				c.state.Problems = append(c.state.Problems, created)
				c.state.Count++
				c.state.Draft = Draft{}
				c.log.Info("Problem added", zap.Int64("id", created.ID))
			})
		}()
	})
}

// DeleteSelected deletes the current problem. On success the count is
// recomputed from the local list rather than fetched again.
func (c *Controller) DeleteSelected() {
	c.post(func() {
		if c.state.Selected == nil {
			c.log.Warn("delete requested with no problem selected")
			return
		}
		id := c.state.Selected.ID
		go func() {
			_, err := c.api.DeleteProblem(context.Background(), id)
			c.post(func() {
				if err != nil {
					c.log.Error("Error deleting problem", zap.Int64("id", id), zap.Error(err))
					return
				}
				remaining := c.state.Problems[:0:0]
				for _, p := range c.state.Problems {
					if p.ID != id {
						remaining = append(remaining, p)
					}
				}
				c.state.Problems = remaining
				c.state.Count = int64(len(remaining))

				switch {
				case len(remaining) == 0:
					c.clearSelection()
				case c.state.Selected == nil || c.state.Selected.ID != remaining[0].ID:
					c.selectProblem(remaining[0].ID)
				}
				c.log.Info("Problem deleted", zap.Int64("id", id))
			})
		}()
	})
}

// selectProblem switches to the problem with id, or to no problem when id is
// not in the list.
func (c *Controller) selectProblem(id int64) {
	i := c.indexOf(id)
	if i < 0 {
		c.clearSelection()
		return
	}
	selected := c.state.Problems[i]
	c.setSelection(&selected)
}

func (c *Controller) clearSelection() {
	c.setSelection(nil)
}

func (c *Controller) setSelection(selected *models.Problem) {
	if c.saver.Pending() {
		if c.flushOnSwitch {
			c.saver.Flush()
		} else {
			c.saver.Stop()
		}
	}

	c.state.Selected = selected
	c.state.Code = ""
	if selected != nil {
		c.state.Code = selected.CodeOrEmpty()
	}

	if c.editor != nil {
		c.editor.SetValue(c.state.Code)
	}
}

// save persists the buffer as it is when the countdown fires.
func (c *Controller) save() {
	if c.state.Selected == nil {
		return
	}
	id, code := c.state.Selected.ID, c.state.Code
	go func() {
		updated, err := c.api.UpdateCode(context.Background(), id, code)
		c.post(func() {
			if err != nil {
				c.log.Error("Error updating problem code", zap.Int64("id", id), zap.Error(err))
				return
			}
			if i := c.indexOf(updated.ID); i >= 0 {
				c.state.Problems[i] = updated
			}
			if c.state.Selected != nil && c.state.Selected.ID == updated.ID {
				selected := updated
				c.state.Selected = &selected
			}
		})
	}()
}

func (c *Controller) indexOf(id int64) int {
	for i, p := range c.state.Problems {
		if p.ID == id {
			return i
		}
	}
	return -1
}
