package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andrewpaige1/problempad/models"
	"github.com/stretchr/testify/require"
)

const testDelay = 40 * time.Millisecond

type update struct {
	ID   int64
	Code string
}

type fakeAPI struct {
	mu       sync.Mutex
	problems []models.Problem
	nextID   int64
	updates  []update
	fail     map[string]error
}

func newFakeAPI(problems ...models.Problem) *fakeAPI {
	f := &fakeAPI{fail: map[string]error{}, nextID: 1}
	for _, p := range problems {
		f.problems = append(f.problems, p)
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

func (f *fakeAPI) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeAPI) recordedUpdates() []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]update(nil), f.updates...)
}

func (f *fakeAPI) ListProblems(context.Context) ([]models.Problem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["list"]; err != nil {
		return nil, err
	}
	return append([]models.Problem{}, f.problems...), nil
}

func (f *fakeAPI) CountProblems(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["count"]; err != nil {
		return 0, err
	}
	return int64(len(f.problems)), nil
}

func (f *fakeAPI) CreateProblem(_ context.Context, draft Draft) (models.Problem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["create"]; err != nil {
		return models.Problem{}, err
	}
	p := models.Problem{ID: f.nextID, Title: draft.Title, Difficulty: draft.Difficulty, Solved: draft.Solved}
	if draft.Code != "" {
		code := draft.Code
		p.Code = &code
	}
	f.nextID++
	f.problems = append(f.problems, p)
	return p, nil
}

func (f *fakeAPI) UpdateCode(_ context.Context, id int64, code string) (models.Problem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update{ID: id, Code: code})
	if err := f.fail["update"]; err != nil {
		return models.Problem{}, err
	}
	for i := range f.problems {
		if f.problems[i].ID == id {
			c := code
			f.problems[i].Code = &c
			return f.problems[i], nil
		}
	}
	return models.Problem{}, &StatusError{StatusCode: 500, Message: "Failed to update problem"}
}

func (f *fakeAPI) DeleteProblem(_ context.Context, id int64) (models.Problem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["delete"]; err != nil {
		return models.Problem{}, err
	}
	for i, p := range f.problems {
		if p.ID == id {
			f.problems = append(f.problems[:i], f.problems[i+1:]...)
			return p, nil
		}
	}
	return models.Problem{}, &StatusError{StatusCode: 404, Message: "Problem not found"}
}

func strPtr(s string) *string { return &s }

func seedProblems() []models.Problem {
	return []models.Problem{
		{ID: 1, Title: "Two Sum", Difficulty: "Easy", Code: strPtr("x")},
		{ID: 2, Title: "LRU Cache", Difficulty: "Medium"},
		{ID: 3, Title: "Median of Two Sorted Arrays", Difficulty: "Hard", Solved: true, Code: strPtr("y")},
	}
}

func startController(t *testing.T, api ProblemAPI, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithAutoSaveDelay(testDelay)}, opts...)
	c := NewController(api, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)
	return c
}

func snapshot(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := c.Snapshot(ctx)
	require.NoError(t, err)
	return s
}

func waitFor(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	var last State
	require.Eventually(t, func() bool {
		last = snapshot(t, c)
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func loaded(t *testing.T, c *Controller, n int) State {
	t.Helper()
	c.Load()
	return waitFor(t, c, func(s State) bool { return len(s.Problems) == n && s.Count == int64(n) })
}

func TestLoadPopulatesListAndCount(t *testing.T) {
	c := startController(t, newFakeAPI(seedProblems()...))

	s := snapshot(t, c)
	require.Empty(t, s.Problems)
	require.Zero(t, s.Count)
	require.Nil(t, s.Selected)
	require.Equal(t, DefaultLanguage, s.Language)

	s = loaded(t, c, 3)
	require.Equal(t, []int64{1, 2, 3}, []int64{s.Problems[0].ID, s.Problems[1].ID, s.Problems[2].ID})
}

func TestLoadFailuresKeepDefaults(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	api.failOn("list", errors.New("connection refused"))
	c := startController(t, api)

	c.Load()
	s := waitFor(t, c, func(s State) bool { return s.Count == 3 })
	require.Empty(t, s.Problems)
}

func TestSelectSeedsBuffer(t *testing.T) {
	c := startController(t, newFakeAPI(seedProblems()...))
	loaded(t, c, 3)

	c.Select(1)
	s := snapshot(t, c)
	require.NotNil(t, s.Selected)
	require.Equal(t, int64(1), s.Selected.ID)
	require.Equal(t, "x", s.Code)

	c.Select(2)
	s = snapshot(t, c)
	require.Equal(t, int64(2), s.Selected.ID)
	require.Equal(t, "", s.Code)

	c.Select(99)
	s = snapshot(t, c)
	require.Nil(t, s.Selected)
	require.Equal(t, "", s.Code)
}

func TestEditWithoutSelectionIsIgnored(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)

	c.Edit("orphan")
	time.Sleep(3 * testDelay)
	require.Equal(t, "", snapshot(t, c).Code)
	require.Empty(t, api.recordedUpdates())
}

func TestSelectionAloneDoesNotSave(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)

	c.Select(1)
	c.Select(3)
	time.Sleep(3 * testDelay)
	require.Empty(t, api.recordedUpdates())
}

func TestRapidEditsCoalesceIntoOneSave(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)
	c.Select(1)

	for _, code := range []string{"a", "ab", "abc"} {
		c.Edit(code)
		time.Sleep(testDelay / 4)
	}

	require.Eventually(t, func() bool { return len(api.recordedUpdates()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDelay)
	require.Equal(t, []update{{ID: 1, Code: "abc"}}, api.recordedUpdates())

	s := waitFor(t, c, func(s State) bool { return s.Problems[0].CodeOrEmpty() == "abc" })
	require.Equal(t, "abc", s.Code)
	require.Equal(t, "abc", s.Selected.CodeOrEmpty())
}

func TestSpacedEditsSaveTwice(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)
	c.Select(2)

	c.Edit("first")
	require.Eventually(t, func() bool { return len(api.recordedUpdates()) == 1 }, time.Second, 5*time.Millisecond)
	c.Edit("second")
	require.Eventually(t, func() bool { return len(api.recordedUpdates()) == 2 }, time.Second, 5*time.Millisecond)

	require.Equal(t, []update{{ID: 2, Code: "first"}, {ID: 2, Code: "second"}}, api.recordedUpdates())
}

func TestEditEqualToBufferDoesNotSave(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)
	c.Select(1)

	c.Edit("x")
	time.Sleep(3 * testDelay)
	require.Empty(t, api.recordedUpdates())
}

func TestSwitchingSelectionDropsPendingEdit(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)
	c.Select(1)

	c.Edit("unsaved")
	c.Select(3)
	time.Sleep(3 * testDelay)

	require.Empty(t, api.recordedUpdates())
	s := snapshot(t, c)
	require.Equal(t, "y", s.Code)
	require.Equal(t, "x", s.Problems[0].CodeOrEmpty())
}

func TestSwitchingSelectionFlushesWhenConfigured(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api, WithFlushOnSwitch(true))
	loaded(t, c, 3)
	c.Select(1)

	c.Edit("kept")
	c.Select(3)

	require.Eventually(t, func() bool { return len(api.recordedUpdates()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, update{ID: 1, Code: "kept"}, api.recordedUpdates()[0])

	s := waitFor(t, c, func(s State) bool { return s.Problems[0].CodeOrEmpty() == "kept" })
	require.Equal(t, int64(3), s.Selected.ID)
	require.Equal(t, "y", s.Code)
}

func TestSaveFailureKeepsBuffer(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	api.failOn("update", errors.New("boom"))
	c := startController(t, api)
	loaded(t, c, 3)
	c.Select(1)

	c.Edit("draft work")
	require.Eventually(t, func() bool { return len(api.recordedUpdates()) == 1 }, time.Second, 5*time.Millisecond)

	s := snapshot(t, c)
	require.Equal(t, "draft work", s.Code)
	require.Equal(t, "x", s.Problems[0].CodeOrEmpty())
}

func TestSubmitDraftAppendsProblem(t *testing.T) {
	c := startController(t, newFakeAPI(seedProblems()...))
	loaded(t, c, 3)

	c.SetDraft(Draft{Title: "Valid Parentheses", Difficulty: "Easy"})
	require.NoError(t, c.SetDraftField("solved", "true"))
	c.SubmitDraft()

	s := waitFor(t, c, func(s State) bool { return len(s.Problems) == 4 })
	require.Equal(t, int64(4), s.Count)
	require.Equal(t, Draft{}, s.Draft)

	created := s.Problems[3]
	require.Equal(t, int64(4), created.ID)
	require.Equal(t, "Valid Parentheses", created.Title)
	require.True(t, created.Solved)
	require.Nil(t, s.Selected)
}

func TestSubmitDraftFailureKeepsDraft(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	api.failOn("create", &StatusError{StatusCode: 400, Message: "Title and difficulty are required."})
	c := startController(t, api)
	loaded(t, c, 3)

	require.NoError(t, c.SetDraftField("title", "Only a title"))
	c.SubmitDraft()
	time.Sleep(3 * testDelay)

	s := snapshot(t, c)
	require.Len(t, s.Problems, 3)
	require.Equal(t, int64(3), s.Count)
	require.Equal(t, "Only a title", s.Draft.Title)
}

func TestSetDraftFieldRejectsUnknownInput(t *testing.T) {
	c := startController(t, newFakeAPI())
	require.Error(t, c.SetDraftField("author", "someone"))
	require.Error(t, c.SetDraftField("solved", "maybe"))
}

func TestDeleteSelectsFirstRemaining(t *testing.T) {
	c := startController(t, newFakeAPI(seedProblems()...))
	loaded(t, c, 3)
	c.Select(2)

	c.DeleteSelected()
	s := waitFor(t, c, func(s State) bool { return len(s.Problems) == 2 })
	require.Equal(t, int64(2), s.Count)
	require.Equal(t, int64(1), s.Selected.ID)
	require.Equal(t, "x", s.Code)

	c.DeleteSelected()
	s = waitFor(t, c, func(s State) bool { return len(s.Problems) == 1 })
	require.Equal(t, int64(3), s.Selected.ID)
	require.Equal(t, "y", s.Code)

	c.DeleteSelected()
	s = waitFor(t, c, func(s State) bool { return len(s.Problems) == 0 })
	require.Zero(t, s.Count)
	require.Nil(t, s.Selected)
	require.Equal(t, "", s.Code)
}

func TestDeleteFailureLeavesStateAlone(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	api.failOn("delete", errors.New("boom"))
	c := startController(t, api)
	loaded(t, c, 3)
	c.Select(2)

	c.DeleteSelected()
	time.Sleep(3 * testDelay)
	s := snapshot(t, c)
	require.Len(t, s.Problems, 3)
	require.Equal(t, int64(2), s.Selected.ID)
}

func TestDeleteWithoutSelectionIsIgnored(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	c := startController(t, api)
	loaded(t, c, 3)

	c.DeleteSelected()
	time.Sleep(3 * testDelay)
	require.Len(t, snapshot(t, c).Problems, 3)
}

func TestSnapshotAfterStop(t *testing.T) {
	c := NewController(newFakeAPI())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	_, err := c.Snapshot(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}

type recordingEditor struct {
	mu       sync.Mutex
	value    string
	language string
	theme    string
	onChange func(string)
}

func (e *recordingEditor) SetValue(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = text
}

func (e *recordingEditor) SetLanguage(language string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.language = language
}

func (e *recordingEditor) SetTheme(theme string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.theme = theme
}

func (e *recordingEditor) OnChange(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

func (e *recordingEditor) get() (value, language, theme string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.language, e.theme
}

func (e *recordingEditor) typeText(text string) {
	e.mu.Lock()
	fn := e.onChange
	e.value = text
	e.mu.Unlock()
	fn(text)
}

func TestEditorBinding(t *testing.T) {
	api := newFakeAPI(seedProblems()...)
	editor := &recordingEditor{}
	c := startController(t, api, WithEditor(editor, ""), WithLanguage("python"))

	_, language, theme := editor.get()
	require.Equal(t, "python", language)
	require.Equal(t, DefaultTheme, theme)

	loaded(t, c, 3)
	c.Select(3)
	waitFor(t, c, func(s State) bool { return s.Selected != nil })
	value, _, _ := editor.get()
	require.Equal(t, "y", value)

	editor.typeText("y = 1")
	require.Eventually(t, func() bool { return len(api.recordedUpdates()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, update{ID: 3, Code: "y = 1"}, api.recordedUpdates()[0])

	c.SetLanguage("go")
	s := waitFor(t, c, func(s State) bool { return s.Language == "go" })
	require.Equal(t, "go", s.Language)
	_, language, _ = editor.get()
	require.Equal(t, "go", language)
}

func TestDeletingLastProblemClearsSelectionAndEditor(t *testing.T) {
	api := newFakeAPI(models.Problem{ID: 7, Title: "Two Sum", Difficulty: "Easy", Code: strPtr("x")})
	editor := &recordingEditor{}
	c := startController(t, api, WithEditor(editor, ""), WithAutoSaveDelay(200*time.Millisecond))
	loaded(t, c, 1)

	c.Select(7)
	c.Edit("pending")
	c.DeleteSelected()

	s := waitFor(t, c, func(s State) bool { return len(s.Problems) == 0 })
	require.Nil(t, s.Selected)
	require.Equal(t, "", s.Code)
	require.Zero(t, s.Count)

	value, _, _ := editor.get()
	require.Equal(t, "", value)

	time.Sleep(300 * time.Millisecond)
	require.Empty(t, api.recordedUpdates())
}
