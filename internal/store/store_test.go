package store_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"tasklist/internal/slot"
	"tasklist/internal/store"
	"tasklist/internal/task"
	"tasklist/internal/testutil"
)

// sequentialIDs returns an id generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func openStore(t *testing.T, s store.Slot) *store.Store {
	t.Helper()
	st, err := store.Open(s, store.WithIDFunc(sequentialIDs()), store.WithClock(tickingClock()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return st
}

func texts(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func TestOpen_EmptySlot(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st := openStore(t, fs)

	if st.Len() != 0 {
		t.Errorf("expected empty collection, got %d", st.Len())
	}
	if st.Recovered() != nil {
		t.Errorf("expected no recovery, got %v", st.Recovered())
	}
	// The settled load is persisted once.
	if fs.Writes(store.DefaultKey) != 1 {
		t.Errorf("expected 1 write after open, got %d", fs.Writes(store.DefaultKey))
	}
	if v, _ := fs.Get(store.DefaultKey); v != `{"version":1,"tasks":[]}` {
		t.Errorf("unexpected payload %q", v)
	}
}

func TestScenario(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st := openStore(t, fs)

	milk, err := st.Add("Buy milk")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := st.Tasks(); len(got) != 1 || got[0].Text != "Buy milk" || got[0].Completed {
		t.Fatalf("after first add: %+v", got)
	}

	dog, err := st.Add("Walk dog")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := texts(st.Tasks()); !reflect.DeepEqual(got, []string{"Walk dog", "Buy milk"}) {
		t.Fatalf("expected newest first, got %v", got)
	}

	if err := st.Toggle(milk.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got := st.Tasks()
	if !got[1].Completed || got[0].Completed {
		t.Fatalf("expected only Buy milk completed, got %+v", got)
	}

	if err := st.Edit(dog.ID, "Walk the dog"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := texts(st.Tasks()); !reflect.DeepEqual(got, []string{"Walk the dog", "Buy milk"}) {
		t.Fatalf("expected edit in place, got %v", got)
	}

	if err := st.Delete(milk.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got = st.Tasks()
	if len(got) != 1 || got[0].Text != "Walk the dog" || got[0].Completed {
		t.Fatalf("expected [Walk the dog], got %+v", got)
	}

	// Every step was persisted: the slot reloads to the same state.
	reloaded, err := store.ReadCollection(fs, store.DefaultKey)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(reloaded, got) {
		t.Errorf("slot out of sync:\nwant %+v\ngot  %+v", got, reloaded)
	}
}

func TestAdd_LengthAndFront(t *testing.T) {
	st := openStore(t, testutil.NewFakeSlot())

	for i := 1; i <= 5; i++ {
		text := fmt.Sprintf("task %d", i)
		added, err := st.Add(text)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		tasks := st.Tasks()
		if len(tasks) != i {
			t.Fatalf("expected %d tasks, got %d", i, len(tasks))
		}
		if tasks[0] != added || tasks[0].Text != text {
			t.Errorf("expected %q at front, got %+v", text, tasks[0])
		}
		if added.Completed {
			t.Error("new task should not be completed")
		}
	}
}

func TestAdd_AssignsCreatedAt(t *testing.T) {
	now := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)
	st, err := store.Open(testutil.NewFakeSlot(), store.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	added, err := st.Add("x")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.CreatedAt != now.UnixMilli() {
		t.Errorf("expected createdAt %d, got %d", now.UnixMilli(), added.CreatedAt)
	}
	if !added.Created().Equal(now) {
		t.Errorf("expected Created() %v, got %v", now, added.Created())
	}
}

func TestAdd_DefaultIDsAreUnique(t *testing.T) {
	st, err := store.Open(testutil.NewFakeSlot())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		added, err := st.Add("x")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if added.ID == "" || seen[added.ID] {
			t.Fatalf("duplicate or empty id %q", added.ID)
		}
		seen[added.ID] = true
	}
}

func TestAdd_RedrawsCollidingID(t *testing.T) {
	ids := []string{"same", "same", "", "other"}
	next := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	st, err := store.Open(testutil.NewFakeSlot(), store.WithIDFunc(next))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first, _ := st.Add("a")
	second, _ := st.Add("b")
	if first.ID != "same" || second.ID != "other" {
		t.Errorf("expected ids same/other, got %s/%s", first.ID, second.ID)
	}
}

func TestToggle_TwiceRestores(t *testing.T) {
	st := openStore(t, testutil.NewFakeSlot())
	a, _ := st.Add("a")
	st.Add("b")
	before := st.Tasks()

	if err := st.Toggle(a.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got, _ := st.Get(a.ID); !got.Completed {
		t.Error("expected completed after one toggle")
	}
	if err := st.Toggle(a.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if after := st.Tasks(); !reflect.DeepEqual(after, before) {
		t.Errorf("expected %+v after two toggles, got %+v", before, after)
	}
}

func TestEdit_OnlyTextChanges(t *testing.T) {
	st := openStore(t, testutil.NewFakeSlot())
	a, _ := st.Add("a")
	st.Add("b")
	st.Toggle(a.ID)
	before, _ := st.Get(a.ID)

	if err := st.Edit(a.ID, "a, edited"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	after, _ := st.Get(a.ID)
	want := before
	want.Text = "a, edited"
	if after != want {
		t.Errorf("expected %+v, got %+v", want, after)
	}
	if st.Tasks()[1].ID != a.ID {
		t.Error("edit moved the task")
	}
}

func TestDelete_RemovesExactlyOne(t *testing.T) {
	st := openStore(t, testutil.NewFakeSlot())
	st.Add("a")
	b, _ := st.Add("b")
	st.Add("c")

	if err := st.Delete(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := texts(st.Tasks()); !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Errorf("expected [c a], got %v", got)
	}
}

func TestMisses_AreNoOps(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st := openStore(t, fs)
	st.Add("a")
	st.Add("b")
	before := st.Tasks()
	writes := fs.Writes(store.DefaultKey)

	if err := st.Toggle("missing"); err != nil {
		t.Errorf("toggle miss: %v", err)
	}
	if err := st.Edit("missing", "x"); err != nil {
		t.Errorf("edit miss: %v", err)
	}
	if err := st.Delete("missing"); err != nil {
		t.Errorf("delete miss: %v", err)
	}

	if after := st.Tasks(); !reflect.DeepEqual(after, before) {
		t.Errorf("misses changed the collection: %+v", after)
	}
	if fs.Writes(store.DefaultKey) != writes {
		t.Error("misses should not write")
	}
}

func TestEveryMutationPersists(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st := openStore(t, fs)

	a, _ := st.Add("a")
	st.Toggle(a.ID)
	st.Edit(a.ID, "b")
	st.Delete(a.ID)

	// open + four mutations
	if got := fs.Writes(store.DefaultKey); got != 5 {
		t.Errorf("expected 5 writes, got %d", got)
	}
}

func TestRoundTrip(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st := openStore(t, fs)
	for _, s := range []string{"one", "two", "three"} {
		st.Add(s)
	}
	tasks := st.Tasks()
	st.Toggle(tasks[1].ID)
	want := st.Tasks()

	again, err := store.Open(fs)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := again.Tasks(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestOpen_LegacyPayloadUpgraded(t *testing.T) {
	fs := testutil.NewFakeSlot()
	fs.Set("todos", `[{"id":"1712345678901","text":"Buy milk","completed":false,"createdAt":1712345678901}]`)

	st := openStore(t, fs)
	if st.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", st.Len())
	}
	v, _ := fs.Get("todos")
	if !strings.HasPrefix(v, `{"version":1,`) {
		t.Errorf("expected payload rewritten in current format, got %s", v)
	}
}

func TestOpen_CorruptRecovers(t *testing.T) {
	fs := testutil.NewFakeSlot()
	fs.Set("todos", `{not json`)

	var logBuf bytes.Buffer
	logger := log.New(&logBuf)
	st, err := store.Open(fs, store.WithLogger(logger))
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("expected empty collection, got %d tasks", st.Len())
	}

	var corrupt *store.CorruptError
	if !errors.As(st.Recovered(), &corrupt) {
		t.Fatalf("expected CorruptError, got %v", st.Recovered())
	}
	if !errors.Is(st.Recovered(), store.ErrCorrupt) {
		t.Error("expected Recovered to match ErrCorrupt")
	}
	if corrupt.Raw != `{not json` {
		t.Errorf("expected raw payload kept, got %q", corrupt.Raw)
	}

	if backup, ok := fs.Get("todos.corrupt"); !ok || backup != `{not json` {
		t.Errorf("expected backup of corrupt payload, got %q (%v)", backup, ok)
	}
	if v, _ := fs.Get("todos"); v != `{"version":1,"tasks":[]}` {
		t.Errorf("expected empty collection persisted, got %q", v)
	}
	if !strings.Contains(logBuf.String(), "unreadable") {
		t.Errorf("expected a warning in the log, got %q", logBuf.String())
	}
}

func TestOpen_CorruptBackupFailureStillRecovers(t *testing.T) {
	fs := testutil.NewFakeSlot()
	fs.Set("todos", `[{"id":1}]`)
	fs.WriteErrKeys["todos.corrupt"] = testutil.ErrQuotaExceeded

	st, err := store.Open(fs)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if st.Len() != 0 || st.Recovered() == nil {
		t.Errorf("expected recovered empty store, got %d tasks, recovered=%v", st.Len(), st.Recovered())
	}
}

func TestReadCollection_Results(t *testing.T) {
	fs := testutil.NewFakeSlot()

	tasks, err := store.ReadCollection(fs, "todos")
	if err != nil || len(tasks) != 0 {
		t.Errorf("absent: expected empty Ok, got %v %v", tasks, err)
	}

	fs.Set("todos", "garbage")
	if _, err := store.ReadCollection(fs, "todos"); !errors.Is(err, store.ErrCorrupt) {
		t.Errorf("garbage: expected ErrCorrupt, got %v", err)
	}

	fs.Set("todos", `{"version":9,"tasks":[]}`)
	if _, err := store.ReadCollection(fs, "todos"); !errors.Is(err, store.ErrUnsupportedVersion) {
		t.Errorf("newer version: expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestOpen_ReadErrorIsFatal(t *testing.T) {
	fs := testutil.NewFakeSlot()
	fs.Set("todos", `{"version":1,"tasks":[]}`)
	fs.ReadErr = errors.New("permission denied")

	if _, err := store.Open(fs); err == nil {
		t.Fatal("expected error")
	}
	if fs.Writes("todos") != 0 {
		t.Error("nothing should be written when the slot cannot be read")
	}
}

func TestOpen_NewerVersionIsFatal(t *testing.T) {
	fs := testutil.NewFakeSlot()
	fs.Set("todos", `{"version":2,"tasks":[]}`)

	_, err := store.Open(fs)
	if !errors.Is(err, store.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if v, _ := fs.Get("todos"); v != `{"version":2,"tasks":[]}` {
		t.Error("newer payload must not be overwritten")
	}
}

func TestPersistFailure_ReportedAndRecoverable(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st := openStore(t, fs)

	fs.WriteErr = testutil.ErrQuotaExceeded
	added, err := st.Add("kept in memory")
	if !errors.Is(err, store.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if !errors.Is(err, testutil.ErrQuotaExceeded) {
		t.Errorf("expected underlying error preserved, got %v", err)
	}
	var pe *store.PersistError
	if !errors.As(err, &pe) || pe.Key != "todos" {
		t.Errorf("expected PersistError for key todos, got %v", err)
	}
	if _, ok := st.Get(added.ID); !ok {
		t.Error("in-memory change should be kept")
	}

	fs.WriteErr = nil
	if err := st.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}
	reloaded, _ := store.ReadCollection(fs, "todos")
	if len(reloaded) != 1 || reloaded[0].ID != added.ID {
		t.Errorf("expected retry to write full collection, got %+v", reloaded)
	}
}

func TestOpen_PersistFailureReturnsUsableStore(t *testing.T) {
	fs := testutil.NewFakeSlot()
	fs.WriteErr = testutil.ErrQuotaExceeded

	st, err := store.Open(fs)
	if !errors.Is(err, store.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if st == nil {
		t.Fatal("expected a usable store")
	}
	if st.Len() != 0 {
		t.Errorf("expected empty store, got %d", st.Len())
	}
}

func TestWithKey(t *testing.T) {
	fs := testutil.NewFakeSlot()
	st, err := store.Open(fs, store.WithKey("work"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	st.Add("x")
	if st.Key() != "work" {
		t.Errorf("expected key work, got %s", st.Key())
	}
	if _, ok := fs.Get("work"); !ok {
		t.Error("expected payload under key work")
	}
	if _, ok := fs.Get("todos"); ok {
		t.Error("default key should be untouched")
	}
}

func TestFileSlotIntegration(t *testing.T) {
	fileSlot := slot.NewFile(t.TempDir())
	st := openStore(t, fileSlot)
	st.Add("Buy milk")
	st.Add("Walk dog")

	again, err := store.Open(fileSlot)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := texts(again.Tasks()); !reflect.DeepEqual(got, []string{"Walk dog", "Buy milk"}) {
		t.Errorf("unexpected tasks after reopen: %v", got)
	}
}

func TestCounters(t *testing.T) {
	st := openStore(t, testutil.NewFakeSlot())
	a, _ := st.Add("a")
	st.Add("b")
	st.Toggle(a.ID)
	if st.Len() != 2 || st.Completed() != 1 {
		t.Errorf("expected 2 tasks / 1 completed, got %d / %d", st.Len(), st.Completed())
	}
}
