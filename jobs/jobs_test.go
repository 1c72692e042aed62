package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kuil09/youtube-subscriptions-backup/retry"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
)

// memJobStore is an in-memory storage.JobStore.
type memJobStore struct {
	mu    sync.Mutex
	jobs  []storage.Job
	saves int
}

func (m *memJobStore) Jobs(ctx context.Context) ([]storage.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Job(nil), m.jobs...), nil
}

func (m *memJobStore) SaveJobs(ctx context.Context, jobs []storage.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append([]storage.Job(nil), jobs...)
	m.saves++
	return nil
}

func muteDelays(t *testing.T) {
	t.Helper()
	orig := pauseFunc
	pauseFunc = func(ctx context.Context, d time.Duration) {}
	t.Cleanup(func() { pauseFunc = orig })
}

func fastOpts() Options {
	return Options{
		MaxAttempts: 5,
		Retry:       retry.Config{Retries: 0, BaseDelay: time.Microsecond},
	}
}

func TestEnqueue_PersistsPendingJob(t *testing.T) {
	store := &memJobStore{}
	q := NewQueue(store, fastOpts())

	job, err := q.Enqueue(context.Background(), "export", json.RawMessage(`{"format":"csv"}`))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if !strings.HasPrefix(job.ID, "export:") {
		t.Errorf("job ID = %q, want export: prefix", job.ID)
	}
	if job.Status != storage.JobPending {
		t.Errorf("job status = %q, want pending", job.Status)
	}

	stored, _ := store.Jobs(context.Background())
	if len(stored) != 1 || stored[0].ID != job.ID {
		t.Errorf("stored jobs = %+v, want the enqueued job persisted", stored)
	}
}

func TestEnqueue_UniqueIDs(t *testing.T) {
	q := NewQueue(&memJobStore{}, fastOpts(),
		WithClock(func() time.Time { return time.UnixMilli(1717245000123) }))

	a, _ := q.Enqueue(context.Background(), "export", nil)
	b, _ := q.Enqueue(context.Background(), "export", nil)
	if a.ID == b.ID {
		t.Errorf("two jobs in the same millisecond share ID %q", a.ID)
	}
}

func TestEnqueueAll_PersistsBatchInOneWrite(t *testing.T) {
	store := &memJobStore{}
	q := NewQueue(store, fastOpts())

	payloads := []json.RawMessage{
		json.RawMessage(`{"id":"a"}`),
		json.RawMessage(`{"id":"b"}`),
		json.RawMessage(`{"id":"c"}`),
	}
	created, err := q.EnqueueAll(context.Background(), "unsubscribe", payloads)
	if err != nil {
		t.Fatalf("EnqueueAll() error = %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d jobs, want 3", len(created))
	}
	seen := map[string]bool{}
	for i, job := range created {
		if job.Status != storage.JobPending {
			t.Errorf("job %d status = %q, want pending", i, job.Status)
		}
		if seen[job.ID] {
			t.Errorf("duplicate job ID %q", job.ID)
		}
		seen[job.ID] = true
		if string(job.Payload) != string(payloads[i]) {
			t.Errorf("job %d payload = %s, want %s", i, job.Payload, payloads[i])
		}
	}
	if store.saves != 1 {
		t.Errorf("store writes = %d, want a single batch write", store.saves)
	}

	stored, _ := store.Jobs(context.Background())
	if len(stored) != 3 || stored[0].ID != created[0].ID || stored[2].ID != created[2].ID {
		t.Errorf("stored jobs = %+v, want the batch in enqueue order", stored)
	}
}

func TestEnqueueAll_RejectsEmptyBatch(t *testing.T) {
	q := NewQueue(&memJobStore{}, fastOpts())

	if _, err := q.EnqueueAll(context.Background(), "unsubscribe", nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("EnqueueAll(empty) error = %v, want ErrInvalidInput", err)
	}
}

func TestRun_ProcessesFIFO(t *testing.T) {
	muteDelays(t)
	store := &memJobStore{}
	q := NewQueue(store, fastOpts())

	var seen []string
	q.Register("touch", func(ctx context.Context, payload json.RawMessage) error {
		var p struct {
			Name string `json:"name"`
		}
		json.Unmarshal(payload, &p)
		seen = append(seen, p.Name)
		return nil
	})

	for _, name := range []string{"first", "second", "third"} {
		q.Enqueue(context.Background(), "touch", json.RawMessage(`{"name":"`+name+`"}`))
	}

	sum, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Succeeded != 3 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want 3 successes", sum)
	}
	if len(seen) != 3 || seen[0] != "first" || seen[2] != "third" {
		t.Errorf("processing order = %v, want FIFO", seen)
	}

	stored, _ := store.Jobs(context.Background())
	for _, j := range stored {
		if j.Status != storage.JobDone {
			t.Errorf("job %s status = %q, want done", j.ID, j.Status)
		}
	}
}

func TestRun_NoProcessorFailsJob(t *testing.T) {
	muteDelays(t)
	store := &memJobStore{}
	q := NewQueue(store, fastOpts())
	q.Enqueue(context.Background(), "unknown", nil)

	sum, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Failed != 1 {
		t.Errorf("summary = %+v, want one failure", sum)
	}

	stored, _ := store.Jobs(context.Background())
	if stored[0].Status != storage.JobFailed {
		t.Errorf("job status = %q, want failed", stored[0].Status)
	}
	if stored[0].LastError != "No processor" {
		t.Errorf("LastError = %q, want \"No processor\"", stored[0].LastError)
	}
}

func TestRun_FailingJobStaysPendingUntilBudgetSpent(t *testing.T) {
	muteDelays(t)
	store := &memJobStore{}
	opts := fastOpts()
	opts.MaxAttempts = 3
	q := NewQueue(store, opts)

	q.Register("flaky", func(ctx context.Context, payload json.RawMessage) error {
		return errors.New("remote hiccup")
	})
	q.Enqueue(context.Background(), "flaky", nil)

	// First two passes leave the job pending with the attempt recorded.
	for pass := 1; pass <= 2; pass++ {
		sum, err := q.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() pass %d error = %v", pass, err)
		}
		if sum.Retried != 1 {
			t.Errorf("pass %d summary = %+v, want one retried", pass, sum)
		}
		stored, _ := store.Jobs(context.Background())
		if stored[0].Status != storage.JobPending || stored[0].Attempts != pass {
			t.Errorf("pass %d job = %+v, want pending with %d attempts", pass, stored[0], pass)
		}
		if stored[0].LastError == "" {
			t.Errorf("pass %d LastError empty, want failure recorded", pass)
		}
	}

	// Third pass exhausts the budget.
	sum, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() final pass error = %v", err)
	}
	if sum.Failed != 1 {
		t.Errorf("final summary = %+v, want one failure", sum)
	}
	stored, _ := store.Jobs(context.Background())
	if stored[0].Status != storage.JobFailed || stored[0].Attempts != 3 {
		t.Errorf("job = %+v, want failed after 3 attempts", stored[0])
	}
}

func TestRun_InRunRetriesBeforeCountingAttempt(t *testing.T) {
	muteDelays(t)
	store := &memJobStore{}
	opts := fastOpts()
	opts.Retry = retry.Config{Retries: 2, BaseDelay: time.Microsecond}
	q := NewQueue(store, opts)

	calls := 0
	q.Register("flaky", func(ctx context.Context, payload json.RawMessage) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	q.Enqueue(context.Background(), "flaky", nil)

	sum, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("processor ran %d times, want 3 (in-run retries)", calls)
	}
	if sum.Succeeded != 1 {
		t.Errorf("summary = %+v, want success", sum)
	}
	stored, _ := store.Jobs(context.Background())
	if stored[0].Attempts != 1 {
		t.Errorf("job attempts = %d, want 1 (retries within one attempt)", stored[0].Attempts)
	}
}

func TestRun_SkipsDoneJobs(t *testing.T) {
	muteDelays(t)
	store := &memJobStore{}
	store.SaveJobs(context.Background(), []storage.Job{
		{ID: "a", Type: "touch", Status: storage.JobDone},
		{ID: "b", Type: "touch", Status: storage.JobPending},
	})
	q := NewQueue(store, fastOpts())

	calls := 0
	q.Register("touch", func(ctx context.Context, payload json.RawMessage) error {
		calls++
		return nil
	})

	sum, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 1 || sum.Processed != 1 {
		t.Errorf("processed %d jobs (%d calls), want only the pending one", sum.Processed, calls)
	}
}

func TestClearCompleted_KeepsOnlyPending(t *testing.T) {
	store := &memJobStore{}
	store.SaveJobs(context.Background(), []storage.Job{
		{ID: "a", Status: storage.JobDone},
		{ID: "b", Status: storage.JobPending},
		{ID: "c", Status: storage.JobFailed},
	})
	q := NewQueue(store, fastOpts())

	removed, err := q.ClearCompleted(context.Background())
	if err != nil {
		t.Fatalf("ClearCompleted() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	stored, _ := store.Jobs(context.Background())
	if len(stored) != 1 || stored[0].ID != "b" {
		t.Errorf("remaining = %+v, want only pending job b", stored)
	}
}

func TestRun_CancelStopsBetweenJobs(t *testing.T) {
	muteDelays(t)
	store := &memJobStore{}
	q := NewQueue(store, fastOpts())
	ctx, cancel := context.WithCancel(context.Background())

	q.Register("touch", func(ctx context.Context, payload json.RawMessage) error {
		cancel()
		return nil
	})
	q.Enqueue(context.Background(), "touch", nil)
	q.Enqueue(context.Background(), "touch", nil)

	sum, err := q.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if sum.Succeeded != 1 {
		t.Errorf("summary = %+v, want first job completed", sum)
	}
}

func TestQueue_RoundTripsThroughJSONStore(t *testing.T) {
	muteDelays(t)
	store, err := storage.NewJSONStore(t.TempDir() + "/queue.json")
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	q := NewQueue(store, fastOpts())
	q.Register("touch", func(ctx context.Context, payload json.RawMessage) error {
		return nil
	})

	if _, err := q.Enqueue(context.Background(), "touch", nil); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := q.Enqueue(context.Background(), "touch", nil); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	sum, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Succeeded != 2 {
		t.Errorf("summary = %+v, want 2 successes", sum)
	}

	stored, err := store.Jobs(context.Background())
	if err != nil {
		t.Fatalf("Jobs() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored jobs = %d, want 2", len(stored))
	}
	for _, j := range stored {
		if j.Status != storage.JobDone {
			t.Errorf("job %s status = %q, want done", j.ID, j.Status)
		}
	}
}
