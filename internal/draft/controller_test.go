package draft

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	last    Invoice
	id      string
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeSubmitter) CreateInvoice(ctx context.Context, inv Invoice) (Created, error) {
	f.mu.Lock()
	f.calls++
	f.last = inv
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return Created{}, f.err
	}
	return Created{ID: f.id}, nil
}

func (f *fakeSubmitter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recorder struct {
	mu        sync.Mutex
	successes []string
	failures  []string
	paths     []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Failure(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func snapshotJSON(t *testing.T, d *Draft) []byte {
	t.Helper()
	b, err := json.Marshal(d.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return b
}

func TestController_ValidationFailureMakesNoCall(t *testing.T) {
	d := New(fixedNow)
	sub := &fakeSubmitter{id: "inv-1"}
	rec := &recorder{}
	c := NewController(d, sub, rec, rec)

	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.State != StateIdle {
		t.Errorf("state = %s, want idle", res.State)
	}
	if sub.Calls() != 0 {
		t.Errorf("submitter called %d times, want 0", sub.Calls())
	}
	if res.Errors["items"] != "add at least one item" {
		t.Errorf("errors = %v, want items error", res.Errors)
	}
	if res.Errors["company_id"] == "" {
		t.Errorf("errors = %v, want company_id error", res.Errors)
	}
	if len(c.Errors()) != len(res.Errors) {
		t.Errorf("controller errors not kept: %v", c.Errors())
	}
	if len(rec.failures)+len(rec.successes) != 0 {
		t.Error("validation failure must not notify")
	}
	if c.Draft() != d || !c.CanSubmit() {
		t.Error("draft should stay editable after validation failure")
	}
}

func TestController_ErrorsPointAtEditedRows(t *testing.T) {
	d := FromInvoice(validInvoice())
	d.Items = NewItemCollection(NewLineItem(), item("Widget", "1", "0", "23"))
	sub := &fakeSubmitter{id: "inv-1"}
	rec := &recorder{}
	c := NewController(d, sub, rec, rec)

	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sub.Calls() != 0 {
		t.Errorf("submitter called %d times, want 0", sub.Calls())
	}
	if got := res.Errors["items[1].net_price"]; got != "net price must be greater than 0" {
		t.Errorf("items[1].net_price = %q (all: %v)", got, res.Errors)
	}
	if _, ok := res.Errors["items[0].net_price"]; ok {
		t.Errorf("error reported on the blank row: %v", res.Errors)
	}
	if got := c.Errors()["items[1].net_price"]; got == "" {
		t.Errorf("controller errors = %v, want items[1].net_price", c.Errors())
	}
}

func TestController_Success(t *testing.T) {
	d := FromInvoice(validInvoice())
	d.Items.Add()
	sub := &fakeSubmitter{id: "inv-42"}
	rec := &recorder{}

	var transitions []string
	c := NewController(d, sub, rec, rec, WithTransitionHook(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.State != StateSucceeded || res.ID != "inv-42" {
		t.Fatalf("result = %+v", res)
	}
	if len(sub.last.Items) != 1 {
		t.Errorf("payload carried %d items, want blank row filtered", len(sub.last.Items))
	}
	if len(rec.successes) != 1 || rec.successes[0] != MsgSubmitted {
		t.Errorf("successes = %v", rec.successes)
	}
	if len(rec.paths) != 1 || rec.paths[0] != "/invoices/inv-42" {
		t.Errorf("navigation = %v", rec.paths)
	}
	if c.Draft() != nil {
		t.Error("draft should be released after success")
	}

	want := []string{"idle->validating", "validating->submitting", "submitting->succeeded"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Submit() error = %v, want ErrAlreadySubmitted", err)
	}
	if sub.Calls() != 1 {
		t.Errorf("submitter called %d times, want 1", sub.Calls())
	}
}

func TestController_DoubleClickWhileSubmitting(t *testing.T) {
	d := FromInvoice(validInvoice())
	sub := &fakeSubmitter{
		id:      "inv-7",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	rec := &recorder{}
	c := NewController(d, sub, rec, rec)

	done := make(chan Result, 1)
	go func() {
		res, _ := c.Submit(context.Background())
		done <- res
	}()

	select {
	case <-sub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("submission never reached the transport")
	}

	if c.CanSubmit() {
		t.Error("CanSubmit() = true while submitting")
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInProgress) {
		t.Errorf("second Submit() error = %v, want ErrSubmitInProgress", err)
	}

	close(sub.release)
	res := <-done

	if res.State != StateSucceeded {
		t.Errorf("state = %s, want succeeded", res.State)
	}
	if sub.Calls() != 1 {
		t.Errorf("submitter called %d times, want 1", sub.Calls())
	}
	if len(rec.successes) != 1 || len(rec.paths) != 1 {
		t.Errorf("successes = %v, paths = %v, want exactly one each", rec.successes, rec.paths)
	}
}

func TestController_FailurePreservesDraft(t *testing.T) {
	tests := []struct {
		name    string
		sub     *fakeSubmitter
		wantMsg string
	}{
		{
			name:    "transport error",
			sub:     &fakeSubmitter{err: errors.New("connection refused")},
			wantMsg: MsgSubmitFailed,
		},
		{
			name:    "rejection with detail",
			sub:     &fakeSubmitter{err: &RejectionError{StatusCode: 403, Detail: "no access to company"}},
			wantMsg: "no access to company",
		},
		{
			name:    "rejection without detail",
			sub:     &fakeSubmitter{err: &RejectionError{StatusCode: 500}},
			wantMsg: MsgSubmitFailed,
		},
		{
			name:    "success without id",
			sub:     &fakeSubmitter{},
			wantMsg: MsgSubmitFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FromInvoice(validInvoice())
			d.Items.Add()
			before := snapshotJSON(t, d)
			rec := &recorder{}

			var sawFailed bool
			c := NewController(d, tt.sub, rec, rec, WithTransitionHook(func(_, to State) {
				if to == StateFailed {
					sawFailed = true
				}
			}))

			res, err := c.Submit(context.Background())
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if res.State != StateIdle || res.Err == nil {
				t.Errorf("result = %+v, want idle with error", res)
			}
			if !sawFailed {
				t.Error("controller never passed through failed")
			}
			if len(rec.failures) != 1 || rec.failures[0] != tt.wantMsg {
				t.Errorf("failures = %v, want [%s]", rec.failures, tt.wantMsg)
			}
			if len(rec.paths) != 0 {
				t.Errorf("navigated on failure: %v", rec.paths)
			}
			if c.Draft() != d {
				t.Fatal("draft replaced on failure")
			}
			if after := snapshotJSON(t, d); string(after) != string(before) {
				t.Errorf("draft changed:\nbefore %s\nafter  %s", before, after)
			}
			if !c.CanSubmit() {
				t.Error("retry should be possible after failure")
			}
		})
	}
}

func TestController_RetryAfterFailure(t *testing.T) {
	d := FromInvoice(validInvoice())
	sub := &fakeSubmitter{err: errors.New("timeout")}
	rec := &recorder{}
	c := NewController(d, sub, rec, rec)

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	sub.err = nil
	sub.id = "inv-9"
	res, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if res.State != StateSucceeded || sub.Calls() != 2 {
		t.Errorf("result = %+v, calls = %d", res, sub.Calls())
	}
}

func TestController_DetachDropsLateResponse(t *testing.T) {
	d := FromInvoice(validInvoice())
	sub := &fakeSubmitter{
		id:      "inv-3",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	rec := &recorder{}
	c := NewController(d, sub, rec, rec)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-sub.entered
	c.Detach()
	close(sub.release)

	if err := <-done; !errors.Is(err, ErrDetached) {
		t.Errorf("Submit() error = %v, want ErrDetached", err)
	}
	if len(rec.successes)+len(rec.failures)+len(rec.paths) != 0 {
		t.Error("detached controller produced side effects")
	}
}

func TestController_SubmitAfterDetach(t *testing.T) {
	d := FromInvoice(validInvoice())
	sub := &fakeSubmitter{id: "inv-4"}
	rec := &recorder{}
	c := NewController(d, sub, rec, rec)
	c.Detach()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Submit(context.Background())
			if !errors.Is(err, ErrDetached) {
				t.Errorf("Submit() error = %v, want ErrDetached", err)
			}
			if res.State != StateIdle {
				t.Errorf("state = %s, want idle", res.State)
			}
		}()
	}
	wg.Wait()

	if sub.Calls() != 0 || c.CanSubmit() {
		t.Errorf("detached controller submitted (calls %d) or still enabled", sub.Calls())
	}
}

func TestState_String(t *testing.T) {
	if StateSubmitting.String() != "submitting" {
		t.Errorf("got %s", StateSubmitting)
	}
	if State(99).String() != "state(99)" {
		t.Errorf("got %s", State(99))
	}
}
