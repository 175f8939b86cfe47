package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/dropDatabas3/userpanel/internal/http/dto/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransport struct {
	mu    sync.Mutex
	subs  []Submission
	gate  chan struct{}
	res   Result
	err   error
	calls int
}

func (f *fakeTransport) Submit(ctx context.Context, sub Submission) (Result, error) {
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.calls++
	gate := f.gate
	res, err := f.res, f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return res, err
}

func (f *fakeTransport) set(res Result, err error) {
	f.mu.Lock()
	f.res, f.err = res, err
	f.mu.Unlock()
}

func (f *fakeTransport) last() Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[len(f.subs)-1]
}

type recordingNav struct {
	mu    sync.Mutex
	calls []Navigate
}

func (n *recordingNav) Navigate(path string, replace bool) {
	n.mu.Lock()
	n.calls = append(n.calls, Navigate{Path: path, Replace: replace})
	n.mu.Unlock()
}

func wait(t *testing.T, tr interface{ Wait(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Wait(ctx))
}

func strPtr(s string) *string { return &s }

func TestDetail_UpdateSuccess(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true, Data: json.RawMessage(`{"first_name":"Ann"}`), Message: "User updated successfully"}}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	var seen []State
	unsub := tr.Subscribe(func(s State) { seen = append(seen, s) })
	defer unsub()

	ok, err := tr.UpdateUser(context.Background(), dto.UpdateUserRequest{FirstName: strPtr("Ann")})
	require.NoError(t, err)
	assert.True(t, ok)
	wait(t, tr)

	st := tr.State()
	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, "User updated successfully", st.Message)
	assert.Equal(t, IntentNone, st.ActiveIntent)
	assert.Equal(t, PhaseIdle, st.Phase)

	require.Len(t, seen, 2)
	assert.Equal(t, PhaseSubmitting, seen[0].Phase)
	assert.Equal(t, PhaseIdle, seen[1].Phase)

	sub := ft.last()
	assert.Equal(t, "/systems/users/u1", sub.Path)
	assert.Equal(t, "update", sub.Fields.Get("_action"))
	assert.JSONEq(t, `{"first_name":"Ann"}`, sub.Fields.Get("userData"))
}

func TestDetail_UpdateBackendError(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: false, Error: "email already in use"}}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	_, err := tr.UpdateUser(context.Background(), dto.UpdateUserRequest{})
	require.NoError(t, err)
	wait(t, tr)

	st := tr.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "email already in use", st.Message)
	assert.Equal(t, IntentNone, st.ActiveIntent)
}

func TestDetail_DeleteNavigatesOnce(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}}
	nav := &recordingNav{}
	tr := NewDetailTracker("u1", ft, WithNavigator(nav), WithLogger(zap.NewNop()))

	_, err := tr.DeleteUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)

	// un update posterior no debe volver a navegar
	_, err = tr.UpdateUser(context.Background(), dto.UpdateUserRequest{})
	require.NoError(t, err)
	wait(t, tr)

	assert.Equal(t, []Navigate{{Path: "/systems/users", Replace: true}}, nav.calls)
	assert.Equal(t, "delete", ft.subs[0].Fields.Get("_action"))
}

func TestDetail_FailedDeleteDoesNotNavigate(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: false, Error: "not found"}}
	nav := &recordingNav{}
	tr := NewDetailTracker("u1", ft, WithNavigator(nav), WithLogger(zap.NewNop()))

	_, err := tr.DeleteUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)

	assert.Empty(t, nav.calls)
	assert.Equal(t, "not found", tr.State().Message)
}

func TestDetail_DeactivateDoesNotNavigate(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}}
	nav := &recordingNav{}
	tr := NewDetailTracker("u1", ft, WithNavigator(nav), WithLogger(zap.NewNop()))

	_, err := tr.DeactivateUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)

	assert.Empty(t, nav.calls)
	assert.Equal(t, "User deactivated successfully", tr.State().Message)
}

func TestList_SuccessCallbackInvokedOnce(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}}
	tr := NewListTracker(ft, WithLogger(zap.NewNop()))

	calls := 0
	tr.SetSuccessCallback(func() { calls++ })

	_, err := tr.CreateUser(context.Background(), dto.CreateUserRequest{Username: "ann"})
	require.NoError(t, err)
	wait(t, tr)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "User created successfully", tr.State().Message)

	_, err = tr.DeleteUser(context.Background(), "u2")
	require.NoError(t, err)
	wait(t, tr)
	assert.Equal(t, 1, calls)

	sub := ft.last()
	assert.Equal(t, "/systems/users", sub.Path)
	assert.Equal(t, "delete", sub.Fields.Get("_action"))
	assert.Equal(t, "u2", sub.Fields.Get("userId"))
	assert.Equal(t, "create", ft.subs[0].Fields.Get("_action"))
	assert.Contains(t, ft.subs[0].Fields.Get("userInformation"), `"username":"ann"`)
}

func TestList_CallbackSurvivesFailure(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: false, Error: "username taken"}}
	tr := NewListTracker(ft, WithLogger(zap.NewNop()))

	calls := 0
	tr.SetSuccessCallback(func() { calls++ })

	_, err := tr.CreateUser(context.Background(), dto.CreateUserRequest{})
	require.NoError(t, err)
	wait(t, tr)
	assert.Equal(t, 0, calls)

	ft.set(Result{Success: true}, nil)
	_, err = tr.CreateUser(context.Background(), dto.CreateUserRequest{})
	require.NoError(t, err)
	wait(t, tr)
	assert.Equal(t, 1, calls)
}

func TestList_DeleteRequiresID(t *testing.T) {
	ft := &fakeTransport{}
	tr := NewListTracker(ft, WithLogger(zap.NewNop()))

	ok, err := tr.DeleteUser(context.Background(), "  ")
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Equal(t, 0, ft.calls)
}

func TestRejectsConcurrentSubmission(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}, gate: make(chan struct{})}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	ok, err := tr.UpdateUser(context.Background(), dto.UpdateUserRequest{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tr.State().IsUpdating())

	ok, err = tr.DeleteUser(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrSubmissionInFlight))
	assert.Equal(t, IntentUpdate, tr.State().ActiveIntent)

	close(ft.gate)
	wait(t, tr)
	assert.Equal(t, "User updated successfully", tr.State().Message)
}

func TestTransportFailureResetsIntent(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection refused")}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	_, err := tr.DeactivateUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)

	st := tr.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "connection refused", st.Message)
	assert.Equal(t, IntentNone, st.ActiveIntent)
}

func TestClearMessage(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: false, Error: "boom"}, gate: make(chan struct{})}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	_, err := tr.UpdateUser(context.Background(), dto.UpdateUserRequest{})
	require.NoError(t, err)

	tr.ClearMessage()
	assert.Equal(t, IntentUpdate, tr.State().ActiveIntent)

	close(ft.gate)
	wait(t, tr)
	assert.Equal(t, "boom", tr.State().Message)

	tr.ClearMessage()
	st := tr.State()
	assert.Equal(t, StatusNone, st.Status)
	assert.Empty(t, st.Message)
}

func TestUnsubscribe(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	n := 0
	unsub := tr.Subscribe(func(State) { n++ })
	unsub()
	unsub()

	_, err := tr.DeactivateUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)
	assert.Equal(t, 0, n)
}

func TestWaitWithoutSubmission(t *testing.T) {
	tr := NewListTracker(&fakeTransport{}, WithLogger(zap.NewNop()))
	assert.NoError(t, tr.Wait(context.Background()))
	assert.Equal(t, StatusIdle, tr.State().Status)
}

func TestClearMessageDuringCompletionDeliveryKeepsOrder(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}, gate: make(chan struct{})}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	paused := make(chan struct{})
	release := make(chan struct{})
	var (
		mu        sync.Mutex
		delivered []State
		inFlight  int
		maxFlight int
	)
	tr.Subscribe(func(s State) {
		mu.Lock()
		inFlight++
		if inFlight > maxFlight {
			maxFlight = inFlight
		}
		mu.Unlock()

		if s.Status == StatusSuccess {
			close(paused)
			<-release
		}

		mu.Lock()
		delivered = append(delivered, s)
		inFlight--
		mu.Unlock()
	})

	_, err := tr.UpdateUser(context.Background(), dto.UpdateUserRequest{})
	require.NoError(t, err)
	// la completion se entrega desde el goroutine de la submission
	close(ft.gate)

	select {
	case <-paused:
	case <-time.After(2 * time.Second):
		t.Fatal("success notification never delivered")
	}

	cleared := make(chan struct{})
	go func() {
		tr.ClearMessage()
		close(cleared)
	}()
	// el estado ya cambió aunque la entrega anterior siga en curso
	require.Eventually(t, func() bool { return tr.State().Message == "" }, 2*time.Second, 5*time.Millisecond)

	close(release)
	select {
	case <-cleared:
	case <-time.After(2 * time.Second):
		t.Fatal("ClearMessage did not return")
	}
	wait(t, tr)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 3)
	assert.Equal(t, PhaseSubmitting, delivered[0].Phase)
	assert.Equal(t, StatusSuccess, delivered[1].Status)
	assert.Equal(t, tr.State(), delivered[2])
	assert.Empty(t, delivered[2].Message)
	assert.Equal(t, 1, maxFlight)
}

func TestListenerMayClearMessage(t *testing.T) {
	ft := &fakeTransport{res: Result{Success: true}}
	tr := NewDetailTracker("u1", ft, WithLogger(zap.NewNop()))

	var last State
	tr.Subscribe(func(s State) {
		last = s
		if s.Status == StatusSuccess {
			tr.ClearMessage()
		}
	})

	_, err := tr.DeactivateUser(context.Background())
	require.NoError(t, err)
	wait(t, tr)

	assert.Equal(t, tr.State(), last)
	assert.Equal(t, StatusNone, last.Status)
}
