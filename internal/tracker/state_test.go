package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func submitting(i Intent) State { return State{ActiveIntent: i, Phase: PhaseSubmitting} }

func TestTransition_SubmittedClearsMessage(t *testing.T) {
	s := State{Phase: PhaseIdle, Status: StatusError, Message: "boom"}
	next, effects := Transition(PageDetail, s, Submitted{Intent: IntentUpdate})
	assert.Equal(t, submitting(IntentUpdate), next)
	assert.Empty(t, effects)
	assert.True(t, next.IsUpdating())
	assert.False(t, next.IsDeleting())
}

func TestTransition_SubmittedWhileSubmittingIsNoop(t *testing.T) {
	s := submitting(IntentCreate)
	next, effects := Transition(PageList, s, Submitted{Intent: IntentDelete})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestTransition_CompletedSuccess(t *testing.T) {
	cases := []struct {
		page    Page
		intent  Intent
		message string
		effects []Effect
	}{
		{PageDetail, IntentUpdate, "User updated successfully", nil},
		{PageDetail, IntentDeactivate, "User deactivated successfully", nil},
		{PageDetail, IntentDelete, "User deleted successfully", []Effect{Navigate{Path: "/systems/users", Replace: true}}},
		{PageList, IntentCreate, "User created successfully", []Effect{InvokeSuccessCallback{}}},
		{PageList, IntentDelete, "User deleted successfully", []Effect{InvokeSuccessCallback{}}},
	}
	for _, tc := range cases {
		t.Run(tc.page.String()+"/"+string(tc.intent), func(t *testing.T) {
			next, effects := Transition(tc.page, submitting(tc.intent), Completed{Result: Result{Success: true}})
			assert.Equal(t, State{Phase: PhaseIdle, Status: StatusSuccess, Message: tc.message}, next)
			assert.Equal(t, tc.effects, effects)
		})
	}
}

func TestTransition_CompletedErrorHasNoEffects(t *testing.T) {
	for _, i := range []Intent{IntentCreate, IntentUpdate, IntentDeactivate, IntentDelete} {
		next, effects := Transition(PageList, submitting(i), Completed{Result: Result{Success: false, Error: "not found"}})
		assert.Equal(t, IntentNone, next.ActiveIntent)
		assert.Equal(t, PhaseIdle, next.Phase)
		assert.Equal(t, StatusError, next.Status)
		assert.Equal(t, "not found", next.Message)
		assert.Empty(t, effects)
	}
}

func TestTransition_ErrorWithoutText(t *testing.T) {
	next, _ := Transition(PageDetail, submitting(IntentUpdate), Completed{Result: Result{}})
	assert.Equal(t, StatusError, next.Status)
	assert.Equal(t, "Unknown error occurred", next.Message)
}

func TestTransition_CompletionWithoutActiveIntentIsIgnored(t *testing.T) {
	s := State{Phase: PhaseIdle, Status: StatusSuccess, Message: "User created successfully"}
	next, effects := Transition(PageList, s, Completed{Result: Result{Success: true}})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)

	next, effects = Transition(PageList, s, TransportFailed{Err: errors.New("x")})
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestTransition_TransportFailed(t *testing.T) {
	next, effects := Transition(PageDetail, submitting(IntentDelete), TransportFailed{Err: errors.New("connection refused")})
	assert.Equal(t, State{Phase: PhaseIdle, Status: StatusError, Message: "connection refused"}, next)
	assert.Empty(t, effects)
}

func TestTransition_MessageClearedKeepsIntent(t *testing.T) {
	s := State{ActiveIntent: IntentUpdate, Phase: PhaseSubmitting, Status: StatusError, Message: "old"}
	next, _ := Transition(PageDetail, s, MessageCleared{})
	assert.Equal(t, IntentUpdate, next.ActiveIntent)
	assert.Equal(t, PhaseSubmitting, next.Phase)
	assert.Equal(t, StatusNone, next.Status)
	assert.Empty(t, next.Message)
}
