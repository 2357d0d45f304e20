package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock Delivery Client
type MockDeliveryClient struct {
	mock.Mock
}

func (m *MockDeliveryClient) Send(ctx context.Context, msg domain.ValidatedMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func validInput() domain.FormInput {
	return domain.FormInput{
		Name:    "Al",
		Email:   "a@b.co",
		Subject: "Hello there",
		Message: "This is a test message.",
	}
}

func fill(t *testing.T, c *usecase.ContactController, in domain.FormInput) {
	t.Helper()
	require.NoError(t, c.Edit(domain.FieldName, in.Name))
	require.NoError(t, c.Edit(domain.FieldEmail, in.Email))
	require.NoError(t, c.Edit(domain.FieldSubject, in.Subject))
	require.NoError(t, c.Edit(domain.FieldMessage, in.Message))
}

func TestSubmitSuccessClearsForm(t *testing.T) {
	want, errs := validInput().Validate()
	require.Empty(t, errs)

	client := new(MockDeliveryClient)
	client.On("Send", mock.Anything, want).Return(nil).Once()

	c := usecase.NewContactController(client, nil)
	assert.Equal(t, domain.StateIdle, c.Snapshot().State)
	fill(t, c, validInput())

	snap, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StateSucceeded, snap.State)
	assert.Equal(t, domain.SuccessMessage, snap.SuccessMessage)
	assert.Empty(t, snap.FailureMessage)
	assert.True(t, snap.Input.IsEmpty())
	assert.Nil(t, c.LastDeliveryError())
	client.AssertNumberOfCalls(t, "Send", 1)
}

func TestSubmitInvalidNeverSends(t *testing.T) {
	client := new(MockDeliveryClient)
	c := usecase.NewContactController(client, nil)
	fill(t, c, domain.FormInput{Name: "A", Email: "bad", Subject: "Hi", Message: "short"})

	snap, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Len(t, snap.FieldErrors, 4)
	assert.Contains(t, snap.FieldErrors, domain.FieldName)
	assert.Contains(t, snap.FieldErrors, domain.FieldEmail)
	assert.Contains(t, snap.FieldErrors, domain.FieldSubject)
	assert.Contains(t, snap.FieldErrors, domain.FieldMessage)
	assert.Equal(t, "A", snap.Input.Name)
	client.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmitFailureRetainsInput(t *testing.T) {
	client := new(MockDeliveryClient)
	relayErr := &domain.DeliveryError{Kind: domain.DeliveryTimeout, Reason: "timeout"}
	client.On("Send", mock.Anything, mock.Anything).Return(relayErr).Once()

	c := usecase.NewContactController(client, nil)
	fill(t, c, validInput())

	snap, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StateFailed, snap.State)
	assert.Equal(t, domain.UserFacingFailure, snap.FailureMessage)
	assert.NotContains(t, snap.FailureMessage, "timeout")
	assert.Equal(t, validInput(), snap.Input)
	assert.Equal(t, relayErr, c.LastDeliveryError())

	// Editing after a terminal state returns to Idle
	require.NoError(t, c.Edit(domain.FieldSubject, "Hello again"))
	snap = c.Snapshot()
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Empty(t, snap.FailureMessage)
	assert.Equal(t, "Hello again", snap.Input.Subject)
}

func TestEditAfterSuccessReturnsToIdle(t *testing.T) {
	client := new(MockDeliveryClient)
	client.On("Send", mock.Anything, mock.Anything).Return(nil)

	c := usecase.NewContactController(client, nil)
	fill(t, c, validInput())
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Edit(domain.FieldName, "Bo"))
	snap := c.Snapshot()
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Empty(t, snap.SuccessMessage)
}

func TestResubmitAfterFailureRevalidates(t *testing.T) {
	client := new(MockDeliveryClient)
	client.On("Send", mock.Anything, mock.Anything).Return(&domain.DeliveryError{Kind: domain.DeliveryTransport, Reason: "dial"}).Once()

	c := usecase.NewContactController(client, nil)
	fill(t, c, validInput())
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	// The next submit must validate the edited input again
	require.NoError(t, c.Edit(domain.FieldEmail, "nope"))
	snap, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Contains(t, snap.FieldErrors, domain.FieldEmail)
	client.AssertNumberOfCalls(t, "Send", 1)
}

// blockingClient holds Send until released
type blockingClient struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) Send(ctx context.Context, msg domain.ValidatedMessage) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.started <- struct{}{}
	<-b.release
	return nil
}

func TestSubmitWhileInFlightIsNoop(t *testing.T) {
	client := &blockingClient{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := usecase.NewContactController(client, nil)
	fill(t, c, validInput())

	done := make(chan domain.Snapshot, 1)
	go func() {
		snap, _ := c.Submit(context.Background())
		done <- snap
	}()

	select {
	case <-client.started:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never started")
	}
	assert.Equal(t, domain.StateSubmitting, c.Snapshot().State)

	snap, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
	assert.Equal(t, domain.StateSubmitting, snap.State)

	close(client.release)
	final := <-done
	assert.Equal(t, domain.StateSucceeded, final.State)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.calls)
}

// ctxAwareClient holds Send until released and then reports whether the
// context it was given had been cancelled meanwhile
type ctxAwareClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *ctxAwareClient) Send(ctx context.Context, msg domain.ValidatedMessage) error {
	b.started <- struct{}{}
	<-b.release
	return ctx.Err()
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	client := &ctxAwareClient{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := usecase.NewContactController(client, nil)
	fill(t, c, validInput())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.Snapshot, 1)
	go func() {
		snap, _ := c.Submit(ctx)
		done <- snap
	}()

	select {
	case <-client.started:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never started")
	}

	// The visitor goes away while the relay is still working
	cancel()
	close(client.release)

	final := <-done
	assert.Equal(t, domain.StateSucceeded, final.State)
	assert.Nil(t, c.LastDeliveryError())
}

func TestSubscribeSeesTransitions(t *testing.T) {
	client := new(MockDeliveryClient)
	client.On("Send", mock.Anything, mock.Anything).Return(nil)

	c := usecase.NewContactController(client, nil)
	fill(t, c, validInput())

	var states []domain.SubmissionState
	unsubscribe := c.Subscribe(func(s domain.Snapshot) {
		states = append(states, s.State)
	})

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.SubmissionState{domain.StateSubmitting, domain.StateSucceeded}, states)

	unsubscribe()
	require.NoError(t, c.Edit(domain.FieldName, "Bo"))
	assert.Len(t, states, 2)
}

func TestObserverMayEditTheForm(t *testing.T) {
	c := usecase.NewContactController(new(MockDeliveryClient), nil)

	var (
		mu    sync.Mutex
		names []string
	)
	c.Subscribe(func(s domain.Snapshot) {
		mu.Lock()
		names = append(names, s.Input.Name)
		mu.Unlock()
		if s.Input.Name == "x" {
			assert.NoError(t, c.Edit(domain.FieldName, "Wojtek"))
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Edit(domain.FieldName, "x")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("edit from an observer blocked the controller")
	}

	assert.Equal(t, "Wojtek", c.Snapshot().Input.Name)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"x", "Wojtek"}, names)
}

func TestEditRevalidatesShownErrors(t *testing.T) {
	client := new(MockDeliveryClient)
	c := usecase.NewContactController(client, nil)
	fill(t, c, domain.FormInput{Name: "A", Email: "bad", Subject: "Hello there", Message: "This is a test message."})

	snap, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.FieldErrors, 2)

	// Fixing a field clears its error; the other stays until fixed
	require.NoError(t, c.Edit(domain.FieldName, "Al"))
	snap = c.Snapshot()
	assert.NotContains(t, snap.FieldErrors, domain.FieldName)
	assert.Contains(t, snap.FieldErrors, domain.FieldEmail)

	// Breaking a valid field again while errors are shown reports it
	require.NoError(t, c.Edit(domain.FieldSubject, "Hi"))
	assert.Equal(t, "Subject must be at least 5 characters.", c.Snapshot().FieldErrors[domain.FieldSubject])

	require.NoError(t, c.Edit(domain.FieldSubject, "Hello there"))
	require.NoError(t, c.Edit(domain.FieldEmail, "a@b.co"))
	assert.Empty(t, c.Snapshot().FieldErrors)
	client.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestEditBeforeSubmitShowsNoErrors(t *testing.T) {
	c := usecase.NewContactController(new(MockDeliveryClient), nil)
	require.NoError(t, c.Edit(domain.FieldName, "A"))
	assert.Empty(t, c.Snapshot().FieldErrors)
}

func TestEditUnknownField(t *testing.T) {
	c := usecase.NewContactController(new(MockDeliveryClient), nil)
	err := c.Edit("phone", "123")
	assert.True(t, errors.Is(err, domain.ErrUnknownField))
}

func TestSendContactMessage(t *testing.T) {
	t.Run("Should return the raw delivery error on failure", func(t *testing.T) {
		client := new(MockDeliveryClient)
		cfgErr := &domain.DeliveryError{Kind: domain.DeliveryConfiguration, Reason: "missing EMAILJS_SERVICE_ID"}
		client.On("Send", mock.Anything, mock.Anything).Return(cfgErr)

		uc := usecase.NewContactUsecase(usecase.NewControllerFactory(client, nil))
		snap, err := uc.SendContactMessage(context.Background(), validInput())

		assert.Equal(t, domain.StateFailed, snap.State)
		assert.True(t, domain.IsConfigurationError(err))
	})

	t.Run("Should report field errors without sending", func(t *testing.T) {
		client := new(MockDeliveryClient)
		uc := usecase.NewContactUsecase(usecase.NewControllerFactory(client, nil))

		snap, err := uc.SendContactMessage(context.Background(), domain.FormInput{})
		assert.NoError(t, err)
		assert.Len(t, snap.FieldErrors, 4)
		client.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Should succeed and clear the form", func(t *testing.T) {
		client := new(MockDeliveryClient)
		client.On("Send", mock.Anything, mock.Anything).Return(nil)
		uc := usecase.NewContactUsecase(usecase.NewControllerFactory(client, nil))

		snap, err := uc.SendContactMessage(context.Background(), validInput())
		assert.NoError(t, err)
		assert.Equal(t, domain.StateSucceeded, snap.State)
		assert.True(t, snap.Input.IsEmpty())
	})
}

func TestContactSessions(t *testing.T) {
	client := new(MockDeliveryClient)
	client.On("Send", mock.Anything, mock.Anything).Return(nil)
	sessions := usecase.NewContactSessions(usecase.NewControllerFactory(client, nil), time.Minute, nil)

	id, _ := sessions.Open()

	snap, err := sessions.Edit(id, domain.FieldName, "Al")
	require.NoError(t, err)
	assert.Equal(t, "Al", snap.Input.Name)

	for field, value := range map[string]string{
		domain.FieldEmail:   "a@b.co",
		domain.FieldSubject: "Hello there",
		domain.FieldMessage: "This is a test message.",
	} {
		_, err = sessions.Edit(id, field, value)
		require.NoError(t, err)
	}

	snap, err = sessions.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSucceeded, snap.State)

	require.NoError(t, sessions.Close(id))
	_, err = sessions.Submit(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, sessions.Close(id), domain.ErrSessionNotFound)
}

type stubConfigurable bool

func (s stubConfigurable) IsConfigured() bool { return bool(s) }

func TestHealthCheck(t *testing.T) {
	ok := usecase.NewHealthUsecase("emailjs", stubConfigurable(true)).Check(context.Background())
	assert.Equal(t, "ok", ok["status"])
	assert.Equal(t, "configured", ok["delivery"])

	missing := usecase.NewHealthUsecase("smtp", stubConfigurable(false)).Check(context.Background())
	assert.Equal(t, "ok", missing["status"])
	assert.Equal(t, "unconfigured", missing["delivery"])
	assert.Equal(t, "smtp", missing["delivery_driver"])
}
