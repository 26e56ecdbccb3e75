package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	userID string
	err    error
}

func (v *fakeValidator) ValidateToken(string) (string, error) {
	return v.userID, v.err
}

func newTestHandler(f *serviceFixture, validator TokenValidator) *Handler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHandler(f.svc, f.dispatcher, validator, log)
}

func TestServeWsRejectsMissingToken(t *testing.T) {
	h := newTestHandler(newServiceFixture(), &fakeValidator{userID: "u1"})

	rec := httptest.NewRecorder()
	h.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeWsRejectsInvalidToken(t *testing.T) {
	h := newTestHandler(newServiceFixture(), &fakeValidator{err: errors.New("bad token")})

	rec := httptest.NewRecorder()
	h.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws?token=nope", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetInboxRequiresID(t *testing.T) {
	h := newTestHandler(newServiceFixture(), &fakeValidator{userID: "u1"})

	rec := httptest.NewRecorder()
	h.GetInbox(rec, httptest.NewRequest(http.MethodGet, "/Inbox", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInboxReturnsSummaries(t *testing.T) {
	f := newServiceFixture()
	h := newTestHandler(f, &fakeValidator{userID: "alice"})

	ep := f.attach("e1", "alice")
	require.NoError(t, f.svc.SendMessage(context.Background(), ep, SendMessagePayload{
		ReceiverID: "bob", ConversationID: ConversationID("alice", "bob"), Message: "hi",
	}))

	rec := httptest.NewRecorder()
	h.GetInbox(rec, httptest.NewRequest(http.MethodGet, "/Inbox?id=bob", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []ConversationSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "hi", summaries[0].LastMessage.Text)
	assert.Equal(t, 1, summaries[0].UnreadCount)
}

func TestGetThreadRequiresBothIDs(t *testing.T) {
	h := newTestHandler(newServiceFixture(), &fakeValidator{userID: "u1"})

	rec := httptest.NewRecorder()
	h.GetThread(rec, httptest.NewRequest(http.MethodGet, "/Inbox/messages?senderId=alice", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageRoundTrip(t *testing.T) {
	f := newServiceFixture()
	h := newTestHandler(f, &fakeValidator{userID: "alice"})

	body := strings.NewReader(`{"senderId":"alice","receiverId":"bob","text":"via rest"}`)
	rec := httptest.NewRecorder()
	h.PostMessage(rec, httptest.NewRequest(http.MethodPost, "/Inbox/messages", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var thread []*Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&thread))
	require.Len(t, thread, 1)
	assert.Equal(t, "via rest", thread[0].Text)
}

func TestPostMessageValidation(t *testing.T) {
	h := newTestHandler(newServiceFixture(), &fakeValidator{userID: "alice"})

	rec := httptest.NewRecorder()
	h.PostMessage(rec, httptest.NewRequest(http.MethodPost, "/Inbox/messages",
		strings.NewReader(`{"senderId":"alice"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetThreadNewestFirst(t *testing.T) {
	f := newServiceFixture()
	h := newTestHandler(f, &fakeValidator{userID: "alice"})

	_, err := f.svc.PostMessage(context.Background(), "alice", "bob", "first")
	require.NoError(t, err)
	_, err = f.svc.PostMessage(context.Background(), "alice", "bob", "second")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.GetThread(rec, httptest.NewRequest(http.MethodGet, "/Inbox/messages?senderId=alice&receiverId=bob", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var thread []AnnotatedMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&thread))
	require.Len(t, thread, 2)
	assert.Equal(t, "second", thread[0].Text)
	assert.Equal(t, "first", thread[1].Text)
}

func TestPostMessageBlankText(t *testing.T) {
	h := newTestHandler(newServiceFixture(), &fakeValidator{userID: "alice"})

	rec := httptest.NewRecorder()
	h.PostMessage(rec, httptest.NewRequest(http.MethodPost, "/Inbox/messages",
		strings.NewReader(`{"senderId":"alice","receiverId":"bob","text":"   "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
