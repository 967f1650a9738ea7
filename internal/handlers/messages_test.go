package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pliu/quickchat/internal/auth"
	"github.com/pliu/quickchat/internal/chat"
	"github.com/pliu/quickchat/internal/middleware"
	"github.com/pliu/quickchat/internal/models"
	"github.com/pliu/quickchat/internal/store/sqlstore"
	"github.com/pliu/quickchat/internal/ws"
)

type messageTestEnv struct {
	handler *MessageHandler
	store   *sqlstore.SQLStore
	issuer  *auth.Issuer
	alice   *models.User
	bob     *models.User
}

func newMessageEnv(t *testing.T) *messageTestEnv {
	t.Helper()
	st, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}

	alice := &models.User{FullName: "Alice", Email: "alice@example.com", Password: "hash", Bio: "hi"}
	bob := &models.User{FullName: "Bob", Email: "bob@example.com", Password: "hash", Bio: "hi"}
	st.CreateUser(alice)
	st.CreateUser(bob)

	hub := ws.NewHub()
	go hub.Run()

	coordinator := &chat.Coordinator{Store: st, Pusher: hub}
	return &messageTestEnv{
		handler: &MessageHandler{Coordinator: coordinator},
		store:   st,
		issuer:  auth.NewIssuer("test-secret"),
		alice:   alice,
		bob:     bob,
	}
}

// do runs an authenticated request through the auth middleware with
// the given mux path variables.
func (e *messageTestEnv) do(t *testing.T, h http.HandlerFunc, method, path string, as *models.User, vars map[string]string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader bytes.Buffer
	if body != nil {
		json.NewEncoder(&reader).Encode(body)
	} else {
		reader.WriteString("{}")
	}
	req := httptest.NewRequest(method, path, &reader)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	token, _ := e.issuer.Issue(as.ID)
	req.Header.Set("token", token)

	rr := httptest.NewRecorder()
	middleware.Auth(e.issuer, e.store)(h).ServeHTTP(rr, req)
	return rr
}

func TestSendMessageEndpoint(t *testing.T) {
	env := newMessageEnv(t)

	rr := env.do(t, env.handler.SendMessage, "POST", "/api/messages/send/"+env.alice.ID,
		env.bob, map[string]string{"id": env.alice.ID}, map[string]string{"text": "hi"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v: %s", rr.Code, rr.Body.String())
	}

	envelope := decodeEnvelope(t, rr)
	sent, _ := envelope["newMessage"].(map[string]interface{})
	if sent["text"] != "hi" {
		t.Errorf("Expected newMessage.text 'hi', got %v", sent["text"])
	}
	if sent["seen"] != false {
		t.Error("Expected newMessage.seen to be false")
	}
}

func TestConversationFlowMarksSeen(t *testing.T) {
	env := newMessageEnv(t)

	// Bob messages Alice while she is offline.
	env.do(t, env.handler.SendMessage, "POST", "/api/messages/send/"+env.alice.ID,
		env.bob, map[string]string{"id": env.alice.ID}, map[string]string{"text": "hi"})

	// The sidebar shows one unseen message from Bob.
	rr := env.do(t, env.handler.GetUsersForSidebar, "GET", "/api/messages/users", env.alice, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v", rr.Code)
	}
	envelope := decodeEnvelope(t, rr)
	unseen, _ := envelope["unseenMessages"].(map[string]interface{})
	if unseen[env.bob.ID] != float64(1) {
		t.Errorf("Expected 1 unseen from bob, got %v", unseen[env.bob.ID])
	}

	// Opening the conversation returns the message and marks it seen.
	rr = env.do(t, env.handler.GetMessages, "GET", "/api/messages/"+env.bob.ID,
		env.alice, map[string]string{"id": env.bob.ID}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v", rr.Code)
	}
	envelope = decodeEnvelope(t, rr)
	messages, _ := envelope["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]interface{})
	if first["text"] != "hi" {
		t.Errorf("Expected text 'hi', got %v", first["text"])
	}

	rr = env.do(t, env.handler.GetUsersForSidebar, "GET", "/api/messages/users", env.alice, nil, nil)
	envelope = decodeEnvelope(t, rr)
	unseen, _ = envelope["unseenMessages"].(map[string]interface{})
	if _, still := unseen[env.bob.ID]; still {
		t.Errorf("Expected no unseen count for bob after reading, got %v", unseen[env.bob.ID])
	}
}

func TestMarkMessageAsSeenEndpoint(t *testing.T) {
	env := newMessageEnv(t)

	msg := &models.Message{SenderID: env.bob.ID, ReceiverID: env.alice.ID, Text: "hi"}
	env.store.CreateMessage(msg)

	rr := env.do(t, env.handler.MarkMessageAsSeen, "PUT", "/api/messages/mark/"+msg.ID,
		env.alice, map[string]string{"id": msg.ID}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v", rr.Code)
	}

	// Idempotent: marking again succeeds.
	rr = env.do(t, env.handler.MarkMessageAsSeen, "PUT", "/api/messages/mark/"+msg.ID,
		env.alice, map[string]string{"id": msg.ID}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 on re-mark, got %v", rr.Code)
	}

	rr = env.do(t, env.handler.MarkMessageAsSeen, "PUT", "/api/messages/mark/missing",
		env.alice, map[string]string{"id": "missing"}, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown message, got %v", rr.Code)
	}
}

func TestSidebarListsOtherUsers(t *testing.T) {
	env := newMessageEnv(t)

	rr := env.do(t, env.handler.GetUsersForSidebar, "GET", "/api/messages/users", env.alice, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %v", rr.Code)
	}
	envelope := decodeEnvelope(t, rr)
	users, _ := envelope["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("Expected 1 sidebar user, got %d", len(users))
	}
	only, _ := users[0].(map[string]interface{})
	if only["_id"] != env.bob.ID {
		t.Errorf("Expected bob in the sidebar, got %v", only["_id"])
	}
}
