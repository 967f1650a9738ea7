package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/quickchat/internal/chat"
	"github.com/pliu/quickchat/internal/middleware"
	"github.com/pliu/quickchat/internal/models"
	"github.com/pliu/quickchat/internal/store"
)

type MessageHandler struct {
	Coordinator *chat.Coordinator
}

// GetUsersForSidebar lists every other user plus the count of their
// messages the caller has not seen yet, keyed by user id.
func (h *MessageHandler) GetUsersForSidebar(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)

	users, unseen, err := h.Coordinator.SidebarUsers(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"users":          users,
		"unseenMessages": unseen,
	})
}

// GetMessages returns the full conversation with the peer in the URL,
// oldest first, and marks everything the peer sent as seen.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	peerID := mux.Vars(r)["id"]

	messages, err := h.Coordinator.Conversation(user.ID, peerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	if err := h.Coordinator.MarkConversationSeen(peerID, user.ID); err != nil {
		log.Printf("mark conversation seen: %v", err)
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
	})
}

func (h *MessageHandler) MarkMessageAsSeen(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["id"]

	if err := h.Coordinator.MarkSeen(messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Message not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{"success": true})
}

type sendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// SendMessage persists a message to the recipient in the URL and
// relays it live when they are connected. An empty body is accepted;
// text and image are both optional.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	receiverID := mux.Vars(r)["id"]

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.Coordinator.Send(user.ID, receiverID, req.Text, req.Image)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"newMessage": msg,
	})
}
