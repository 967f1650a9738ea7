// Package chat owns the send/read path: it persists messages through
// the store and hands live copies to the realtime hub when the
// recipient is connected.
package chat

import (
	"fmt"

	"github.com/pliu/quickchat/internal/assets"
	"github.com/pliu/quickchat/internal/models"
	"github.com/pliu/quickchat/internal/store"
	"github.com/pliu/quickchat/internal/ws"
)

// Pusher is the slice of the hub the coordinator needs.
type Pusher interface {
	Present(userID string) bool
	SendToUser(userID, event string, data interface{})
}

type Coordinator struct {
	Store  store.Store
	Pusher Pusher
	Assets assets.Store
}

// Send persists the message and, if the recipient currently has a
// live connection, pushes it as a newMessage event. The push happens
// only after a successful persist; a failed persist aborts with no
// delivery. Both text and image are optional.
func (c *Coordinator) Send(senderID, receiverID, text, image string) (*models.Message, error) {
	if image != "" {
		url, err := c.Assets.Save(image)
		if err != nil {
			return nil, fmt.Errorf("upload message image: %w", err)
		}
		image = url
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		Seen:       false,
	}
	if err := c.Store.CreateMessage(msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	if c.Pusher.Present(receiverID) {
		c.Pusher.SendToUser(receiverID, ws.EventNewMessage, msg)
	}
	return msg, nil
}

// MarkSeen marks one message seen. Already-seen messages are a no-op
// success; unknown ids surface store.ErrNotFound.
func (c *Coordinator) MarkSeen(messageID string) error {
	return c.Store.MarkMessageSeen(messageID)
}

// Conversation returns every message between the two users, oldest
// first. It does not touch seen state; callers that want the batch
// mark use MarkConversationSeen.
func (c *Coordinator) Conversation(userID, peerID string) ([]models.Message, error) {
	return c.Store.GetConversation(userID, peerID)
}

// MarkConversationSeen marks everything the peer sent to the user as
// seen in one sweep.
func (c *Coordinator) MarkConversationSeen(peerID, userID string) error {
	return c.Store.MarkConversationSeen(peerID, userID)
}

// SidebarUsers lists every other user together with how many of their
// messages to userID are still unseen.
func (c *Coordinator) SidebarUsers(userID string) ([]models.User, map[string]int, error) {
	users, err := c.Store.ListUsersExcept(userID)
	if err != nil {
		return nil, nil, err
	}
	counts, err := c.Store.CountUnseenBySender(userID)
	if err != nil {
		return nil, nil, err
	}
	return users, counts, nil
}
