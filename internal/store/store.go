package store

import (
	"errors"

	"github.com/pliu/quickchat/internal/models"
)

// ErrNotFound is returned when a referenced user or message does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a unique constraint (email) is violated.
var ErrConflict = errors.New("record already exists")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUser(id, fullName, bio, profilePic string) (*models.User, error)
	ListUsersExcept(id string) ([]models.User, error)

	// Message operations
	CreateMessage(msg *models.Message) error
	GetMessageByID(id string) (*models.Message, error)
	GetConversation(userA, userB string) ([]models.Message, error)
	MarkMessageSeen(id string) error
	MarkConversationSeen(senderID, receiverID string) error
	CountUnseenBySender(receiverID string) (map[string]int, error)
}
