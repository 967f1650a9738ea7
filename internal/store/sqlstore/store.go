package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pliu/quickchat/internal/models"
	"github.com/pliu/quickchat/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		profile_pic TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		text TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		seen BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (sender_id) REFERENCES users(id),
		FOREIGN KEY (receiver_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, seen);
	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique")
}

func (s *SQLStore) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO users (id, full_name, email, password, bio, profile_pic, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.ID, user.FullName, user.Email, user.Password, user.Bio, user.ProfilePic, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.Password, &user.Bio, &user.ProfilePic, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	query := s.rebind("SELECT id, full_name, email, password, bio, profile_pic, created_at FROM users WHERE email = ?")
	return s.scanUser(s.db.QueryRow(query, email))
}

func (s *SQLStore) GetUserByID(id string) (*models.User, error) {
	query := s.rebind("SELECT id, full_name, email, password, bio, profile_pic, created_at FROM users WHERE id = ?")
	return s.scanUser(s.db.QueryRow(query, id))
}

// UpdateUser overwrites the profile fields that are non-empty and
// returns the stored record.
func (s *SQLStore) UpdateUser(id, fullName, bio, profilePic string) (*models.User, error) {
	query := s.rebind(`
		UPDATE users SET
			full_name = COALESCE(NULLIF(?, ''), full_name),
			bio = COALESCE(NULLIF(?, ''), bio),
			profile_pic = COALESCE(NULLIF(?, ''), profile_pic)
		WHERE id = ?
	`)
	result, err := s.db.Exec(query, fullName, bio, profilePic, id)
	if err != nil {
		return nil, err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUserByID(id)
}

func (s *SQLStore) ListUsersExcept(id string) ([]models.User, error) {
	query := s.rebind("SELECT id, full_name, email, password, bio, profile_pic, created_at FROM users WHERE id != ? ORDER BY created_at ASC")
	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.Bio, &u.ProfilePic, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) CreateMessage(msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	query := s.rebind("INSERT INTO messages (id, sender_id, receiver_id, text, image, seen, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, msg.ID, msg.SenderID, msg.ReceiverID, msg.Text, msg.Image, msg.Seen, msg.CreatedAt)
	return err
}

func (s *SQLStore) GetMessageByID(id string) (*models.Message, error) {
	var m models.Message
	query := s.rebind("SELECT id, sender_id, receiver_id, text, image, seen, created_at FROM messages WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.Seen, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLStore) GetConversation(userA, userB string) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, sender_id, receiver_id, text, image, seen, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC
	`)
	rows, err := s.db.Query(query, userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.Seen, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessageSeen flips the seen flag. Re-marking an already seen
// message is a successful no-op; an unknown id is ErrNotFound.
func (s *SQLStore) MarkMessageSeen(id string) error {
	query := s.rebind("UPDATE messages SET seen = TRUE WHERE id = ?")
	result, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) MarkConversationSeen(senderID, receiverID string) error {
	query := s.rebind("UPDATE messages SET seen = TRUE WHERE sender_id = ? AND receiver_id = ? AND seen = FALSE")
	_, err := s.db.Exec(query, senderID, receiverID)
	return err
}

func (s *SQLStore) CountUnseenBySender(receiverID string) (map[string]int, error) {
	query := s.rebind("SELECT sender_id, COUNT(*) FROM messages WHERE receiver_id = ? AND seen = FALSE GROUP BY sender_id")
	rows, err := s.db.Query(query, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sender string
		var n int
		if err := rows.Scan(&sender, &n); err != nil {
			return nil, err
		}
		counts[sender] = n
	}
	return counts, rows.Err()
}
