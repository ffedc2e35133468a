// Package conversation derives threaded views from flat interaction and message rows.
package conversation

import (
	"fmt"
	"time"
)

// Key is the stable identity of a conversation as seen by one acting user.
type Key string

// UserKey identifies a direct conversation with another user.
func UserKey(counterpartID uint) Key {
	return Key(fmt.Sprintf("user:%d", counterpartID))
}

// ProjectKey identifies an investor's thread around one graduate's project.
func ProjectKey(projectID, graduateID uint) Key {
	return Key(fmt.Sprintf("project:%d-%d", projectID, graduateID))
}

// Participant is the denormalized identity of the other side of a conversation.
type Participant struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ProjectRef is the denormalized project a conversation is about.
type ProjectRef struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// Entry is a single message or interaction inside a conversation.
type Entry struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	SenderID  uint      `json:"senderId,omitempty"`
	ProjectID uint      `json:"projectId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Row is one flat input record carrying its grouping key and counterpart identity.
type Row struct {
	Key         Key
	Counterpart Participant
	Project     *ProjectRef
	Entry       Entry
	Unread      bool
}

// Conversation groups the entries sharing a key.
type Conversation struct {
	Key           Key         `json:"key"`
	Counterpart   Participant `json:"counterpart"`
	Project       *ProjectRef `json:"project,omitempty"`
	Messages      []Entry     `json:"messages"`
	LastMessageAt time.Time   `json:"lastMessageAt"`
	UnreadCount   int         `json:"unreadCount"`
}

// Group buckets rows by key. Conversations come out in first-seen order and entries keep
// their input order, so callers must sort rows (typically newest first) before grouping.
func Group(rows []Row) []Conversation {
	conversations := make([]Conversation, 0)
	index := make(map[Key]int, len(rows))

	for _, row := range rows {
		pos, seen := index[row.Key]
		if !seen {
			conversations = append(conversations, Conversation{
				Key:           row.Key,
				Counterpart:   row.Counterpart,
				Project:       row.Project,
				Messages:      []Entry{},
				LastMessageAt: row.Entry.CreatedAt,
			})
			pos = len(conversations) - 1
			index[row.Key] = pos
		}

		conversation := &conversations[pos]
		conversation.Messages = append(conversation.Messages, row.Entry)
		if row.Unread {
			conversation.UnreadCount++
		}
	}

	return conversations
}
