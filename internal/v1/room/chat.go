package room

import (
	"html"
	"strings"
	"time"

	"github.com/tossemideia/synctube/internal/v1/model"
)

// HandleChat trims, truncates, and HTML-escapes a message before appending
// it to the bounded chat history and broadcasting it (spec.md §4.5).
func (r *Room) HandleChat(userID model.UserID, raw string) error {
	r.mu.Lock()
	u, ok := r.users[userID]
	if !ok {
		r.mu.Unlock()
		return newErr(CodeChatFailed, "unknown user")
	}
	displayName := u.DisplayName
	r.mu.Unlock()

	cleaned := sanitizeChatMessage(raw, r.cfg.MaxMessageLength)
	if cleaned == "" {
		return newErr(CodeChatFailed, "Empty message")
	}

	msg := model.ChatMessage{
		UserID:      userID,
		DisplayName: displayName,
		Message:     cleaned,
		Timestamp:   time.Now(),
	}
	r.appendChat(msg)
	r.conn.Broadcast(FrameChatMessage, msg, "")
	return nil
}

// sanitizeChatMessage trims, truncates to maxLen, then HTML-escapes raw.
func sanitizeChatMessage(raw string, maxLen int) string {
	trimmed := strings.TrimSpace(raw)
	if runes := []rune(trimmed); len(runes) > maxLen {
		trimmed = string(runes[:maxLen])
	}
	return html.EscapeString(trimmed)
}

// appendChat pushes msg onto the FIFO chat history, dropping the oldest
// entry when over capacity. It does not broadcast; HandleChat and systemChat
// do that after appending.
func (r *Room) appendChat(msg model.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendChatLocked(msg)
}

func (r *Room) appendChatLocked(msg model.ChatMessage) {
	r.chatHistory = append(r.chatHistory, msg)
	if over := len(r.chatHistory) - r.cfg.ChatHistoryLimit; over > 0 {
		r.chatHistory = r.chatHistory[over:]
	}
}

// systemChat appends and broadcasts a system-attributed chat message.
func (r *Room) systemChat(message string) {
	msg := model.SystemMessage(message)
	r.appendChat(msg)
	r.conn.Broadcast(FrameChatMessage, msg, "")
}

// SystemChat lets callers outside the package (the transport layer, for
// join/leave announcements) post a system-attributed chat message.
func (r *Room) SystemChat(message string) {
	r.systemChat(message)
}
