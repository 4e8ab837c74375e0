package domain

import "time"

// Prompt is a named, reusable style-guidance template. A nil UserID marks a
// system default available to everyone; otherwise the prompt belongs to the
// referenced user. The pipeline consumes only the Content string.
type Prompt struct {
	ID        string
	UserID    *string
	Name      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleTo reports whether the prompt may be used by the given user.
func (p Prompt) VisibleTo(userID string) bool {
	return p.UserID == nil || *p.UserID == userID
}
