package model

// TrackedUser is a participant whose daily messages are eligible for summarization.
// DisplayName is resolved lazily at run time and falls back to the raw ID.
type TrackedUser struct {
	ID          UserID
	DisplayName string
}

// Name returns the display name, or the ID when no name could be resolved.
func (u TrackedUser) Name() string {
	if u.DisplayName == "" {
		return u.ID.String()
	}
	return u.DisplayName
}
