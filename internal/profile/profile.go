package profile

import "time"

// Memory is a durable fact consolidated from conversation.
type Memory struct {
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Profile is a user's long-lived record. List fields merge set-like on update.
type Profile struct {
	Name              string   `json:"name"`
	Age               *int     `json:"age,omitempty"`
	Hobbies           []string `json:"hobbies"`
	Likes             []string `json:"likes"`
	Dislikes          []string `json:"dislikes"`
	Goals             []string `json:"goals"`
	Fears             []string `json:"fears"`
	PersonalityTraits []string `json:"personality_traits"`
	PersonalNotes     string   `json:"personal_notes"`
	ImportantMemories []Memory `json:"important_memories"`
}

// DisplayName returns the name to address the user by.
func (p *Profile) DisplayName() string {
	if p == nil || p.Name == "" {
		return "Friend"
	}
	return p.Name
}

// Notes returns the free-text notes, tolerating a nil profile.
func (p *Profile) Notes() string {
	if p == nil {
		return ""
	}
	return p.PersonalNotes
}
