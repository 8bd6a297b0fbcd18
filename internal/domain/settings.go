package domain

// Settings is the user-editable snapshot passed to the backend when a turn
// starts. Pinned session ids live here so they persist with the rest of the
// user's preferences.
type Settings struct {
	WorkDir        string   `json:"work_dir,omitempty"`
	Model          string   `json:"model,omitempty"`
	Thinking       bool     `json:"thinking,omitempty"`
	Yolo           bool     `json:"yolo,omitempty"`
	PinnedSessions []string `json:"pinned_sessions,omitempty"`
	SkillsDir      string   `json:"skills_dir,omitempty"`
}
