package models

// EditorState is the lifecycle state of a schedule editor.
type EditorState string

const (
	EditorIdle    EditorState = "idle"
	EditorLoading EditorState = "loading"
	EditorViewing EditorState = "viewing"
	EditorEditing EditorState = "editing"
	EditorFailed  EditorState = "failed"
)

// Loaded reports whether the grid is ready to render.
func (s EditorState) Loaded() bool {
	return s == EditorViewing || s == EditorEditing
}

// EditorView is an immutable snapshot of a schedule editor.
type EditorView struct {
	State      EditorState `json:"state"`
	UserID     string      `json:"user_id"`
	ScheduleID string      `json:"schedule_id,omitempty"`
	Schedule   *Schedule   `json:"schedule,omitempty"`
	Options    []Paper     `json:"options"`
	Error      string      `json:"error,omitempty"`
	Locked     bool        `json:"locked"`
	CanEdit    bool        `json:"can_edit"`
	CanSave    bool        `json:"can_save"`
	CanDelete  bool        `json:"can_delete"`
}

// SlotLabel resolves a slot value against the view's paper options.
func (v EditorView) SlotLabel(value string) string {
	return PaperLabel(v.Options, value)
}

// SlotEdit is a request to place value into one grid slot.
type SlotEdit struct {
	Day   string `json:"day" form:"day" validate:"required,oneof=monday tuesday wednesday thursday friday"`
	Index *int   `json:"index" form:"index" validate:"required,min=0,max=4"`
	Value string `json:"value" form:"value" validate:"max=64"`
}
