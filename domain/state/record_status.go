package state

// Statuses of product and price rows. Rows written before statuses existed carry StatusNone.
const (
	StatusNone     = ""
	StatusAdded    = "added"
	StatusEdited   = "edited"
	StatusDeleted  = "deleted"
	StatusRestored = "restored"
)

var (
	none     = State{Name: StatusNone}
	added    = State{Name: StatusAdded}
	edited   = State{Name: StatusEdited}
	deleted  = State{Name: StatusDeleted}
	restored = State{Name: StatusRestored}

	// RecordLifecycle has no transition out of restored.
	RecordLifecycle = NewStateMachine(
		[]State{none, added, edited, deleted, restored},
		[]Transition{
			{Name: "edit", From: none, To: edited},
			{Name: "edit", From: added, To: edited},
			{Name: "edit", From: edited, To: edited},
			{Name: "delete", From: none, To: deleted},
			{Name: "delete", From: added, To: deleted},
			{Name: "delete", From: edited, To: deleted},
			{Name: "restore", From: deleted, To: restored},
		})
)

// StatusAfterEdit returns the status of a row after its fields changed. Restored rows keep
// their status.
func StatusAfterEdit(current string) (string, error) {
	if current == StatusRestored {
		return StatusRestored, nil
	}
	if _, err := RecordLifecycle.Transit(current, StatusEdited); err != nil {
		return "", err
	}
	return StatusEdited, nil
}

func Visible(status string) bool {
	return status != StatusDeleted
}
