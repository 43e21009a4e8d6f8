package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ReadSheet Phase = iota
	ListItems
	DeleteItems
	InsertItems
	Done
)

func (p Phase) String() string {
	switch p {
	case ReadSheet:
		return "read_sheet"
	case ListItems:
		return "list_items"
	case DeleteItems:
		return "delete_items"
	case InsertItems:
		return "insert_items"
	case Done:
		return "done"
	default:
		return ""
	}
}

func readSheetUpdate(found, skipped int) ProgressUpdate {
	msg := fmt.Sprintf("Found %d videos in the sheet", found)
	if skipped > 0 {
		msg = fmt.Sprintf("%s (%d links skipped)", msg, skipped)
	}
	return ProgressUpdate{Phase: ReadSheet, Step: 1, Total: 1, Message: msg}
}

func listPageUpdate(page, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListItems,
		Step:    page,
		Message: fmt.Sprintf("Listing playlist items (page %d, %d so far)...", page, items),
	}
}

func deleteItemUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing playlist item", step, total),
	}
}

func insertItemUpdate(step, total int, videoID string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   InsertItems,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, videoID, err),
			Data:    videoID,
		}
	}
	return ProgressUpdate{
		Phase:   InsertItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, videoID),
		Data:    videoID,
	}
}

func doneUpdate(deleted, added, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist synced: %d removed, %d/%d added", deleted, added, total),
	}
}
