package receipt

import (
	"errors"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
)

// State is a position in the capture-to-expense workflow.
type State int

const (
	Idle State = iota
	FileSelected
	Extracting
	Extracted
	Saving
	Saved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file_selected"
	case Extracting:
		return "extracting"
	case Extracted:
		return "extracted"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Step identifies which remote call a Failed state came from.
type Step int

const (
	StepNone Step = iota
	StepExtraction
	StepCommit
)

func (s Step) String() string {
	switch s {
	case StepExtraction:
		return "extraction"
	case StepCommit:
		return "commit"
	}
	return "none"
}

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrStale is returned to the caller whose response arrived after the
	// workflow had been reset or given a new file. The response is dropped.
	ErrStale = errors.New("response superseded by a newer workflow action")
)

// File is a captured receipt image or PDF.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FileInfo describes the selected file without exposing its bytes.
type FileInfo struct {
	Name       string
	MIMEType   string
	Size       int
	PreviewRef string
}

// Snapshot is an immutable view of the workflow handed to observers.
type Snapshot struct {
	State State
	File  *FileInfo
	// Draft is a copy of the editable extraction. Present in Extracted,
	// Saving and after a failed commit.
	Draft *core.ReceiptExtraction
	// Saved is the stored expense once State is Saved.
	Saved *core.Expense
	// FailedStep and Message are set in the Failed state.
	FailedStep Step
	Message    string
	Err        error
}

// Observer receives every state change.
type Observer func(Snapshot)
