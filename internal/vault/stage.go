package vault

import "path/filepath"

// Stage is a task's lifecycle position. A record's presence in the stage
// directory IS its stage; moving the file is the state transition.
type Stage string

const (
	StageNeedsAction     Stage = "Needs_Action"
	StageInProgress      Stage = "In_Progress"
	StagePlan            Stage = "Plans"
	StagePendingApproval Stage = "Pending_Approval"
	StageApproved        Stage = "Approved"
	StageRejected        Stage = "Rejected"
	StageSent            Stage = "Sent"
	StageDone            Stage = "Done"
	StageLinkedInQueue   Stage = "Social/LinkedIn_Queue"
	StageLinkedInPosted  Stage = "Social/LinkedIn_Posted"
)

// Auxiliary directories that are not stages.
const (
	DirLogs      = "Logs"
	DirBriefings = "Briefings"
)

// AllStages lists every stage directory created on vault init.
var AllStages = []Stage{
	StageNeedsAction,
	StageInProgress,
	StagePlan,
	StagePendingApproval,
	StageApproved,
	StageRejected,
	StageSent,
	StageDone,
	StageLinkedInQueue,
	StageLinkedInPosted,
}

// TerminalStages are stages from which a record is never automatically moved again.
var TerminalStages = []Stage{StageDone, StageSent, StageRejected}

func (s Stage) String() string {
	return string(s)
}

// Dir returns the stage directory path under the given vault root.
func (s Stage) Dir(root string) string {
	return filepath.Join(root, filepath.FromSlash(string(s)))
}

// IsTerminal reports whether records in this stage are left alone by the engine.
func (s Stage) IsTerminal() bool {
	for _, t := range TerminalStages {
		if s == t {
			return true
		}
	}
	return false
}
