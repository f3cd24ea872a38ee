package domain

import "time"

// ChangeOp is the structural change a watcher can subscribe to.
type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpDelete ChangeOp = "delete"
)

// Change feed row states. Delivered rows are deleted; rows that kept failing
// are parked as dead for an operator to inspect.
const (
	ChangePending = "pending"
	ChangeDead    = "dead"
)

// DocumentChange is one entry of the change feed. It is written in the same
// transaction as the create/delete it announces, and consumed at least once
// by the trigger runner.
//
// Fields:
//   - Collection / DocumentID: the record that changed.
//   - Op: create or delete.
//   - Snapshot: JSON of the record at change time (required for deletes).
//   - Attempts: how many times the change was leased to a handler.
//   - LeaseUntil: the change is invisible to other pollers until then.
type DocumentChange struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Collection string    `gorm:"type:varchar(64);not null;index:idx_changes_route,priority:1"`
	DocumentID string    `gorm:"type:varchar(64);not null"`
	Op         ChangeOp  `gorm:"type:varchar(16);not null;index:idx_changes_route,priority:2"`
	Snapshot   []byte    `gorm:"type:blob"`
	Status     string    `gorm:"type:varchar(16);not null;default:'pending';index:idx_changes_poll,priority:1"`
	Attempts   int       `gorm:"not null;default:0"`
	LeaseUntil time.Time `gorm:"not null;index:idx_changes_poll,priority:2"`
	LastError  string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the database table name for DocumentChange.
func (DocumentChange) TableName() string { return "document_changes" }
