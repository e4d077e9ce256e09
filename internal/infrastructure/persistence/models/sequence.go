package models

// DocumentSequenceModel holds the last number handed out per family and
// scope. Scope is the two-digit year for receipts and empty otherwise.
type DocumentSequenceModel struct {
	Family    string `gorm:"type:varchar(10);primaryKey"`
	Scope     string `gorm:"type:varchar(4);primaryKey"`
	LastValue int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
