package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status values.
const (
	CaseStatusDraft  = "draft"
	CaseStatusActive = "active"
	CaseStatusClosed = "closed"
)

// Evidence types.
const (
	EvidenceTypeImage = "image"
	EvidenceTypeAudio = "audio"
	EvidenceTypeText  = "text"
)

// Evidence job types and statuses.
const (
	JobTypeTranscription = "transcription"
	JobTypeOCR           = "ocr"

	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusError      = "error"
)

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Session is an opaque bearer credential stored server side. Expired rows are
// deleted the next time the token is presented, not swept in the background.
type Session struct {
	Token     string    `gorm:"primaryKey;size:64" json:"token"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type Case struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string    `gorm:"not null" json:"title"`
	Description    *string   `json:"description,omitempty"`
	PeopleInvolved *string   `json:"people_involved,omitempty"`
	Status         string    `gorm:"not null;default:draft" json:"status"`
	ShareToken     *string   `gorm:"uniqueIndex;size:64" json:"share_token,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CaseMember is the only grant of access to a case. Role is one of
// viewer|editor|owner, totally ordered.
type CaseMember struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    string    `gorm:"type:uuid;uniqueIndex:idx_case_user;not null" json:"case_id"`
	UserID    string    `gorm:"type:uuid;uniqueIndex:idx_case_user;not null" json:"user_id"`
	Role      string    `gorm:"not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *CaseMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Evidence struct {
	ID             string        `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID         string        `gorm:"type:uuid;index;not null" json:"case_id"`
	Type           string        `gorm:"not null" json:"type"`
	BlobKey        *string       `json:"blob_key,omitempty"`
	BlobURL        *string       `json:"blob_url,omitempty"`
	FileName       *string       `json:"file_name,omitempty"`
	FileSize       *int64        `json:"file_size,omitempty"`
	MimeType       *string       `json:"mime_type,omitempty"`
	Source         string        `gorm:"not null;default:whatsapp" json:"source"`
	CapturedAt     *time.Time    `json:"captured_at,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
	SortOrder      int           `gorm:"not null;default:0" json:"sort_order"`
	TranscriptText *string       `json:"transcript_text,omitempty"`
	OCRText        *string       `json:"ocr_text,omitempty"`
	Jobs           []EvidenceJob `gorm:"foreignKey:EvidenceID" json:"jobs,omitempty"`
	Tags           []Tag         `gorm:"many2many:evidence_tags" json:"tags,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (e *Evidence) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EvidenceJob tracks an externally fulfilled task (transcription or OCR).
// Status transitions are driven by the worker through the API, never in process.
type EvidenceJob struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	EvidenceID   string     `gorm:"type:uuid;index;not null" json:"evidence_id"`
	JobType      string     `gorm:"not null" json:"job_type"`
	Status       string     `gorm:"not null;default:queued" json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (j *EvidenceJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

type Tag struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_case_tag_name" json:"case_id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_case_tag_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type EvidenceTag struct {
	EvidenceID string `gorm:"type:uuid;primaryKey" json:"evidence_id"`
	TagID      string `gorm:"type:uuid;primaryKey" json:"tag_id"`
}

func (EvidenceTag) TableName() string { return "evidence_tags" }

type Fact struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID      string     `gorm:"type:uuid;index;not null" json:"case_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description,omitempty"`
	Evidence    []Evidence `gorm:"many2many:fact_evidence" json:"evidence,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (f *Fact) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type FactEvidence struct {
	FactID     string `gorm:"type:uuid;primaryKey" json:"fact_id"`
	EvidenceID string `gorm:"type:uuid;primaryKey" json:"evidence_id"`
}

func (FactEvidence) TableName() string { return "fact_evidence" }

// AuditLog is append only. Nothing in the request path reads it back.
type AuditLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID string    `gorm:"type:uuid;index;not null" json:"actor_user_id"`
	CaseID      *string   `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Action      string    `gorm:"not null" json:"action"`
	TargetType  string    `gorm:"not null" json:"target_type"`
	TargetID    *string   `json:"target_id,omitempty"`
	Metadata    JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
}
