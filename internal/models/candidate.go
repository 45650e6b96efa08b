package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// IngestionStatus tracks how far a candidate's resume made it through
// chunking and indexing.
type IngestionStatus string

const (
	IngestionPending  IngestionStatus = "pending"
	IngestionIngested IngestionStatus = "ingested"
	IngestionFailed   IngestionStatus = "failed"
)

// Candidate is one uploaded resume. RawText keeps the extracted text so
// fact extraction can run without re-parsing the file; ProfileJSON caches
// the structured profile between evaluation runs.
type Candidate struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OriginalFileName string          `gorm:"type:varchar(255)" json:"original_file_name"`
	FilePath         string          `gorm:"type:varchar(500)" json:"file_path"`
	RawText          string          `gorm:"type:text" json:"-"`
	CharCount        int             `gorm:"default:0" json:"char_count"`
	ChunkCount       int             `gorm:"default:0" json:"chunk_count"`
	ContentHash      string          `gorm:"type:varchar(64);index" json:"-"`
	Status           IngestionStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ProfileJSON      string          `gorm:"type:text" json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// CandidateProfile is the fact sheet distilled from a resume in a single
// extraction pass.
type CandidateProfile struct {
	Skills     []string `json:"skills"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
}

// IsEmpty reports whether extraction produced no usable facts.
func (p *CandidateProfile) IsEmpty() bool {
	return p == nil || (len(p.Skills) == 0 && len(p.Experience) == 0 && len(p.Education) == 0)
}

// Profile decodes the cached profile. Returns nil when no profile has
// been stored yet.
func (c *Candidate) Profile() (*CandidateProfile, error) {
	if c.ProfileJSON == "" {
		return nil, nil
	}
	var profile CandidateProfile
	if err := json.Unmarshal([]byte(c.ProfileJSON), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetProfile stores the profile on the candidate row.
func (c *Candidate) SetProfile(profile *CandidateProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	c.ProfileJSON = string(raw)
	return nil
}
