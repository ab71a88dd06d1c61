package models

import "time"

// RoleName enumerates the RBAC roles.
type RoleName string

const (
	RoleAdmin      RoleName = "admin"
	RoleDispatcher RoleName = "dispatcher"
	RoleViewer     RoleName = "viewer"
)

// User represents an authenticated account.
type User struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Email     string `gorm:"uniqueIndex"`
	Password  string
	Role      RoleName `gorm:"type:varchar(16)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Installer is a member of the installation workforce.
type Installer struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"index"`
	Email     string `gorm:"uniqueIndex"`
	Phone     string `gorm:"type:varchar(32)"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobStatus tracks a job through its booking lifecycle.
type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is one on-site installation booking. Its slice set is derived data:
// whenever the start, labor total, installer set, or overrides change, the
// slices are discarded and fully regenerated.
type Job struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Customer      string `gorm:"index"`
	SiteAddress   string `gorm:"type:text"`
	Description   string `gorm:"type:text"`
	RequestedStart time.Time `gorm:"index"`
	TotalManHours float64
	Status        JobStatus `gorm:"type:varchar(16);index"`

	// Overrides actually requested for this booking.
	OverrideCoreHours    bool
	OverrideDailyLimit   bool
	OverrideAvailability bool

	// Shift report from the last scheduling pass.
	Shifted        bool
	ShiftReason    string    `gorm:"type:varchar(16)"`
	EffectiveStart time.Time

	Assignments []JobAssignment `gorm:"foreignKey:JobID"`
	Slices      []Slice         `gorm:"foreignKey:JobID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobAssignment joins jobs to the installers working them.
type JobAssignment struct {
	JobID       string `gorm:"type:uuid;primaryKey"`
	InstallerID string `gorm:"type:uuid;primaryKey;index"`
}

// Slice is one persisted single-day working block of a job. The same block
// applies to every installer assigned to the job.
type Slice struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	JobID             string `gorm:"type:uuid;index"`
	SliceIndex        int
	StartsAt          time.Time `gorm:"index"`
	Hours             float64
	PartIndex         int
	PartsTotal        int
	RemainingManHours float64
	CreatedAt         time.Time
}

// EndsAt returns the block end timestamp.
func (s Slice) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.Hours * float64(time.Hour)))
}
