package chat

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultModel = "gpt-3.5-turbo"
)

type Session struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID   string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID      string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	ModelUsed   string    `gorm:"type:varchar(64);not null" json:"model_used"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `gorm:"index" json:"last_updated"`
}

func (Session) TableName() string { return "chat_sessions" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string    `gorm:"type:varchar(26);not null;index:idx_chat_msg_session_id" json:"session_id"`
	UserID    string    `gorm:"type:varchar(64);not null" json:"user_id"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ModelUsed string    `gorm:"type:varchar(64);not null" json:"model_used"`
	CreatedAt time.Time `json:"timestamp"`
}

func (Message) TableName() string { return "chat_messages" }

// SummaryRecord is one analyzed upload. The summary fields are flattened
// onto the row.
type SummaryRecord struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID      string `gorm:"type:varchar(64);index;not null" json:"user_id"`
	FileName    string `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `gorm:"type:varchar(128)" json:"content_type"`

	UserName      string    `gorm:"type:varchar(255)" json:"user_name"`
	InputSummary  string    `gorm:"type:text" json:"input_summary"`
	ClientName    string    `gorm:"type:varchar(255)" json:"client_name"`
	ClientRegion  string    `gorm:"type:varchar(255)" json:"client_region"`
	Vertical      string    `gorm:"type:varchar(255)" json:"vertical"`
	Feedback      string    `gorm:"type:varchar(32)" json:"feedback"`
	ProjectStatus string    `gorm:"type:varchar(32)" json:"project_status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (SummaryRecord) TableName() string { return "file_summaries" }
