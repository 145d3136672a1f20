package models

import (
	"time"
)

// Policy 政策文档表
type Policy struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Category    string    `gorm:"size:100;not null;index" json:"category"` // PTO, Reimbursement, Travel 等
	Description string    `gorm:"type:text" json:"description"`
	Version     string    `gorm:"size:20;default:1.0" json:"version"`
	FilePath    string    `gorm:"column:file_path;size:500" json:"file_path"`
	IsActive    bool      `gorm:"column:is_active;default:true;index" json:"is_active"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime  time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`

	Chunks []PolicyChunk `gorm:"foreignKey:PolicyID" json:"chunks,omitempty"`
	Forms  []PolicyForm  `gorm:"foreignKey:PolicyID" json:"forms,omitempty"`
}

func (Policy) TableName() string {
	return "policy"
}

// PolicyChunk 政策分块表，embedding_id关联向量库主键
type PolicyChunk struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	PolicyID    uint      `gorm:"column:policy_id;not null;index" json:"policy_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Section     string    `gorm:"size:512" json:"section"`
	Subsection  string    `gorm:"size:128" json:"subsection"`
	ChunkIndex  int       `gorm:"column:chunk_index;not null" json:"chunk_index"`
	EmbeddingID string    `gorm:"column:embedding_id;size:64;index" json:"embedding_id"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`

	Policy Policy `gorm:"foreignKey:PolicyID" json:"-"`
}

func (PolicyChunk) TableName() string {
	return "policy_chunk"
}

// PolicyForm 政策与表单的关联表
type PolicyForm struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	PolicyID       uint      `gorm:"column:policy_id;not null;index" json:"policy_id"`
	FormID         uint      `gorm:"column:form_id;not null;index" json:"form_id"`
	RelevanceScore float64   `gorm:"column:relevance_score;default:1.0" json:"relevance_score"`
	CreateTime     time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`

	Policy Policy `gorm:"foreignKey:PolicyID" json:"-"`
	Form   Form   `gorm:"foreignKey:FormID" json:"-"`
}

func (PolicyForm) TableName() string {
	return "policy_form"
}
