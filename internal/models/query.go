package models

import (
	"time"
)

// QueryRecord 问答记录表
type QueryRecord struct {
	ID              uint      `gorm:"primaryKey;column:id" json:"id"`
	UserID          string    `gorm:"column:user_id;size:100;index" json:"user_id"` // 员工ID或会话ID
	Question        string    `gorm:"type:text;not null" json:"question"`
	Answer          string    `gorm:"type:text" json:"answer"`
	ConfidenceScore float64   `gorm:"column:confidence_score" json:"confidence_score"`
	ResponseTimeMs  int       `gorm:"column:response_time_ms" json:"response_time_ms"`
	CreateTime      time.Time `gorm:"column:create_time;autoCreateTime;index" json:"create_time"`

	Feedback       []QueryFeedback `gorm:"foreignKey:QueryID" json:"feedback,omitempty"`
	SuggestedForms []QueryForm     `gorm:"foreignKey:QueryID" json:"suggested_forms,omitempty"`
}

func (QueryRecord) TableName() string {
	return "query_record"
}

// QueryFeedback 问答反馈表
type QueryFeedback struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	QueryID    uint      `gorm:"column:query_id;not null;index" json:"query_id"`
	Rating     int       `gorm:"column:rating" json:"rating"` // 1-5
	IsHelpful  bool      `gorm:"column:is_helpful" json:"is_helpful"`
	Comments   string    `gorm:"type:text" json:"comments"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`

	Query QueryRecord `gorm:"foreignKey:QueryID" json:"-"`
}

func (QueryFeedback) TableName() string {
	return "query_feedback"
}

// QueryForm 问答推荐表单记录表
type QueryForm struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	QueryID        uint      `gorm:"column:query_id;not null;index" json:"query_id"`
	FormID         uint      `gorm:"column:form_id;not null" json:"form_id"`
	RelevanceScore float64   `gorm:"column:relevance_score" json:"relevance_score"`
	CreateTime     time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`

	Query QueryRecord `gorm:"foreignKey:QueryID" json:"-"`
	Form  Form        `gorm:"foreignKey:FormID" json:"-"`
}

func (QueryForm) TableName() string {
	return "query_form"
}
