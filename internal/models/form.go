package models

import (
	"time"
)

// Form HR表单表
type Form struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	FilePath    string    `gorm:"column:file_path;size:500" json:"file_path"`
	FileURL     string    `gorm:"column:file_url;size:500" json:"file_url"`
	Category    string    `gorm:"size:100;not null;index" json:"category"`
	IsActive    bool      `gorm:"column:is_active;default:true;index" json:"is_active"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime  time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`

	PolicyForms []PolicyForm `gorm:"foreignKey:FormID" json:"policy_forms,omitempty"`
}

func (Form) TableName() string {
	return "form"
}
