package models

import (
	"time"
)

// User 员工用户表
type User struct {
	ID         uint       `gorm:"primaryKey;column:id" json:"id"`
	EmployeeID string     `gorm:"column:employee_id;size:100;uniqueIndex;not null" json:"employee_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Email      string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"size:255;not null" json:"-"`
	Department string     `gorm:"size:100" json:"department"`
	Role       string     `gorm:"size:100;default:employee" json:"role"` // employee/hr/admin
	IsActive   bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreateTime time.Time  `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	LastLogin  *time.Time `gorm:"column:last_login" json:"last_login"`
}

func (User) TableName() string {
	return "user"
}
