package Models

import (
	"fmt"

	"gorm.io/gorm"
)

// Scope restricts queries to what the caller may see: admins see every row,
// doctors only rows carrying their doctor_id.
type Scope struct {
	Admin    bool
	DoctorID uint
}

func AdminScope() Scope {
	return Scope{Admin: true}
}

func DoctorScope(doctorID uint) Scope {
	return Scope{DoctorID: doctorID}
}

// DB returns a query filtered for the scope. table qualifies the column when
// the query joins other tables.
func (s Scope) DB(db *gorm.DB, table string) *gorm.DB {
	if s.Admin {
		return db
	}
	if table == "" {
		return db.Where("doctor_id = ?", s.DoctorID)
	}
	return db.Where(fmt.Sprintf("%s.doctor_id = ?", table), s.DoctorID)
}
