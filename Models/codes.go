package Models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DoctorPrefix      = "DOC"
	PatientPrefix     = "P"
	CephalogramPrefix = "C"
)

// FormatCode renders the public identifier for a primary key, e.g. DOC001.
func FormatCode(prefix string, id uint) string {
	return fmt.Sprintf("%s%03d", prefix, id)
}

// placeholderCode keeps the unique index satisfied between INSERT and the
// AfterCreate rewrite.
func placeholderCode() string {
	return "tmp-" + uuid.NewString()
}

// assignCode derives the code from the primary key inside the creating
// transaction, so concurrent inserts can never produce the same code.
func assignCode(tx *gorm.DB, model interface{}, prefix string, id uint, code *string) error {
	*code = FormatCode(prefix, id)
	return tx.Model(model).UpdateColumn("code", *code).Error
}
