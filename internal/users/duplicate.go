package users

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlErrDuplicateEntry = 1062

// messages of the sqlite and postgres drivers for unique violations
var duplicateKeyMessages = []string{
	"UNIQUE constraint failed",
	"duplicate key value violates unique constraint",
}

// duplicateIndex returns the name of the unique index a failed insert or
// update ran into, or false when err is not a duplicate key error. The index
// name is empty when the driver does not report it.
func duplicateIndex(err error, indexes ...string) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	isDuplicate := errors.Is(err, gorm.ErrDuplicatedKey)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		isDuplicate, msg = true, mysqlErr.Message
	}
	for _, dupMsg := range duplicateKeyMessages {
		if strings.Contains(msg, dupMsg) {
			isDuplicate = true
		}
	}
	if !isDuplicate {
		return "", false
	}
	for _, idx := range indexes {
		if strings.Contains(msg, idx) {
			return idx, true
		}
	}
	return "", true
}
