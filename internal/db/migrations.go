package db

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateReservedColumns — разовая миграция старой схемы:
// user_parameters.key -> user_parameters.param_key ("key" зарезервировано
// в MySQL/MariaDB).
func MigrateReservedColumns(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	dialect := db.Dialector.Name()

	if !db.Migrator().HasTable("user_parameters") {
		return nil
	}
	hasOld := db.Migrator().HasColumn("user_parameters", "key")
	hasNew := db.Migrator().HasColumn("user_parameters", "param_key")
	if hasOld && !hasNew {
		if err := db.Migrator().RenameColumn("user_parameters", "key", "param_key"); err != nil {
			var e error
			switch dialect {
			case "mysql":
				e = db.Exec("ALTER TABLE `user_parameters` CHANGE COLUMN `key` `param_key` varchar(255) NOT NULL").Error
			case "postgres":
				e = db.Exec(`ALTER TABLE "user_parameters" RENAME COLUMN "key" TO "param_key"`).Error
			default:
				e = err
			}
			if e != nil {
				return fmt.Errorf("rename user_parameters.key -> param_key: %w", e)
			}
		}
	}
	return nil
}
