package sqlite

import (
	"fmt"

	"github.com/loykin/sqlmigrate/internal/constants"
	"github.com/loykin/sqlmigrate/internal/util"
)

type Config struct {
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

// ToMap resolves the driver DSN. An explicit DSN wins over Path.
func (c *Config) ToMap() map[string]interface{} {
	dsn, ok := util.TrimEmptyCheck(c.DSN)
	if !ok {
		if path, hasPath := util.TrimEmptyCheck(c.Path); hasPath {
			dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&%s",
				path, constants.DefaultSQLiteBusyTimeoutMS, constants.SQLiteForeignKeysParam)
		}
	}
	return map[string]interface{}{
		"dsn": dsn,
	}
}
