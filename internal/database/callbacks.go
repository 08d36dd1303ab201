package database

import (
	"reflect"

	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
)

// RegisterCallbacks installs the normalization pass that runs before every
// struct-based create and update, so no write path can skip it.
func RegisterCallbacks(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("app:normalize_create", normalize); err != nil {
		return err
	}
	return db.Callback().Update().Before("gorm:update").Register("app:normalize_update", normalize)
}

func normalize(tx *gorm.DB) {
	if tx.Statement == nil || tx.Statement.Schema == nil {
		return
	}

	rv := tx.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			normalizeValue(rv.Index(i))
		}
	case reflect.Struct:
		normalizeValue(rv)
	}
}

func normalizeValue(v reflect.Value) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	if !v.CanAddr() {
		return
	}
	if n, ok := v.Addr().Interface().(models.Normalizer); ok {
		n.Normalize()
	}
}
