package database

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Queryable is the union of the sqlx methods shared by *sqlx.DB and
// *sqlx.Tx. Store methods accept this type so that callers can decide
// whether an operation participates in a transaction.
type Queryable interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	NamedExec(query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
}

// InExec is a convinience method which combines sqlx's `In` method
// and the `Exec` of the output query. Rebinding of the
// query is handled automatically, and errors resulting from
// either step will be returned.
func InExec(db Queryable, query string, arg any) error {
	if q, a, e := sqlx.In(query, arg); e == nil {
		if _, err := db.Exec(db.Rebind(q), a...); err != nil {
			return err
		}
	} else {
		return e
	}

	return nil
}

// JsonColumn is a generic wrapper which allows arbitrary Go values
// to be stored in (and read back from) JSONB columns. A column holding
// NULL, or a blob which fails to decode, scans as an absent value - the
// stored data is treated as advisory, never a reason to fail a row read.
type JsonColumn[T any] struct {
	val *T
}

func NewJsonColumn[T any](val T) JsonColumn[T] {
	return JsonColumn[T]{val: &val}
}

func (j *JsonColumn[T]) Scan(src any) error {
	if src == nil {
		j.val = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("JsonColumn cannot scan unexpected column type %T", src)
	}

	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		dbLogger.Warnf("Discarding unparseable JSON column content: %s\n", err.Error())
		j.val = nil
		return nil
	}

	j.val = &decoded
	return nil
}

func (j JsonColumn[T]) Value() (driver.Value, error) {
	if j.val == nil {
		return nil, nil
	}

	return json.Marshal(*j.val)
}

// Get returns the decoded value, or nil if the column was NULL or held
// content which could not be decoded.
func (j *JsonColumn[T]) Get() *T {
	return j.val
}
