package model

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
	"github.com/siherrmann/modmuse/helper"
)

// Keywords is an ordered list of keyword tags stored as a JSONB array.
type Keywords []string

// Value implements the driver.Valuer interface for database storage
func (k Keywords) Value() (driver.Value, error) {
	return k.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (k *Keywords) Scan(value interface{}) error {
	return k.Unmarshal(value)
}

// Marshal converts Keywords to JSON bytes. A nil list is stored as [].
func (k Keywords) Marshal() ([]byte, error) {
	if k == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(k))
}

// Unmarshal converts JSON bytes or Keywords to Keywords
func (k *Keywords) Unmarshal(value interface{}) error {
	if value == nil {
		*k = Keywords{}
		return nil
	}

	if s, ok := value.(Keywords); ok {
		*k = s
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	var list []string
	err := json.Unmarshal(b, &list)
	if err != nil {
		return helper.NewError("unmarshal keywords", err)
	}
	if list == nil {
		list = []string{}
	}
	*k = list
	return nil
}

// Set returns the keywords as a set for membership checks.
func (k Keywords) Set() map[string]struct{} {
	set := make(map[string]struct{}, len(k))
	for _, kw := range k {
		set[kw] = struct{}{}
	}
	return set
}
