package httputil

import (
	"net/url"
	"reflect"
)

// GetURLFields returns the names of all filter struct fields that are set
// in the query string.
//
// The first return value contains the fields that are used as direct gorm
// query conditions, the second one all set fields. The struct tag
// filterField:"false" marks fields that are processed by explicit logic in
// the controller instead of being passed to gorm directly.
func GetURLFields(url *url.URL, filter any) ([]any, []string) {
	var queryFields []any
	var setFields []string

	val := reflect.Indirect(reflect.ValueOf(filter))
	for i := 0; i < val.NumField(); i++ {
		field := val.Type().Field(i).Name
		param := val.Type().Field(i).Tag.Get("form")
		filterField := val.Type().Field(i).Tag.Get("filterField")

		if url.Query().Has(param) {
			setFields = append(setFields, field)

			if filterField != "false" {
				queryFields = append(queryFields, field)
			}
		}
	}

	return queryFields, setFields
}
