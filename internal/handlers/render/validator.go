package render

import (
	"reflect"
	"strings"
)

// useJSONTagNames makes validation errors report the json field name
// instead of the Go struct field name.
// Look at documentation of 'RegisterTagNameFunc' for more details
func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}
