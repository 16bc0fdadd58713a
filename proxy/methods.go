package proxy

import (
	"fmt"
	"strings"
)

// Method is one of the HTTP methods a route can accept.
type Method string

const (
	MethodDelete  Method = "DELETE"
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodPatch   Method = "PATCH"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
)

// AllMethods contains every supported method, in a fixed order.
var AllMethods = []Method{
	MethodDelete,
	MethodGet,
	MethodHead,
	MethodOptions,
	MethodPatch,
	MethodPost,
	MethodPut,
}

// ParseMethod maps a case-insensitive method name to a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToUpper(name))
	for i := range AllMethods {
		if AllMethods[i] == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown HTTP method: %s", name)
}
