package fetch

import (
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil/header"
)

// responseType infers the response type from the Content-Type header.
func responseType(h http.Header) string {
	value, _ := header.ParseValueAndParams(h, "Content-Type")
	value = strings.ToLower(value)

	switch {
	case value == "application/json", strings.HasSuffix(value, "+json"):
		return RespTypeJSON
	case strings.HasPrefix(value, "text/"):
		return RespTypeText
	default:
		return RespTypeBlob
	}
}
