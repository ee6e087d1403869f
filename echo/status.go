package echo

import (
	"fmt"
	"io"
	"net/http"

	"github.com/golang/gddo/httputil/header"
	"github.com/tidwall/sjson"
)

// StatusMessage returns a short, human-readable description of the given HTTP
// status code.
func StatusMessage(statusCode int) string {
	switch statusCode {
	// 4xx
	case http.StatusBadRequest:
		return "The client has sent a malformed request."
	case http.StatusUnauthorized:
		return "The client must be authenticated to use this service."
	case http.StatusForbidden:
		return "The client does not have access to this service."
	case http.StatusNotFound:
		return "The resource you've requested could not be found."
	case http.StatusMethodNotAllowed:
		return "The method is not supported by this resource."
	case http.StatusRequestTimeout:
		return "The client did not send a request in a timely manner."
	case http.StatusRequestEntityTooLarge:
		return "The client has sent a request that's too large to process."
	case http.StatusTooManyRequests:
		return "Your request has been rate-limited, please decrease the number of requests."

	// 5xx
	case http.StatusNotImplemented:
		return "The feature you've requested is not supported."
	case http.StatusBadGateway:
		return "The service you've requested could not be contacted, please try again."
	case http.StatusServiceUnavailable:
		return "The service you've requested is temporarily unavailable, please try again."
	case http.StatusGatewayTimeout:
		return "The service you've requested did not respond in a timely manner, please try again."
	}

	if 400 <= statusCode && statusCode <= 599 {
		return "We're sorry, something went wrong!"
	}

	return "That's all we know."
}

// WriteStatus writes a status page for statusCode, formatted as JSON or plain
// text according to the request's Accept header.
func WriteStatus(w http.ResponseWriter, r *http.Request, statusCode int) {
	text := http.StatusText(statusCode)
	message := StatusMessage(statusCode)

	if useJSON(r) {
		doc, _ := sjson.Set("", "code", statusCode)
		doc, _ = sjson.Set(doc, "text", text)
		doc, _ = sjson.Set(doc, "message", message)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		io.WriteString(w, doc)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, "%d %s\n\n%s\n", statusCode, text, message)
}

func useJSON(r *http.Request) bool {
	jsonQ := -1.0
	textQ := 0.0

	for _, spec := range header.ParseAccept(r.Header, "Accept") {
		switch spec.Value {
		case "application/json":
			if spec.Q > jsonQ {
				jsonQ = spec.Q
			}
		case "text/plain", "*/*":
			if spec.Q > textQ {
				textQ = spec.Q
			}
		}
	}

	return jsonQ > textQ
}
