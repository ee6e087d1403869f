package xhr

import (
	"github.com/icecave/fetchblob/fetch"
	"github.com/tidwall/gjson"
)

// decodeResponse maps the result of a transfer to the values exposed by
// ResponseText and Response.
//
// Staged payloads become a *blob.Blob and have no text. In-memory payloads are
// exposed as text, and additionally parsed when responseType is "json".
func decodeResponse(res *fetch.Result, responseType string) (text string, hasText bool, response interface{}, err error) {
	if res == nil {
		return "", true, "", nil
	}

	if res.Kind == fetch.KindPath {
		return "", false, res.Blob(), nil
	}

	text = res.Text()

	if responseType != fetch.RespTypeJSON {
		return text, true, text, nil
	}

	if !gjson.Valid(text) {
		return text, true, nil, &DecodeError{Text: text}
	}

	return text, true, gjson.Parse(text).Value(), nil
}
