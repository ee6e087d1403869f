package fetch

// Field is a single header name/value pair.
type Field struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields.
//
// Names are compared exactly; "Content-Type" and "content-type" are distinct
// fields. Setting an existing name overwrites its value in place, preserving
// the position of the original field.
type Header []Field

// Get returns the value of the field called name.
func (h Header) Get(name string) (string, bool) {
	for _, f := range h {
		if f.Name == name {
			return f.Value, true
		}
	}

	return "", false
}

// Set assigns value to the field called name, adding the field if it is not
// already present.
func (h *Header) Set(name, value string) {
	for i := range *h {
		if (*h)[i].Name == name {
			(*h)[i].Value = value
			return
		}
	}

	*h = append(*h, Field{name, value})
}

// Clone returns a copy of h.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}

	return append(Header(nil), h...)
}
