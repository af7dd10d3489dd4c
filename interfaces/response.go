package interfaces

// Attribute is a key/value pair in an action record.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the action record returned by a successful mutating request.
type Response struct {
	Contract   string      `json:"contract,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

// NewResponse starts an action record with the "action" attribute set.
func NewResponse(action string) *Response {
	return &Response{Attributes: []Attribute{{Key: "action", Value: action}}}
}

// AddAttribute appends an attribute and returns the response for chaining.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the first value recorded under key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Action returns the "action" attribute.
func (r *Response) Action() string {
	v, _ := r.Attribute("action")
	return v
}
