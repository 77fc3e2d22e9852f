package kafka

// ParseError reports a message that is not a valid notification event.
type ParseError struct {
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}
