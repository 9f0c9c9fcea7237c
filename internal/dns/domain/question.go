package domain

// Question represents one entry of the question section of a DNS message.
type Question struct {
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion constructs an Internet-class Question.
func NewQuestion(name string, rrtype RRType) Question {
	return Question{
		Name:  name,
		Type:  rrtype,
		Class: RRClassIN,
	}
}
