package model

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Question is a bank or generated question, answer key included.
// Never sent to the client as-is; use Public() for transmission.
type Question struct {
	ID      int      `json:"id" bson:"_id"`
	Text    string   `json:"text" bson:"text"`
	Options []string `json:"options" bson:"options"`
	Correct int      `json:"correct" bson:"correct"` // index into Options
}

// PublicQuestion is the client-facing view with the answer key stripped.
type PublicQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Public returns the transmitted representation of the question.
func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:       q.ID,
		Question: q.Text,
		Options:  q.Options,
	}
}
