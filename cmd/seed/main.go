package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sigquiz/internal/model"
)

// seedQuestion is the file format for the question bank. The correct
// answer is given as a letter (A-D) and converted to an option index.
type seedQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	path := "questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	questions, err := loadQuestions(path)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database("sigquiz")
	coll := db.Collection("questions")

	for _, q := range questions {
		if _, err := coll.InsertOne(ctx, q); err != nil {
			log.Fatalf("Failed to insert question %d: %v", q.ID, err)
		}
	}

	fmt.Printf("Seeded %d questions into the bank\n", len(questions))
}

func loadQuestions(path string) ([]*model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []seedQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	questions := make([]*model.Question, 0, len(raw))
	for i, sq := range raw {
		if len(sq.Options) != model.OptionCount {
			return nil, fmt.Errorf("question %d: expected %d options, got %d", i+1, model.OptionCount, len(sq.Options))
		}
		correct, err := answerIndex(sq.Answer)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, &model.Question{
			ID:      i + 1,
			Text:    sq.Question,
			Options: sq.Options,
			Correct: correct,
		})
	}
	return questions, nil
}

func answerIndex(answer string) (int, error) {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'D' {
		return 0, fmt.Errorf("answer must be a letter A-D, got %q", answer)
	}
	return int(letter[0] - 'A'), nil
}
