package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/llm"
)

const validSet = `{"questions":[
	{"type":"MCQ","questionText":"Where does photosynthesis happen?","difficulty":"EASY","options":["Chloroplast","Nucleus","Ribosome","Vacuole"],"correctAnswer":"Chloroplast","explanation":"Chloroplasts hold chlorophyll.","subTopic":"Photosynthesis"},
	{"type":"SHORT","questionText":"Name the gas plants release.","difficulty":"MEDIUM","options":["ignored"],"correctAnswer":"Oxygen","explanation":"Water is split.","subTopic":"Photosynthesis"},
	{"type":"LONG","questionText":"Explain the Calvin cycle.","difficulty":"HARD","correctAnswer":"Carbon fixation...","explanation":"...","subTopic":"Calvin cycle"}
]}`

func newGenerator(responses ...llm.MockResponse) (*Generator, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return New(ai.NewGateway(mock, 0, nil), DefaultConfig()), mock
}

func TestGenerate_PreservesOrder(t *testing.T) {
	gen, mock := newGenerator(llm.MockResponse{Content: json.RawMessage(validSet)})

	qs, err := gen.Generate(context.Background(), GenerateInput{
		Content:      "Plants make sugar in chloroplasts.",
		MasteryLevel: 35,
		Topics:       []string{"Photosynthesis", "Calvin cycle"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	wantTypes := []string{TypeMCQ, TypeShort, TypeLong}
	for i, q := range qs {
		if q.Type != wantTypes[i] {
			t.Errorf("question %d: type %s, want %s", i, q.Type, wantTypes[i])
		}
	}
	if qs[1].Options != nil {
		t.Errorf("SHORT question kept options: %v", qs[1].Options)
	}

	msg := mock.Calls[0].Messages[0].Content
	for _, want := range []string{"Generate 10 exam questions", "Mastery Level: 35%", "EASY difficulty", "Topics: Photosynthesis, Calvin cycle"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerate_TruncatesToCount(t *testing.T) {
	gen, _ := newGenerator(llm.MockResponse{Content: json.RawMessage(validSet)})

	qs, err := gen.Generate(context.Background(), GenerateInput{Content: "x", Count: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
}

func TestGenerate_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "MCQ without options",
			content: `{"questions":[{"type":"MCQ","questionText":"Q?","difficulty":"EASY","correctAnswer":"A","explanation":"","subTopic":"t"}]}`,
		},
		{
			name:    "missing questionText",
			content: `{"questions":[{"type":"SHORT","difficulty":"EASY","correctAnswer":"A","explanation":"","subTopic":"t"}]}`,
		},
		{
			name:    "unknown type",
			content: `{"questions":[{"type":"ESSAY","questionText":"Q?","difficulty":"EASY","correctAnswer":"A","explanation":"","subTopic":"t"}]}`,
		},
		{
			name:    "duplicate options",
			content: `{"questions":[{"type":"MCQ","questionText":"Q?","difficulty":"EASY","options":["A","A","B","C"],"correctAnswer":"A","explanation":"","subTopic":"t"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, _ := newGenerator(llm.MockResponse{Content: json.RawMessage(tt.content)})
			_, err := gen.Generate(context.Background(), GenerateInput{Content: "x"})
			if !errors.Is(err, ai.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	gen, _ := newGenerator(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	_, err := gen.Generate(context.Background(), GenerateInput{Content: "x"})
	if !errors.Is(err, ai.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
