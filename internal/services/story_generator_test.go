package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeAIClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeAIClient) Complete(ctx context.Context, system string, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSplitParagraphs(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph.\r\n\r\n\n\nThird."
	got := SplitParagraphs(text)
	if len(got) != 3 {
		t.Fatalf("paragraphs: want=3 got=%d (%v)", len(got), got)
	}
	if got[0] != "First paragraph." {
		t.Fatalf("first: want=%q got=%q", "First paragraph.", got[0])
	}
	if got[2] != "Third." {
		t.Fatalf("third: want=%q got=%q", "Third.", got[2])
	}
}

func TestSplitParagraphsAllWhitespace(t *testing.T) {
	got := SplitParagraphs("  \n\n\t\n\n ")
	if len(got) != 0 {
		t.Fatalf("paragraphs: want=0 got=%d", len(got))
	}
}

func TestGenerateBookSpecIncludesTopicAndLogLine(t *testing.T) {
	ai := &fakeAIClient{response: "A hero rises."}
	gen := NewStoryGenerator(newTestLogger(t), ai)

	spec, err := gen.GenerateBookSpec(context.Background(), "space whales")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(spec, "Topic: space whales\n") {
		t.Fatalf("spec missing topic prefix: %q", spec)
	}
	if !strings.Contains(spec, "Log Line: A hero rises.") {
		t.Fatalf("spec missing log line: %q", spec)
	}
	if len(ai.prompts) != 1 || !strings.Contains(ai.prompts[0], "space whales") {
		t.Fatalf("prompt did not carry the topic: %v", ai.prompts)
	}
}

func TestGenerateOutlineStripsBookSpecPrefix(t *testing.T) {
	ai := &fakeAIClient{response: "Act 1: ..."}
	gen := NewStoryGenerator(newTestLogger(t), ai)

	_, err := gen.GenerateOutline(context.Background(), "Topic: x\nLog Line: the actual line", 5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(ai.prompts[0], "'the actual line'") {
		t.Fatalf("outline prompt should embed only the log line: %q", ai.prompts[0])
	}
	if strings.Contains(ai.prompts[0], "Topic: x") {
		t.Fatalf("outline prompt should not embed the topic header: %q", ai.prompts[0])
	}
}

func TestGenerateSceneSplitsIntoParagraphs(t *testing.T) {
	ai := &fakeAIClient{response: "Para one.\n\nPara two.\n\nPara three."}
	gen := NewStoryGenerator(newTestLogger(t), ai)

	paragraphs, err := gen.GenerateScene(context.Background(), "outline", 1, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paragraphs) != 3 {
		t.Fatalf("paragraphs: want=3 got=%d", len(paragraphs))
	}
	if !strings.Contains(ai.prompts[0], "Act 1, Chapter 2, Scene 3") {
		t.Fatalf("scene prompt missing slot: %q", ai.prompts[0])
	}
}

func TestGenerateSceneEmptyCompletion(t *testing.T) {
	ai := &fakeAIClient{response: "\n\n  \n\n"}
	gen := NewStoryGenerator(newTestLogger(t), ai)

	_, err := gen.GenerateScene(context.Background(), "outline", 1, 1, 1)
	if !errors.Is(err, ErrEmptyGeneration) {
		t.Fatalf("want ErrEmptyGeneration, got=%v", err)
	}
}

func TestGenerateScenePropagatesProviderError(t *testing.T) {
	ai := &fakeAIClient{err: ErrProvider}
	gen := NewStoryGenerator(newTestLogger(t), ai)

	_, err := gen.GenerateScene(context.Background(), "outline", 1, 1, 1)
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("want ErrProvider, got=%v", err)
	}
}
