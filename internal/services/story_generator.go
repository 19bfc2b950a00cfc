package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/storyloom-backend/internal/logger"
)

// StoryGenerator produces the narrative layers of a story: the book spec
// (premise + log line), the act/chapter outline, and the paragraphs of
// individual scenes.
type StoryGenerator interface {
	GenerateBookSpec(ctx context.Context, topic string) (string, error)
	GenerateOutline(ctx context.Context, bookSpec string, acts int, chaptersPerAct int) (string, error)
	GenerateScene(ctx context.Context, outline string, act int, chapter int, sceneNumber int) ([]string, error)
	GenerateChapterScenes(ctx context.Context, outline string, act int, chapter int, sceneCount int) (string, error)
}

type storyGenerator struct {
	log *logger.Logger
	ai  AIClient
}

func NewStoryGenerator(log *logger.Logger, ai AIClient) StoryGenerator {
	return &storyGenerator{
		log: log.With("service", "StoryGenerator"),
		ai:  ai,
	}
}

func (g *storyGenerator) GenerateBookSpec(ctx context.Context, topic string) (string, error) {
	g.log.Info("Generating book spec", "topic", topic)

	prompt := fmt.Sprintf("Generate a log line and characters for a story based on the topic: '%s'. "+
		"Use Blake Snyder's format: On the verge of a stasis=death moment, a flawed protagonist has a "+
		"catalyst and breaks into Act Two; but when the midpoint happens, they must learn the theme "+
		"stated, before Act Three leads to the finale where the flawed protagonist defeats (or doesn't "+
		"defeat) the antagonistic force.", topic)

	logLine, err := g.ai.Complete(ctx, "You are an expert storyteller.", prompt)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Topic: %s\nLog Line: %s", topic, logLine), nil
}

func (g *storyGenerator) GenerateOutline(ctx context.Context, bookSpec string, acts int, chaptersPerAct int) (string, error) {
	g.log.Info("Generating story outline", "acts", acts, "chapters_per_act", chaptersPerAct)

	logLine := bookSpec
	if idx := strings.Index(bookSpec, "Log Line: "); idx >= 0 {
		logLine = bookSpec[idx+len("Log Line: "):]
	}

	prompt := fmt.Sprintf(`Based on this log line: '%s', generate a detailed %d-act story structure.
Create a detailed character profile for each character in the story.
For each act, provide %d chapters, and for each chapter, provide a brief description.

Format:
Act 1: Exposition
- Chapter 1: [Brief description]
- Chapter 2: [Brief description]
(Continue for the remaining acts)`, logLine, acts, chaptersPerAct)

	return g.ai.Complete(ctx, "You are an expert story structure creator.", prompt)
}

func (g *storyGenerator) GenerateScene(ctx context.Context, outline string, act int, chapter int, sceneNumber int) ([]string, error) {
	g.log.Info("Generating scene", "act", act, "chapter", chapter, "scene_number", sceneNumber)

	prompt := fmt.Sprintf(`Based on this story structure:
%s

Generate a detailed scene for Act %d, Chapter %d, Scene %d.
Include:
1. Vivid description of the setting
2. Character interactions and dialogue
3. Conflict or tension in the scene
4. How this scene advances the overall plot

Aim for 3-5 paragraphs of engaging, show-don't-tell storytelling.`, outline, act, chapter, sceneNumber)

	text, err := g.ai.Complete(ctx, "You are an expert storyteller.", prompt)
	if err != nil {
		return nil, err
	}

	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: scene text split into zero paragraphs", ErrEmptyGeneration)
	}

	g.log.Info("Scene generated", "act", act, "chapter", chapter, "scene_number", sceneNumber, "paragraphs", len(paragraphs))
	return paragraphs, nil
}

func (g *storyGenerator) GenerateChapterScenes(ctx context.Context, outline string, act int, chapter int, sceneCount int) (string, error) {
	g.log.Info("Generating chapter scene preview", "act", act, "chapter", chapter)

	prompt := fmt.Sprintf(`Based on this story structure:
%s

Generate %d detailed scenes for Act %d, Chapter %d.
For each scene, provide:
1. Scene setting
2. Characters involved
3. Main action or conflict
4. Outcome or cliffhanger

Format:
Scene 1:
[Scene details]

Scene 2:
[Scene details]`, outline, sceneCount, act, chapter)

	return g.ai.Complete(ctx, "You are an expert storyteller.", prompt)
}

// SplitParagraphs breaks completion text on blank lines and drops empties.
func SplitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	chunks := strings.Split(normalized, "\n\n")
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		trimmed := strings.TrimSpace(c)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
