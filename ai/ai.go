package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Service wraps the Gemini client behind the handful of assistant actions
// the journal exposes.
type Service struct {
	client *genai.Client
	model  string
}

// New initializes the Gemini client. model falls back to gemini-1.5-flash.
func New(ctx context.Context, apiKey, model string) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Service{client: client, model: model}, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}

// generate sends a single prompt and returns concatenated text parts.
func (s *Service) generate(ctx context.Context, system, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty model response")
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

// Suggest continues a partially written journal entry in the author's voice.
func (s *Service) Suggest(ctx context.Context, content string) (string, error) {
	return s.generate(ctx,
		"You continue a developer's journal entry. Reply with the continuation text only, one or two sentences, matching the author's tone.",
		content)
}

// Summarize produces a short summary of an entry.
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	return s.generate(ctx,
		"Summarize the following developer journal entry in two or three sentences.",
		content)
}

// ImproveWriting rewrites text for clarity while keeping its meaning.
func (s *Service) ImproveWriting(ctx context.Context, content string) (string, error) {
	return s.generate(ctx,
		"Improve the clarity, grammar and flow of the following text. Keep the author's meaning and voice. Reply with the improved text only.",
		content)
}

// ReviewCode reviews a code snippet and points out concrete problems.
func (s *Service) ReviewCode(ctx context.Context, code, language string) (string, error) {
	if language == "" {
		language = "the given language"
	}
	return s.generate(ctx,
		"You are an experienced software engineer doing a code review. Point out bugs, style issues and improvements with short explanations.",
		fmt.Sprintf("Review this %s code:\n\n%s", language, code))
}

// GenerateCode produces a code snippet for a natural language request.
func (s *Service) GenerateCode(ctx context.Context, request, language string) (string, error) {
	if language == "" {
		language = "an appropriate language"
	}
	return s.generate(ctx,
		"Generate working, idiomatic code for the request. Reply with the code and a brief usage note.",
		fmt.Sprintf("In %s: %s", language, request))
}

// MindMapOutline turns a topic into an indented outline suitable for the
// mind map parser: one item per line, two spaces of indentation per level.
func (s *Service) MindMapOutline(ctx context.Context, topic string) (string, error) {
	return s.generate(ctx,
		"Produce a plain text outline for a mind map about the topic. One item per line, indent child items with two spaces per level, no bullets or numbering, at most three levels.",
		topic)
}

// ChatMessage is one turn of a conversation. Role is "user" or
// "assistant"; anything else is treated as "user".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat answers the latest message of a programming conversation, feeding
// the earlier turns to the model as chat history.
func (s *Service) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("empty conversation")
	}

	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text("You are a helpful programming assistant for a developer journaling community. Answer concisely and prefer concrete examples.")},
	}

	session := model.StartChat()
	session.History = chatHistory(messages[:len(messages)-1])

	res, err := session.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty model response")
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func chatHistory(messages []ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" || m.Role == "model" {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history
}

// JournalPrompt suggests something to write about today.
func (s *Service) JournalPrompt(ctx context.Context) (string, error) {
	return s.generate(ctx,
		"Suggest a single reflective journaling prompt for a software developer. Reply with the prompt only.",
		"Give me a journal prompt for today.")
}
