package ai

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestChatHistoryMapsRoles(t *testing.T) {
	history := chatHistory([]ChatMessage{
		{Role: "user", Content: "how do I read a file in Go?"},
		{Role: "assistant", Content: "use os.ReadFile"},
		{Role: "model", Content: "or bufio for streaming"},
		{Role: "system", Content: "unknown roles fall back to user"},
	})

	if len(history) != 4 {
		t.Fatalf("len(history) = %d, want 4", len(history))
	}
	wantRoles := []string{"user", "model", "model", "user"}
	for i, want := range wantRoles {
		if history[i].Role != want {
			t.Errorf("history[%d].Role = %q, want %q", i, history[i].Role, want)
		}
	}
	if txt, ok := history[1].Parts[0].(genai.Text); !ok || string(txt) != "use os.ReadFile" {
		t.Errorf("history[1] content = %v, want assistant text preserved", history[1].Parts[0])
	}
}

func TestChatHistoryEmpty(t *testing.T) {
	if got := chatHistory(nil); len(got) != 0 {
		t.Fatalf("chatHistory(nil) = %v, want empty", got)
	}
}
