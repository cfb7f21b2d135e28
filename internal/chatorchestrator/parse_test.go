package chatorchestrator

import "testing"

func TestRecoverAnswer_DirectJSON(t *testing.T) {
	a := recoverAnswer(`{"answer": "hello", "suggested_answer": "hi there"}`)
	if a.Answer != "hello" {
		t.Fatalf("expected direct JSON answer, got %q", a.Answer)
	}
	if a.SuggestedAnswer == nil || *a.SuggestedAnswer != "hi there" {
		t.Fatalf("expected suggested answer, got %v", a.SuggestedAnswer)
	}
}

func TestRecoverAnswer_CodeFenced(t *testing.T) {
	a := recoverAnswer("```json\n{\"answer\": \"fenced\"}\n```")
	if a.Answer != "fenced" {
		t.Fatalf("expected fenced JSON answer, got %q", a.Answer)
	}
	if a.SuggestedAnswer != nil {
		t.Fatalf("expected nil suggested answer, got %v", a.SuggestedAnswer)
	}
}

func TestRecoverAnswer_EmbeddedObject(t *testing.T) {
	a := recoverAnswer("Sure, here you go: {\"answer\": \"embedded\"} -- hope that helps")
	if a.Answer != "embedded" {
		t.Fatalf("expected embedded JSON answer, got %q", a.Answer)
	}
}

func TestRecoverAnswer_RegexFallback(t *testing.T) {
	a := recoverAnswer(`not quite json but has "answer": "regex rescued" and "suggested_answer": "also this" in it`)
	if a.Answer != "regex rescued" {
		t.Fatalf("expected regex-extracted answer, got %q", a.Answer)
	}
	if a.SuggestedAnswer == nil || *a.SuggestedAnswer != "also this" {
		t.Fatalf("expected regex-extracted suggested answer, got %v", a.SuggestedAnswer)
	}
}

func TestRecoverAnswer_PlainTextFallback(t *testing.T) {
	a := recoverAnswer("  just a plain sentence with no structure at all  ")
	if a.Answer != "just a plain sentence with no structure at all" {
		t.Fatalf("expected trimmed raw text as answer, got %q", a.Answer)
	}
	if a.SuggestedAnswer != nil {
		t.Fatalf("expected nil suggested answer for plain text, got %v", a.SuggestedAnswer)
	}
}

func TestRecoverAnswer_NestedJSONAnswerReparsed(t *testing.T) {
	a := recoverAnswer(`{"answer": "{\"answer\": \"nested\", \"suggested_answer\": \"nested-suggestion\"}"}`)
	if a.Answer != "nested" {
		t.Fatalf("expected nested JSON to be reparsed, got %q", a.Answer)
	}
	if a.SuggestedAnswer == nil || *a.SuggestedAnswer != "nested-suggestion" {
		t.Fatalf("expected nested suggested answer, got %v", a.SuggestedAnswer)
	}
}
