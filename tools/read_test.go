package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/kepler-labs/filedex/contentsearch"
)

func newTestReadHandler(t *testing.T) *ReadHandler {
	t.Helper()
	ci, err := contentsearch.New()
	if err != nil {
		t.Fatalf("failed to create content index: %v", err)
	}

	return &ReadHandler{
		ContentIndex: ci,
		Logger:       zerolog.Nop(),
	}
}

func Test_ReadHandler_EmptyFilePath(t *testing.T) {
	h := newTestReadHandler(t)

	result, _, err := h.Handle(context.Background(), nil, ReadArgs{FilePath: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for empty filePath")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "filePath parameter is required") {
		t.Errorf("expected error message about empty filePath, got: %s", text)
	}
}

func Test_ReadHandler_FileNotFound(t *testing.T) {
	h := newTestReadHandler(t)

	result, _, err := h.Handle(context.Background(), nil, ReadArgs{FilePath: "nonexistent.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for missing file")
	}

	text := result.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "File not found") {
		t.Errorf("expected 'File not found' message, got: %s", text)
	}
}

func Test_ReadHandler_Success(t *testing.T) {
	h := newTestReadHandler(t)

	fileContent := "package main\n\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n"
	if err := h.ContentIndex.IndexFile("main.go", "/project/main.go", fileContent, "Go", time.Now()); err != nil {
		t.Fatalf("failed to index file: %v", err)
	}

	result, _, err := h.Handle(context.Background(), nil, ReadArgs{FilePath: "main.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := result.Content[0].(*mcp.TextContent).Text

	if !strings.Contains(text, "1│ package main") {
		t.Errorf("expected line-numbered content, got:\n%s", text)
	}
	if !strings.Contains(text, "hello") {
		t.Errorf("expected content with 'hello', got:\n%s", text)
	}
}
