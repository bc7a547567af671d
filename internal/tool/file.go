package tool

import (
	"context"
	"os"

	"coderd/internal/domain"
)

// --- ReadFileTool ---

// ReadFileTool returns the contents of a file as text.
type ReadFileTool struct{}

func NewReadFileTool() *ReadFileTool { return &ReadFileTool{} }

func (t *ReadFileTool) Name() string        { return "read_file_content" }
func (t *ReadFileTool) Description() string { return "Read the contents of a file." }
func (t *ReadFileTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "file_path", Type: "string", Description: "Path to the file to read", Required: true},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	path := ArgsString(args, "file_path")
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindIOFailure, "read file: %v", err), map[string]any{"content": ""})
	}
	return domain.Success(map[string]any{"content": string(data)})
}

// --- WriteFileTool ---

// WriteFileTool writes content to a file, overwriting or appending
// depending on mode.
type WriteFileTool struct{}

func NewWriteFileTool() *WriteFileTool { return &WriteFileTool{} }

func (t *WriteFileTool) Name() string { return "write_file_content" }
func (t *WriteFileTool) Description() string {
	return "Write content to a file. Mode 'w' overwrites, 'a' appends."
}
func (t *WriteFileTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "file_path", Type: "string", Description: "Path to the file to write", Required: true},
		{Name: "content", Type: "string", Description: "Content to write to the file", Required: true},
		{Name: "mode", Type: "string", Description: "Write mode: 'w' to overwrite, 'a' to append", Default: "w"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	path := ArgsString(args, "file_path")
	content := ArgsString(args, "content")
	mode := ArgsString(args, "mode")
	if mode == "" {
		mode = "w"
	}
	if err := writeFile(path, content, mode); err != nil {
		return domain.Failure(err, nil)
	}
	return domain.Success(nil)
}

// --- AppendFileTool ---

// AppendFileTool appends content to a file, creating it if absent.
type AppendFileTool struct{}

func NewAppendFileTool() *AppendFileTool { return &AppendFileTool{} }

func (t *AppendFileTool) Name() string { return "append_to_file" }
func (t *AppendFileTool) Description() string {
	return "Append content to a file, creating it if it does not exist."
}
func (t *AppendFileTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "file_path", Type: "string", Description: "Path to the file to append to", Required: true},
		{Name: "content", Type: "string", Description: "Content to append", Required: true},
	}
}

func (t *AppendFileTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	if err := writeFile(ArgsString(args, "file_path"), ArgsString(args, "content"), "a"); err != nil {
		return domain.Failure(err, nil)
	}
	return domain.Success(nil)
}

// writeFile opens path in the requested mode and writes content. Parent
// directories are not created; a missing parent is an I/O failure.
func writeFile(path, content, mode string) error {
	var flags int
	switch mode {
	case "w":
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return domain.Errf(domain.KindIOFailure, "invalid mode %q: want \"w\" or \"a\"", mode)
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return domain.Errf(domain.KindIOFailure, "open file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return domain.Errf(domain.KindIOFailure, "write file: %v", err)
	}
	if err := f.Close(); err != nil {
		return domain.Errf(domain.KindIOFailure, "close file: %v", err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ domain.Tool = (*ReadFileTool)(nil)
	_ domain.Tool = (*WriteFileTool)(nil)
	_ domain.Tool = (*AppendFileTool)(nil)
)
