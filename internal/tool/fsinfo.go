package tool

import (
	"context"
	"os"

	"coderd/internal/domain"
)

// --- ListDirTool ---

// ListDirTool lists the entry names of a directory.
type ListDirTool struct{}

func NewListDirTool() *ListDirTool { return &ListDirTool{} }

func (t *ListDirTool) Name() string        { return "list_directory" }
func (t *ListDirTool) Description() string { return "List the contents of a directory." }
func (t *ListDirTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "directory", Type: "string", Description: "Directory to list (defaults to the current directory)", Default: "."},
	}
}

func (t *ListDirTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	dir := ArgsString(args, "directory")
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindIOFailure, "list directory: %v", err), map[string]any{"contents": []string{}})
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return domain.Success(map[string]any{"contents": names})
}

// --- FileInfoTool ---

// FileInfoTool reports size, timestamps and type of a path.
type FileInfoTool struct{}

func NewFileInfoTool() *FileInfoTool { return &FileInfoTool{} }

func (t *FileInfoTool) Name() string { return "get_file_info" }
func (t *FileInfoTool) Description() string {
	return "Get metadata about a file or directory: size, timestamps, and type."
}
func (t *FileInfoTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "file_path", Type: "string", Description: "Path to inspect", Required: true},
	}
}

func (t *FileInfoTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	path := ArgsString(args, "file_path")
	fi, err := os.Stat(path)
	if err != nil {
		return domain.Failure(domain.Errf(domain.KindIOFailure, "stat: %v", err), map[string]any{"info": map[string]any{}})
	}
	modified, created := fileTimes(fi)
	return domain.Success(map[string]any{
		"info": map[string]any{
			"size":          fi.Size(),
			"modified_time": modified,
			"created_time":  created,
			"is_directory":  fi.IsDir(),
			"is_file":       fi.Mode().IsRegular(),
		},
	})
}

// --- MkdirTool ---

// MkdirTool creates a directory, including missing parents.
type MkdirTool struct{}

func NewMkdirTool() *MkdirTool { return &MkdirTool{} }

func (t *MkdirTool) Name() string { return "create_directory" }
func (t *MkdirTool) Description() string {
	return "Create a directory, including any missing parents. Succeeds if it already exists."
}
func (t *MkdirTool) Params() []domain.ParamSpec {
	return []domain.ParamSpec{
		{Name: "directory_path", Type: "string", Description: "Directory path to create", Required: true},
	}
}

func (t *MkdirTool) Execute(ctx context.Context, args map[string]any) domain.Envelope {
	path := ArgsString(args, "directory_path")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return domain.Failure(domain.Errf(domain.KindIOFailure, "create directory: %v", err), nil)
	}
	return domain.Success(nil)
}

// Compile-time interface checks.
var (
	_ domain.Tool = (*ListDirTool)(nil)
	_ domain.Tool = (*FileInfoTool)(nil)
	_ domain.Tool = (*MkdirTool)(nil)
)
