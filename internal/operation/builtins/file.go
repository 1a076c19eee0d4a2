// Package builtins provides the default operation handlers: file
// manipulation over an afero filesystem, shell execution, AI queries, and
// direct state-variable writes.
package builtins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/praxis-ai/praxis/internal/operation"
	"github.com/praxis-ai/praxis/internal/types"
)

// FileOperations implements the file.* handlers over an afero filesystem.
// Using afero keeps the handlers testable against an in-memory fs and lets
// deployments sandbox file access with a base-path fs.
type FileOperations struct {
	fs afero.Fs
}

// NewFileOperations creates file handlers over the given filesystem.
// Pass afero.NewOsFs() for real disk access.
func NewFileOperations(fs afero.Fs) *FileOperations {
	return &FileOperations{fs: fs}
}

// Register wires the file.* handlers into the registry.
func (f *FileOperations) Register(reg operation.Registry) error {
	handlers := map[string]operation.Handler{
		"file.create": f.Create,
		"file.read":   f.Read,
		"file.append": f.Append,
		"file.delete": f.Delete,
		"file.list":   f.List,
	}
	for opType, handler := range handlers {
		if err := reg.Register(opType, handler); err != nil {
			return err
		}
	}
	return nil
}

// Create writes content to a new file, creating parent directories.
// Parameters: filename (required), content.
func (f *FileOperations) Create(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	filename, err := stringParam(params, "filename")
	if err != nil {
		return nil, err
	}
	content, _ := params["content"].(string)

	if dir := filepath.Dir(filename); dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, types.WrapError(types.OPERATION_FAILED,
				fmt.Sprintf("failed to create directory for %q", filename), err)
		}
	}

	if err := afero.WriteFile(f.fs, filename, []byte(content), 0o644); err != nil {
		return nil, types.WrapError(types.OPERATION_FAILED,
			fmt.Sprintf("failed to write %q", filename), err)
	}

	execCtx.Logger().DebugContext(ctx, "file created", "filename", filename, "bytes", len(content))

	return &operation.Result{
		Success:     true,
		Output:      map[string]any{"filename": filename, "bytes_written": len(content)},
		SideEffects: map[string]any{"last_file": filename},
	}, nil
}

// Read returns the content of a file.
// Parameters: filename (required).
func (f *FileOperations) Read(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	filename, err := stringParam(params, "filename")
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(f.fs, filename)
	if err != nil {
		return nil, types.WrapError(types.OPERATION_FAILED,
			fmt.Sprintf("failed to read %q", filename), err)
	}

	return &operation.Result{
		Success:     true,
		Output:      map[string]any{"filename": filename, "content": string(data)},
		SideEffects: map[string]any{"last_content": string(data)},
	}, nil
}

// Append appends content to an existing or new file.
// Parameters: filename (required), content.
func (f *FileOperations) Append(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	filename, err := stringParam(params, "filename")
	if err != nil {
		return nil, err
	}
	content, _ := params["content"].(string)

	file, err := f.fs.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, types.WrapError(types.OPERATION_FAILED,
			fmt.Sprintf("failed to open %q for append", filename), err)
	}
	defer file.Close()

	n, err := file.WriteString(content)
	if err != nil {
		return nil, types.WrapError(types.OPERATION_FAILED,
			fmt.Sprintf("failed to append to %q", filename), err)
	}

	return &operation.Result{
		Success: true,
		Output:  map[string]any{"filename": filename, "bytes_written": n},
	}, nil
}

// Delete removes a file.
// Parameters: filename (required).
func (f *FileOperations) Delete(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	filename, err := stringParam(params, "filename")
	if err != nil {
		return nil, err
	}

	if err := f.fs.Remove(filename); err != nil {
		return nil, types.WrapError(types.OPERATION_FAILED,
			fmt.Sprintf("failed to delete %q", filename), err)
	}

	execCtx.Logger().InfoContext(ctx, "file deleted", "filename", filename)

	return &operation.Result{
		Success: true,
		Output:  map[string]any{"filename": filename, "deleted": true},
	}, nil
}

// List returns the entries of a directory.
// Parameters: directory (defaults to ".").
func (f *FileOperations) List(ctx context.Context, params map[string]any, execCtx *operation.Context) (*operation.Result, error) {
	directory, _ := params["directory"].(string)
	if directory == "" {
		directory = "."
	}

	infos, err := afero.ReadDir(f.fs, directory)
	if err != nil {
		return nil, types.WrapError(types.OPERATION_FAILED,
			fmt.Sprintf("failed to list %q", directory), err)
	}

	entries := make([]any, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, info.Name())
	}

	return &operation.Result{
		Success: true,
		Output:  map[string]any{"directory": directory, "entries": entries},
	}, nil
}

func stringParam(params map[string]any, key string) (string, error) {
	value, ok := params[key]
	if !ok {
		return "", types.NewError(types.OPERATION_FAILED,
			fmt.Sprintf("missing required parameter %q", key))
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", types.NewError(types.OPERATION_FAILED,
			fmt.Sprintf("parameter %q must be a non-empty string", key))
	}
	return s, nil
}
