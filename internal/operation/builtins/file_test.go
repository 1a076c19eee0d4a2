package builtins

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-ai/praxis/internal/operation"
)

func testCtx() *operation.Context {
	return operation.NewContext("plan-1", "step-1", nil, nil)
}

func TestFileOperations_Register(t *testing.T) {
	reg := operation.NewRegistry()
	require.NoError(t, NewFileOperations(afero.NewMemMapFs()).Register(reg))

	for _, op := range []string{"file.create", "file.read", "file.append", "file.delete", "file.list"} {
		assert.True(t, reg.Has(op), op)
	}
}

func TestFileOperations_CreateAndRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	ops := NewFileOperations(fs)
	ctx := context.Background()

	created, err := ops.Create(ctx, map[string]any{
		"filename": "docs/notes.txt",
		"content":  "hello world",
	}, testCtx())
	require.NoError(t, err)
	assert.True(t, created.Success)
	assert.Equal(t, "docs/notes.txt", created.SideEffects["last_file"])

	read, err := ops.Read(ctx, map[string]any{"filename": "docs/notes.txt"}, testCtx())
	require.NoError(t, err)
	assert.Equal(t, "hello world", read.Output["content"])
	assert.Equal(t, "hello world", read.SideEffects["last_content"])
}

func TestFileOperations_ReadMissingFile(t *testing.T) {
	ops := NewFileOperations(afero.NewMemMapFs())

	_, err := ops.Read(context.Background(), map[string]any{"filename": "nope.txt"}, testCtx())
	assert.Error(t, err)
}

func TestFileOperations_Append(t *testing.T) {
	fs := afero.NewMemMapFs()
	ops := NewFileOperations(fs)
	ctx := context.Background()

	_, err := ops.Create(ctx, map[string]any{"filename": "log.txt", "content": "one\n"}, testCtx())
	require.NoError(t, err)

	_, err = ops.Append(ctx, map[string]any{"filename": "log.txt", "content": "two\n"}, testCtx())
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestFileOperations_Delete(t *testing.T) {
	fs := afero.NewMemMapFs()
	ops := NewFileOperations(fs)
	ctx := context.Background()

	_, err := ops.Create(ctx, map[string]any{"filename": "gone.txt", "content": "x"}, testCtx())
	require.NoError(t, err)

	result, err := ops.Delete(ctx, map[string]any{"filename": "gone.txt"}, testCtx())
	require.NoError(t, err)
	assert.True(t, result.Success)

	exists, err := afero.Exists(fs, "gone.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileOperations_List(t *testing.T) {
	fs := afero.NewMemMapFs()
	ops := NewFileOperations(fs)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt"} {
		_, err := ops.Create(ctx, map[string]any{"filename": "dir/" + name, "content": "x"}, testCtx())
		require.NoError(t, err)
	}

	result, err := ops.List(ctx, map[string]any{"directory": "dir"}, testCtx())
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"a.txt", "b.txt"}, result.Output["entries"])
}

func TestFileOperations_MissingFilename(t *testing.T) {
	ops := NewFileOperations(afero.NewMemMapFs())
	ctx := context.Background()

	_, err := ops.Create(ctx, map[string]any{"content": "x"}, testCtx())
	assert.Error(t, err)

	_, err = ops.Create(ctx, map[string]any{"filename": 42}, testCtx())
	assert.Error(t, err)
}
