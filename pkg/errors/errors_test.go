package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/assetpipe/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "item",
			ID:       "Body",
		}
		assert.Equal(t, "item with ID Body not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("group", "chair")
		wrapped := fmt.Errorf("importing: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "TASK_LAYER_TYPES",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field TASK_LAYER_TYPES: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestConfigError(t *testing.T) {
	base := errors.New("missing key MODIFIER")
	err := pkgerrors.NewConfigError("task_layers", "defaults table incomplete", base)

	assert.Equal(t, "configuration error in task_layers: defaults table incomplete", err.Error())
	assert.Equal(t, base, errors.Unwrap(err))

	noComponent := &pkgerrors.ConfigError{Message: "bad"}
	assert.Equal(t, "configuration error: bad", noComponent.Error())
}

func TestMergeError(t *testing.T) {
	t.Run("with conflicts", func(t *testing.T) {
		err := pkgerrors.NewMergeError("chair.yaml", "chair-v002.yaml", []string{
			"Transferable Data conflict found for 'Armature' on item 'Body.LOCAL'",
			"Ownership conflict found for item: 'Prop.LOCAL'",
		}, nil)

		assert.True(t, pkgerrors.IsConflict(err))
		assert.Contains(t, err.Error(), "chair.yaml")
		assert.Contains(t, err.Error(), "Armature")
		assert.Contains(t, err.Error(), "Prop.LOCAL")
	})

	t.Run("without conflicts", func(t *testing.T) {
		base := errors.New("import failed")
		err := pkgerrors.NewMergeError("a", "b", nil, base)

		assert.False(t, pkgerrors.IsConflict(err))
		assert.True(t, errors.Is(err, base))
		assert.Contains(t, err.Error(), "import failed")
	})
}

func TestNamingError(t *testing.T) {
	err := pkgerrors.NewNamingError("Body", pkgerrors.ErrUnknownSuffix)
	assert.True(t, errors.Is(err, pkgerrors.ErrUnknownSuffix))
	assert.False(t, errors.Is(err, pkgerrors.ErrNameTooLong))
	assert.Contains(t, err.Error(), `"Body"`)
}

func TestImportError(t *testing.T) {
	err := pkgerrors.NewImportError("/tmp/pub.yaml", "chair", pkgerrors.NewNotFoundError("group", "chair"))

	var importErr *pkgerrors.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, "/tmp/pub.yaml", importErr.File)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "chair")
}

func TestIOError(t *testing.T) {
	t.Run("with path", func(t *testing.T) {
		err := pkgerrors.NewIOError("write", "/tmp/file.yaml", errors.New("disk full"))
		assert.Equal(t, "IO error during write of /tmp/file.yaml: disk full", err.Error())
	})

	t.Run("without path", func(t *testing.T) {
		err := &pkgerrors.IOError{Operation: "read", Message: "eof"}
		assert.Equal(t, "IO error during read: eof", err.Error())
	})
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ParseError
		want string
	}{
		{
			name: "file and line",
			err:  &pkgerrors.ParseError{Format: "yaml", File: "a.yaml", Line: 3, Column: 2, Message: "bad indent"},
			want: "parse error in yaml at a.yaml:3:2: bad indent",
		},
		{
			name: "file only",
			err:  &pkgerrors.ParseError{Format: "json", File: "task_layers.json", Message: "unexpected EOF"},
			want: "parse error in json file task_layers.json: unexpected EOF",
		},
		{
			name: "no file",
			err:  &pkgerrors.ParseError{Format: "yaml", Message: "bad"},
			want: "yaml parse error: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestProcessError(t *testing.T) {
	baseErr := errors.New("exit status 2")
	err := pkgerrors.NewProcessError("hook", "./notify.sh", "boom", baseErr)
	assert.Contains(t, err.Error(), "./notify.sh")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, baseErr, err.Unwrap())
}

func TestHelperFunctions(t *testing.T) {
	t.Run("IsAlreadyExists", func(t *testing.T) {
		err1 := &pkgerrors.ResourceError{Err: pkgerrors.ErrAlreadyExists}
		assert.True(t, pkgerrors.IsAlreadyExists(err1))
		assert.True(t, pkgerrors.IsAlreadyExists(pkgerrors.ErrAlreadyExists))
	})

	t.Run("IsCanceled", func(t *testing.T) {
		assert.True(t, pkgerrors.IsCanceled(pkgerrors.ErrCanceled))
	})
}

func TestWrapHelpers(t *testing.T) {
	t.Run("WrapValidation", func(t *testing.T) {
		err := pkgerrors.WrapValidation("owner", errors.New("unknown task layer"))
		assert.Contains(t, err.Error(), "owner")
		assert.Nil(t, pkgerrors.WrapValidation("field", nil))
	})

	t.Run("WrapIO", func(t *testing.T) {
		err := pkgerrors.WrapIO("write", "/tmp/file", errors.New("disk full"))
		assert.Contains(t, err.Error(), "/tmp/file")
		assert.Nil(t, pkgerrors.WrapIO("read", "file", nil))
	})

	t.Run("WrapResource", func(t *testing.T) {
		err := pkgerrors.WrapResource("load", "snapshot", "chair.yaml", errors.New("corrupt"))
		assert.Contains(t, err.Error(), "snapshot")
		assert.Nil(t, pkgerrors.WrapResource("create", "snapshot", "x", nil))
	})

	t.Run("WrapParse", func(t *testing.T) {
		err := pkgerrors.WrapParse("json", "task_layers.json", errors.New("invalid syntax"))
		assert.Contains(t, err.Error(), "task_layers.json")
		assert.Nil(t, pkgerrors.WrapParse("yaml", "file.yaml", nil))
	})
}
