// Package cmdutil provides helpers shared by the assetpipe commands.
package cmdutil

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/output"
	"github.com/agentstation/assetpipe/pkg/errors"
)

// WorkingFile resolves the working file argument of a command.
func WorkingFile(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", errors.NewValidationError("file", "", "a working file is required")
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.WrapIO("stat", path, err)
	}
	if info.IsDir() {
		return "", errors.NewValidationError("file", args[0], "is a directory")
	}
	return path, nil
}

// Format returns the output format configured for app.
func Format(app application.Application) (output.Format, error) {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return "", err
	}
	return output.DetectFormat(string(format)), nil
}

// Render writes v to the command's output in the configured format.
func Render(cmd *cobra.Command, app application.Application, v output.View) error {
	format, err := Format(app)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, v)
}

// Hint returns guidance for errors a user can fix, or "".
func Hint(err error) string {
	var nf *errors.NotFoundError
	switch {
	case err == nil:
		return ""
	case errors.IsConflict(err):
		return "Resolve the conflicts by setting surrender on one side or by reassigning owners, then run the merge again."
	case stderrors.As(err, &nf) && nf.Resource == "sync target":
		return "Nothing is published yet. Create the first version with: assetpipe publish FILE"
	case stderrors.As(err, &nf) && nf.Resource == "task layer file":
		return "Add a task_layers.json or task_layers.yaml next to the working file."
	case stderrors.As(err, &nf) && nf.Resource == "backup":
		return "Backups are written by pull. Check --backup-dir."
	}
	return ""
}

// PrintHint writes the hint for err to the command's error output.
func PrintHint(cmd *cobra.Command, err error) {
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: "+hint)
	}
}
