// Package diff provides the diff command.
package diff

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/agentstation/assetpipe/internal/cmd/application"
	"github.com/agentstation/assetpipe/internal/cmd/cmdutil"
	"github.com/agentstation/assetpipe/internal/publish"
	"github.com/agentstation/assetpipe/pkg/asset"
)

// NewCommand creates the diff command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var against string
	var context int

	cmd := &cobra.Command{
		Use:     "diff FILE",
		GroupID: "inspect",
		Short:   "Compare ownership of the working file with the sync target",
		Args:    cobra.ExactArgs(1),
		Long: `Diff prints a unified diff of the ownership of every entity and sub-item
record between the sync target and the working file. Use --against to
compare with another snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmdutil.WorkingFile(args)
			if err != nil {
				return err
			}
			target := against
			if target == "" {
				target, err = publish.SyncTarget(filepath.Dir(file))
				if err != nil {
					cmdutil.PrintHint(cmd, err)
					return err
				}
			}

			store := app.Store()
			from, err := store.Load(target)
			if err != nil {
				return err
			}
			to, err := store.Load(file)
			if err != nil {
				return err
			}

			text, err := Unified(from, to, target, file, context)
			if err != nil {
				return err
			}
			if text == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No ownership differences")
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVar(&against, "against", "", "Snapshot to compare with (default: sync target)")
	cmd.Flags().IntVarP(&context, "context", "U", 3, "Lines of context")
	return cmd
}

// Unified returns the unified diff of the ownership lines of two documents,
// or "" when they match.
func Unified(from, to *asset.Document, fromName, toName string, context int) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        Lines(from),
		B:        Lines(to),
		FromFile: fromName,
		ToFile:   toName,
		Context:  context,
	})
}

// Lines lists one sorted line per entity and sub-item record of doc.
func Lines(doc *asset.Document) []string {
	var lines []string
	for _, e := range doc.Entities() {
		m := e.Meta()
		lines = append(lines, line(fmt.Sprintf("%s %s", e.Type(), m.Name), m.Owner, m.Surrender))
		item, ok := e.(*asset.Item)
		if !ok {
			continue
		}
		for _, r := range item.Records {
			lines = append(lines, line(fmt.Sprintf("%s %s/%s", r.Kind, m.Name, r.Name), r.Owner, r.Surrender))
		}
	}
	slices.Sort(lines)
	return lines
}

func line(subject, owner string, surrender bool) string {
	if surrender {
		owner += " (surrender)"
	}
	return subject + " = " + owner + "\n"
}
