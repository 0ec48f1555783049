// cli/notes.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/sharednotes/domain"
)

func newListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the notes log as JSON, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			return printJSON(cmd, e.store.List(cmd.Context()))
		},
	}
}

func newAppendCmd(configPath *string) *cobra.Command {
	var text, title, author, when string

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a note and print the updated log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			notes, err := e.store.Append(cmd.Context(), domain.RawFields{
				Text:   text,
				Title:  title,
				Author: author,
				When:   when,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, notes)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "note text (required)")
	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&author, "author", "", "note author")
	cmd.Flags().StringVar(&when, "when", "", "free-form time label")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := domain.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
