package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	goform "github.com/reoring/goform"
)

func newCheckCmd(a *app) *cobra.Command {
	var submit bool
	cmd := &cobra.Command{
		Use:   "check [definition]",
		Short: "Validate a form definition",
		Long: `Check parses a form definition and reports its fields.

With --submit the initial values are submitted and any validation
issues are listed; the command then fails if the form is not valid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, path, err := a.definition(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d fields\n", path, len(def.Fields))
			for _, f := range def.Fields {
				line := "  " + f.Name
				if len(f.Controls) > 0 {
					line += " [" + strings.Join(f.Controls, ", ") + "]"
				}
				if f.Optional {
					line += " optional"
				}
				if f.Disabled {
					line += " disabled"
				}
				fmt.Fprintln(out, line)
			}
			if !submit {
				return nil
			}

			var result goform.Submission
			f, err := def.Build(
				goform.WithLogger(a.logger),
				goform.WithOnSubmit(func(_ context.Context, s goform.Submission) error {
					result = s
					return nil
				}),
			)
			if err != nil {
				return err
			}
			f.SubmitForm()
			if err := f.Flush(cmd.Context()); err != nil {
				return err
			}
			if err := result.Err(); err != nil {
				iss, _ := goform.AsIssues(err)
				for _, is := range iss {
					fmt.Fprintf(out, "  %s: %s\n", is.Path, is.Message)
				}
				return err
			}
			fmt.Fprintln(out, "initial values are valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "submit the initial values and list issues")
	return cmd
}
