package main

import (
	"github.com/spf13/cobra"

	"cschema/internal/ctree/libclang"
	"cschema/internal/driver"
	"cschema/internal/schema"
	"cschema/internal/version"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] [headers...]",
	Short: "Print the classified records of headers",
	Long: `Inspect runs the extraction without the cache and prints the schema to
stdout, as text unless --format says otherwise.`,
	RunE: runInspect,
}

func init() {
	addExtractFlags(inspectCmd)
	inspectCmd.Flags().Bool("records", false, "print only the record list")
	inspectCmd.Flags().String("module", "", "print only the named module")
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd, args)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") {
		opts.Format = schema.FormatText
	}
	recordsOnly, _ := cmd.Flags().GetBool("records")
	moduleName, _ := cmd.Flags().GetString("module")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	res, err := driver.Extract(cmd.Context(), libclang.New(), &driver.Request{
		Headers:        opts.Headers,
		ClangArgs:      opts.ClangArgs,
		Jobs:           opts.Jobs,
		KeepGoing:      opts.KeepGoing,
		MaxDiagnostics: maxDiagnostics,
		Generator:      version.Generator(),
	})
	if err != nil {
		return err
	}
	if err := printDiagnostics(cmd, cmd.ErrOrStderr(), res.Bag, quiet); err != nil {
		return err
	}

	var value any = res.Schema
	switch {
	case moduleName != "":
		m, ok := res.Schema.Module(moduleName)
		if !ok {
			return usageError{msg: "no module named " + moduleName}
		}
		value = m
	case recordsOnly:
		value = res.Schema.Records
	}
	if err := schema.Write(cmd.OutOrStdout(), value, opts.Format); err != nil {
		return err
	}
	return skippedError(res)
}
