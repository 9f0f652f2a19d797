package commands

import (
	"elabftw-tools/lib/csvrows"
	"elabftw-tools/lib/importer"
	"elabftw-tools/lib/metadata"
	"elabftw-tools/lib/serviceutil"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mapCmd)
}

var mapCmd = &cobra.Command{
	Use:   "map <file.csv>",
	Short: "Prints the metadata and body every row of a csv file maps to, without contacting eLabFTW.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file, err := csvrows.Open(args[0])
		if err != nil {
			serviceutil.Fatal("failed to open csv", err)
		}
		defer file.Close()

		warnSuggestions(file.Header())

		err = printMapping(os.Stdout, file)
		if err != nil {
			serviceutil.Fatal("failed to read csv", err)
		}
	},
}

func printMapping(out io.Writer, rows importer.RowSource) error {
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var recordErr *csvrows.RecordError
		if errors.As(err, &recordErr) {
			fmt.Fprintf(out, "line %d: %s\n\n", recordErr.Line, recordErr.Err)
			continue
		}
		if err != nil {
			return err
		}

		title, _ := row.Title()
		action := "create"
		if id, ok := row.Identity(); ok {
			action = fmt.Sprintf("update %d", id)
		}
		fmt.Fprintf(out, "line %d: %s (%s)\n", rows.Line(), title, action)

		doc, body := metadata.Map(row, "")
		encoded, err := doc.Encode()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "metadata: %s\n", encoded)

		paragraphs, err := metadata.Paragraphs(body)
		if err != nil {
			return err
		}
		for _, p := range paragraphs {
			fmt.Fprintf(out, "body: %s\n", p)
		}
		fmt.Fprintln(out)
	}
}
