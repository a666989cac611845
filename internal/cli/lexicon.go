package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/narrtl/internal/ontology"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Manage semantic class lexicons",
}

var lexiconImportCmd = &cobra.Command{
	Use:   "import <lexicon.yaml> <lexicon.db>",
	Short: "Copy a YAML lexicon into a SQLite database",
	Long: `Import loads a YAML lexicon and writes its event classes, noun classes,
idioms, locations and genders into a SQLite database usable with
--lexicon-db. Previous database contents are replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lex, err := ontology.LoadLexicon(args[0])
		if err != nil {
			return err
		}
		db, err := ontology.OpenSQLiteLexicon(args[1], nil)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := db.Import(cmd.Context(), lex); err != nil {
			return fmt.Errorf("import lexicon: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d event classes and %d noun classes into %s\n",
			len(lex.File().EventClasses), len(lex.File().NounClasses), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexiconCmd)
	lexiconCmd.AddCommand(lexiconImportCmd)
}
