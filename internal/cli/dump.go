package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack"
	"go.yaml.in/yaml/v3"

	"go.treestore/internal/engine"
)

type dumpEntry struct {
	Key   string `yaml:"key" msgpack:"key"`
	Value string `yaml:"value" msgpack:"value"`
}

type dumpFile struct {
	Database string       `yaml:"database" msgpack:"database"`
	Stats    engine.Stats `yaml:"stats" msgpack:"stats"`
	Entries  []dumpEntry  `yaml:"entries" msgpack:"entries"`
}

var (
	dumpFormat string
	dumpOut    string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <dbname>",
	Short: "Export every pair in key order as yaml or msgpack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dumpFormat != "yaml" && dumpFormat != "msgpack" {
			return fmt.Errorf("unknown format %q, want yaml or msgpack", dumpFormat)
		}

		out := cmd.OutOrStdout()
		if dumpOut != "" {
			f, err := os.Create(dumpOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return withDB(args[0], func(db *engine.Database) error {
			return dump(out, args[0], db, dumpFormat)
		})
	},
}

func dump(out io.Writer, dbname string, db *engine.Database, format string) error {
	st, err := db.Stats()
	if err != nil {
		return err
	}

	df := dumpFile{
		Database: dbname,
		Stats:    st,
		Entries:  make([]dumpEntry, 0, st.Items),
	}

	err = db.Scan(func(key, value []byte) error {
		df.Entries = append(df.Entries, dumpEntry{Key: string(key), Value: string(value)})
		return nil
	})
	if err != nil {
		return err
	}

	if format == "msgpack" {
		return msgpack.NewEncoder(out).Encode(&df)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&df); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "yaml", "output format: yaml or msgpack")
	dumpCmd.Flags().StringVarP(&dumpOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(dumpCmd)
}
