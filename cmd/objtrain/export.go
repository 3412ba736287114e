package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/objtrain/objtrain/model"
)

var exportOut string

// exportCmd writes the hashtrons of the uploaded model as Go declarations
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the uploaded model as Go source",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := c.ModelKey()
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), c, c.OutputBucket)
		if err != nil {
			return err
		}
		artifact, err := model.Download(cmd.Context(), store, key)
		if err != nil {
			return err
		}
		net, err := artifact.Network()
		if err != nil {
			return err
		}
		var w io.Writer = os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		for i := 0; i < net.Len(); i++ {
			name := fmt.Sprintf("L%dH%d", net.GetLayer(i), net.GetPosition(i))
			buf, err := net.GetHashtron(i).BytesBuffer(name)
			if err != nil {
				return err
			}
			if _, err := buf.WriteTo(w); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "file to write, standard output when empty")
}
