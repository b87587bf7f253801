package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/render"
	"github.com/ha1tch/qaflow/pkg/session"
)

func (a *app) renderCmd() *cobra.Command {
	var (
		output string
		title  string
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Export the sample flow as SVG or PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession(zap.NewNop())
			if err := buildSample(sess, pixelLayout); err != nil {
				return err
			}

			opts := render.DefaultOptions()
			opts.Metrics = sess.Metrics()
			opts.Title = title
			opts.Width = width
			opts.Height = height

			if err := renderFile(sess, output, opts); err != nil {
				return err
			}
			colorGood.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "flow.svg", "output file (.svg or .png)")
	cmd.Flags().StringVar(&title, "title", "", "title drawn above the flow")
	cmd.Flags().IntVar(&width, "width", 0, "image width (0 fits the content)")
	cmd.Flags().IntVar(&height, "height", 0, "image height (0 fits the content)")
	return cmd
}

// renderFile writes the session's flow to path in the format its
// extension names.
func renderFile(sess *session.Session, path string, opts render.Options) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".svg" && ext != ".png" {
		return fmt.Errorf("unsupported output format %q (use .svg or .png)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	snap := sess.Snapshot()
	if ext == ".png" {
		err = render.PNG(f, snap, opts)
	} else {
		err = render.WriteSVG(f, snap, opts)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
