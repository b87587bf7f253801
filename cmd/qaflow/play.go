package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/qaflow/pkg/flow"
	"github.com/ha1tch/qaflow/pkg/session"
)

func (a *app) playCmd() *cobra.Command {
	var entry string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Present the sample flow one question at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(a.cfg.Log, true)
			if err != nil {
				return err
			}
			defer log.Sync()

			sess := a.newSession(log)
			if err := buildSample(sess, pixelLayout); err != nil {
				return err
			}
			return play(sess, flow.NodeID(entry), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "node to start at (default: the first node)")
	return cmd
}

// play presents sess on a line-oriented terminal until the input ends or
// the user quits.
func play(sess *session.Session, entry flow.NodeID, in io.Reader, out io.Writer) error {
	st, err := sess.StartRun(entry)
	if err != nil {
		return err
	}
	defer sess.ExitRun()

	colorBrand.Fprintln(out, "qaflow")
	colorSubtle.Fprintln(out, "Answer with a number. r restarts, q quits, ? for help.")
	fmt.Fprintln(out)
	printRun(out, sess, st)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			return nil
		case "restart", "r":
			printRun(out, sess, sess.RestartRun())
		case "help", "?":
			fmt.Fprintln(out, "Commands:")
			fmt.Fprintln(out, "  <n>      - Choose answer n")
			fmt.Fprintln(out, "  <answer> - Choose an answer by its text")
			fmt.Fprintln(out, "  r        - Back to the first question")
			fmt.Fprintln(out, "  q        - Exit")
		default:
			opt, ok := pickOption(sess, line)
			if !ok {
				colorWarn.Fprintf(out, "No answer %q here\n", line)
				continue
			}
			printRun(out, sess, sess.SelectOption(opt))
		}
	}
}

// pickOption resolves a 1-based number or an answer text against the node
// being presented.
func pickOption(sess *session.Session, choice string) (flow.OptionID, bool) {
	n, ok := sess.Current()
	if !ok {
		return "", false
	}
	if i, err := strconv.Atoi(choice); err == nil {
		if i < 1 || i > len(n.Options) {
			return "", false
		}
		return n.Options[i-1].ID, true
	}
	for _, o := range n.Options {
		if strings.EqualFold(o.Text, choice) {
			return o.ID, true
		}
	}
	return "", false
}

func printRun(out io.Writer, sess *session.Session, st flow.Status) {
	switch st.State {
	case flow.StateDeadEnd:
		colorBad.Fprintln(out, "That answer leads nowhere.")
		colorSubtle.Fprintln(out, "r to restart, q to quit")
		return
	case flow.StateInactive:
		colorSubtle.Fprintln(out, "Not presenting.")
		return
	}

	n, ok := sess.Current()
	if !ok {
		return
	}
	colorInfo.Fprintln(out, n.Text)
	if st.Leaf {
		colorGood.Fprintln(out, "End of this branch.")
		colorSubtle.Fprintln(out, "r to restart, q to quit")
		return
	}
	for i, o := range n.Options {
		fmt.Fprintf(out, "  %d. %s\n", i+1, o.Text)
	}
}
