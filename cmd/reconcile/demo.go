package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/reconciler"
)

// demoStep is one scripted interaction.
type demoStep struct {
	label string
	click string
}

var demoScript = []demoStep{
	{label: "increment", click: "inc"},
	{label: "increment again", click: "inc"},
	{label: "add item", click: "add"},
	{label: "toggle first", click: "toggle-1"},
	{label: "reverse list", click: "reverse"},
	{label: "remove item 2", click: "remove-2"},
}

func demoCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the demo app through a scripted session",
		Long: `Mount the demo app on an in-memory host, then click through a short
script. After each step the host tree and the commit summary are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), e, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the host tree as JSON instead of HTML")

	return cmd
}

func runDemo(out io.Writer, e *env, asJSON bool) error {
	var last reconciler.CommitInfo
	var renderErr error

	s := newSession(e, nil,
		reconciler.WithOnCommit(func(info reconciler.CommitInfo) { last = info }),
		reconciler.WithOnRenderError(func(re reconciler.RenderError) { renderErr = re.Err }),
	)

	show := func(label string) error {
		if renderErr != nil {
			return errors.FromError(renderErr, errors.CodeRenderPanic)
		}
		step(out, label)
		fmt.Fprintf(out, "  commit: lane=%s fibers=%d mutations=%d deletions=%d\n",
			last.Lane, last.Fibers, last.Mutations, last.Deletions)
		if asJSON {
			data, err := s.host.JSONIndent(s.container)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n\n", data)
			return nil
		}
		fmt.Fprintf(out, "  %s\n  fingerprint %016x\n\n", s.host.HTML(s.container), s.host.Fingerprint(s.container))
		return nil
	}

	s.rec.UpdateContainer(element.New(demoApp), s.root)
	s.loop.RunUntilIdle()
	if err := show("mount"); err != nil {
		return err
	}

	for _, st := range demoScript {
		if err := s.click(st.click); err != nil {
			return err
		}
		s.loop.RunUntilIdle()
		if err := show(st.label); err != nil {
			return err
		}
	}

	stats := s.host.Stats()
	success(out, "%d nodes created, %d removed, %d host operations",
		stats.Created, stats.Removed, stats.Mutations)
	return nil
}
