package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/brokerage/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `bkr topic [-l] [<topic>...]

  Shows the documentation of the topics, or the list of topics when none is
  given. '*' shows every topic.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "l", false, "Only list the topic names.")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		topics, err := docs.GetAllTopics()
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(out, strings.Join(topics, "\n"))
		return subcommands.ExitSuccess
	}
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(errOut, "Error reading doc: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc, *plainOutput)
	return subcommands.ExitSuccess
}
