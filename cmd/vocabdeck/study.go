package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vocabdeck/internal/service"
)

const studyHelp = "[enter/n] next  [b] back  [f] flip  [q] quit"

func newStudyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "study",
		Short: "Study flashcards interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				return runStudy(cmd.InOrStdin(), cmd.OutOrStdout(), a.study)
			})
		},
	}
}

// runStudy drives the card loop from line-based input
func runStudy(in io.Reader, out io.Writer, study *service.StudyService) error {
	card, ok := study.Next()
	if !ok {
		fmt.Fprintln(out, "No words yet. Add some with `vocabdeck add`.")
		return nil
	}
	fmt.Fprintln(out, studyHelp)
	flipped := false
	printCard(out, card, flipped)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "n", "next":
			next, ok := study.Forward()
			if !ok {
				fmt.Fprintln(out, "No words left.")
				return nil
			}
			card, flipped = next, false
		case "b", "back":
			prev, ok := study.Back()
			if !ok {
				fmt.Fprintln(out, "This is the first card.")
				continue
			}
			card, flipped = prev, false
		case "f", "flip":
			flipped = !flipped
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(out, studyHelp)
			continue
		}
		printCard(out, card, flipped)
	}
	return scanner.Err()
}

func printCard(out io.Writer, card service.Card, flipped bool) {
	fmt.Fprintf(out, "\n  %s", card.Entry.Word)
	if flipped {
		fmt.Fprintf(out, "  %s · %s", card.Entry.PartOfSpeech, card.Entry.Translation)
	}
	fmt.Fprintf(out, "   [%d/%d]\n> ", card.Seen, card.Total)
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show study statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				s := a.stats.Summary()
				if s.Words == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No words")
					return nil
				}
				rows := [][]string{
					{"Words", fmt.Sprint(s.Words)},
					{"Cards shown", fmt.Sprint(s.TotalExposures)},
					{"Never shown", fmt.Sprint(s.Unseen)},
					{"Most seen", fmt.Sprintf("%s (%d)", s.MostSeen.Word, s.MostSeen.Exposures)},
					{"Least seen", fmt.Sprintf("%s (%d)", s.LeastSeen.Word, s.LeastSeen.Exposures)},
					{"Counts of removed words", fmt.Sprint(s.OrphanCounters)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Stat", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
