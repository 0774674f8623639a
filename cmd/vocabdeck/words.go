package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vocabdeck/internal/domain"
	"vocabdeck/internal/service"
)

func newWordCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newAddCommand(ctx),
		newEditCommand(ctx),
		newRemoveCommand(ctx),
		newListCommand(ctx),
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "add <word> <part-of-speech> <translation...>",
		Short: "Add a word",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			word, pos, translation := args[0], args[1], strings.Join(args[2:], " ")
			return ctx.withApp(cmd, func(a *app) error {
				entry, err := a.words.AddWord(word, pos, translation)
				if errors.Is(err, domain.ErrDuplicateWord) {
					if !replace {
						return fmt.Errorf("%q already exists (%s · %s); pass --replace to overwrite it", entry.Word, entry.PartOfSpeech, entry.Translation)
					}
					entry, err = a.words.UpdateWord(entry.ID, word, pos, translation)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) %s\n", entry.Word, entry.PartOfSpeech, entry.Translation)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite the word if it already exists")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var word, pos, translation string

	cmd := &cobra.Command{
		Use:   "edit <word-or-id>",
		Short: "Change a word, its part of speech or its translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if word == "" && pos == "" && translation == "" {
				return fmt.Errorf("nothing to change; use --word, --pos or --translation")
			}
			return ctx.withApp(cmd, func(a *app) error {
				entry, err := lookupEntry(a.words, args[0])
				if err != nil {
					return err
				}
				if word == "" {
					word = entry.Word
				}
				if pos == "" {
					pos = entry.PartOfSpeech
				}
				if translation == "" {
					translation = entry.Translation
				}
				updated, err := a.words.UpdateWord(entry.ID, word, pos, translation)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s) %s\n", updated.Word, updated.PartOfSpeech, updated.Translation)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&word, "word", "", "New spelling")
	cmd.Flags().StringVar(&pos, "pos", "", "New part of speech")
	cmd.Flags().StringVar(&translation, "translation", "", "New translation")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <word-or-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a word; its study count is kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				entry, err := lookupEntry(a.words, args[0])
				if err != nil {
					return err
				}
				if _, err := a.words.RemoveWord(entry.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", entry.Word)
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list [filter]",
		Aliases: []string{"ls"},
		Short:   "List words sorted alphabetically",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return ctx.withApp(cmd, func(a *app) error {
				words := a.words.ListWords(query)
				if len(words) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No words")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderWords(words))
				return nil
			})
		},
	}
}

func renderWords(words []domain.ListedWord) string {
	rows := make([][]string, len(words))
	for i, w := range words {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			w.Word,
			w.PartOfSpeech,
			w.Translation,
			strconv.Itoa(w.Exposures),
			shortID(w.ID),
		}
	}
	return renderTable(
		[]string{"#", "Word", "POS", "Translation", "Seen", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// lookupEntry resolves a word, a full id or an id prefix of at least 8 chars
func lookupEntry(words *service.WordService, ref string) (domain.Entry, error) {
	if e, ok := words.FindWord(ref); ok {
		return e, nil
	}
	if e, ok := words.GetWord(ref); ok {
		return e, nil
	}
	if len(ref) >= 8 {
		var match *domain.Entry
		for _, w := range words.ListWords("") {
			if strings.HasPrefix(w.ID, ref) {
				if match != nil {
					return domain.Entry{}, fmt.Errorf("id prefix %q is ambiguous", ref)
				}
				e := w.Entry
				match = &e
			}
		}
		if match != nil {
			return *match, nil
		}
	}
	return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
