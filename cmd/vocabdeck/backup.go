package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vocabdeck/internal/domain"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var tokenOnly bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a backup code and write a dated backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				token, err := a.backup.ExportToken()
				if err != nil {
					return err
				}
				if !tokenOnly {
					name, data, err := a.backup.ExportFile()
					if err != nil {
						return err
					}
					path := filepath.Join(dir, name)
					if err := os.WriteFile(path, data, 0o644); err != nil {
						return fmt.Errorf("write backup file: %w", err)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Backup file written to %s\n", path)
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory for the backup file")
	cmd.Flags().BoolVar(&tokenOnly, "token-only", false, "Only print the backup code")
	return cmd
}

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var modeFlag, token, file string
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore from a backup code or file (merge or overwrite)",
		Long: "Restore from a backup code (--token), a backup file (--file) or a code read from stdin.\n" +
			"A preview is shown first. Overwrite asks for confirmation twice.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseRestoreMode(modeFlag)
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			interactive := isTerminal(cmd.InOrStdin())

			return ctx.withApp(cmd, func(a *app) error {
				code, err := readBackup(a, in, interactive, token, file, cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				report, err := a.backup.Preview(code, mode)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.String())

				if !yes {
					if !interactive {
						a.backup.Discard()
						return fmt.Errorf("stdin is not a terminal; pass --yes to restore without confirmation")
					}
					for i := 0; i < domain.ConfirmationsNeeded(mode); i++ {
						prompt := "Restore? [y/N] "
						if i > 0 {
							prompt = "This deletes every current word and count. Really overwrite? [y/N] "
						}
						if !confirm(in, cmd.ErrOrStderr(), prompt) {
							a.backup.Discard()
							fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
							return nil
						}
					}
				}

				if _, err := a.backup.Commit(code, mode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored. %d words now.\n", a.words.Count())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(domain.ModeMerge), "Restore mode: merge or overwrite")
	cmd.Flags().StringVar(&token, "token", "", "Backup code")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Backup JSON file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	cmd.MarkFlagsMutuallyExclusive("token", "file")
	return cmd
}

// readBackup returns the backup code from --token, --file or stdin
func readBackup(a *app, in *bufio.Reader, interactive bool, token, file string, prompt io.Writer) (string, error) {
	switch {
	case token != "":
		return token, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read backup file: %w", err)
		}
		return a.backup.TokenFromFile(data)
	case interactive:
		fmt.Fprint(prompt, "Paste the backup code and press enter: ")
		line, err := in.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		return line, nil
	default:
		data, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func confirm(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
