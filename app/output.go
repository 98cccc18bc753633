package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/olekukonko/tablewriter"

	"github.com/authenticator/authenticator/internal/provision"
)

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("aborted")

// ErrPasswordMismatch is returned when the confirmation differs from the password.
var ErrPasswordMismatch = errors.New("passwords do not match")

// printTable writes rows as a borderless, left aligned table.
func printTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}

// printOutcome reports the directory side of a console operation.
func printOutcome(w io.Writer, o provision.Outcome) {
	r := o.Report()

	switch {
	case r.Warning != "":
		fmt.Fprintf(w, "directory: %s (%s)\n", r.Status, r.Warning) //nolint:errcheck
	case r.Reason != "":
		fmt.Fprintf(w, "directory: %s (%s)\n", r.Status, r.Reason) //nolint:errcheck
	default:
		fmt.Fprintf(w, "directory: %s\n", r.Status) //nolint:errcheck
	}
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrAborted
	}

	return err
}

// promptPassword asks twice for a masked password of at least minLength runes.
func promptPassword(minLength int) (string, error) {
	first := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(in string) error {
			if len([]rune(in)) < minLength {
				return fmt.Errorf("password must be at least %d characters", minLength)
			}

			return nil
		},
	}

	secret, err := first.Run()
	if err != nil {
		return "", promptError(err)
	}

	second := promptui.Prompt{Label: "Confirm password", Mask: '*'}

	again, err := second.Run()
	if err != nil {
		return "", promptError(err)
	}

	if secret != again {
		return "", ErrPasswordMismatch
	}

	return secret, nil
}

// confirm asks a yes/no question. force skips the prompt.
func confirm(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}

	p := promptui.Prompt{Label: label, IsConfirm: true}

	_, err := p.Run()

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, promptError(err)
	}
}
