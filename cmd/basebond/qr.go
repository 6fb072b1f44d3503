package main

import (
	"time"

	"github.com/spf13/cobra"

	"basebond/internal/qr"
)

func newQRCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Issue and parse ticket QR payloads",
	}

	issue := &cobra.Command{
		Use:   "issue <event-id> <ticket-id> <wallet>",
		Short: "Print the QR payload for a ticket",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "event id")
			if err != nil {
				return err
			}
			wallet, err := parseAddress(args[2])
			if err != nil {
				return err
			}
			text, err := qr.Issue(id, args[1], wallet, time.Now())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(text + "\n"))
			return err
		},
	}

	parse := &cobra.Command{
		Use:   "parse <text>",
		Short: "Parse scanned QR text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scan := qr.Parse(args[0])
			_, addrErr := scan.Address()
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"scan":          scan,
				"valid_address": addrErr == nil,
			})
		},
	}

	cmd.AddCommand(issue, parse)
	return cmd
}
