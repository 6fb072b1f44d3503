package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"basebond/internal/actions"
	"basebond/internal/failure"
	"basebond/internal/session"
	"basebond/internal/tracker"
)

// writeCommand builds a command that submits one write and waits for it.
func writeCommand(use, short string, args cobra.PositionalArgs, submit func(ctx context.Context, s *session.Session, cmd *cobra.Command, args []string) (*tracker.Tracker, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				tr, err := submit(ctx, s, cmd, args)
				return report(ctx, cmd, s, tr, err)
			})
		},
	}
	addSigningFlags(cmd.Flags())
	return cmd
}

// report waits for the write and prints its record. Interrupting the wait
// leaves the record in the history for basebond track.
func report(ctx context.Context, cmd *cobra.Command, s *session.Session, tr *tracker.Tracker, err error) error {
	if tr == nil {
		return err
	}
	if err != nil {
		if !failure.IsSilent(err) {
			_ = printJSON(cmd.OutOrStdout(), newOperationView(tr.State(), err, s.Config.ExplorerURL))
		}
		return err
	}
	op, err := tr.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		return printJSON(cmd.OutOrStdout(), newOperationView(op, nil, s.Config.ExplorerURL))
	}
	if perr := printJSON(cmd.OutOrStdout(), newOperationView(op, err, s.Config.ExplorerURL)); perr != nil {
		return perr
	}
	return err
}

func addWriteCommands(root *cobra.Command) {
	buy := writeCommand("buy <event-id>", "Buy a ticket, approving IDRX first when needed", cobra.ExactArgs(1),
		func(ctx context.Context, s *session.Session, _ *cobra.Command, args []string) (*tracker.Tracker, error) {
			id, err := parseID(args[0], "event id")
			if err != nil {
				return nil, err
			}
			return s.Actions.BuyTicket(ctx, id)
		})

	checkin := writeCommand("checkin <event-id> <scan-text>", "Check in the attendee named by a scanned QR payload", cobra.ExactArgs(2),
		func(ctx context.Context, s *session.Session, _ *cobra.Command, args []string) (*tracker.Tracker, error) {
			id, err := parseID(args[0], "event id")
			if err != nil {
				return nil, err
			}
			return s.Actions.CheckIn(ctx, id, args[1])
		})

	createEvent := writeCommand("create-event", "Create an event", cobra.NoArgs,
		func(ctx context.Context, s *session.Session, cmd *cobra.Command, _ []string) (*tracker.Tracker, error) {
			in, err := eventInput(cmd)
			if err != nil {
				return nil, err
			}
			return s.Actions.CreateEvent(ctx, in)
		})
	createEvent.Flags().String("name", "", "event name")
	createEvent.Flags().String("description", "", "event description")
	createEvent.Flags().String("location", "", "event location")
	createEvent.Flags().String("image", "", "image URI")
	createEvent.Flags().String("badge", "", "POAP badge URI")
	createEvent.Flags().String("date", "", "start time, RFC3339 or unix seconds")
	createEvent.Flags().String("price", "0", "ticket price in IDRX, 0 for free")
	createEvent.Flags().Uint64("max-tickets", 0, "number of tickets")

	stake := writeCommand("stake <amount>", "Stake IDRX, approving first when needed", cobra.ExactArgs(1),
		func(ctx context.Context, s *session.Session, _ *cobra.Command, args []string) (*tracker.Tracker, error) {
			return s.Actions.Stake(ctx, args[0])
		})

	unstake := writeCommand("unstake <amount>", "Unstake IDRX", cobra.ExactArgs(1),
		func(ctx context.Context, s *session.Session, _ *cobra.Command, args []string) (*tracker.Tracker, error) {
			return s.Actions.Unstake(ctx, args[0])
		})

	claim := writeCommand("claim", "Claim pending loyalty points", cobra.NoArgs,
		func(ctx context.Context, s *session.Session, _ *cobra.Command, _ []string) (*tracker.Tracker, error) {
			return s.Actions.Claim(ctx)
		})

	vote := writeCommand("vote <proposal-id>", "Vote on a treasury proposal", cobra.ExactArgs(1),
		func(ctx context.Context, s *session.Session, cmd *cobra.Command, args []string) (*tracker.Tracker, error) {
			id, err := parseID(args[0], "proposal id")
			if err != nil {
				return nil, err
			}
			support, _ := cmd.Flags().GetBool("support")
			return s.Actions.Vote(ctx, id, support)
		})
	vote.Flags().Bool("support", false, "vote for the proposal (default against)")

	createProposal := writeCommand("create-proposal", "Propose a treasury payment", cobra.NoArgs,
		func(ctx context.Context, s *session.Session, cmd *cobra.Command, _ []string) (*tracker.Tracker, error) {
			description, _ := cmd.Flags().GetString("description")
			recipient, _ := cmd.Flags().GetString("recipient")
			amount, _ := cmd.Flags().GetString("amount")
			return s.Actions.CreateProposal(ctx, description, recipient, amount)
		})
	createProposal.Flags().String("description", "", "what the payment is for")
	createProposal.Flags().String("recipient", "", "recipient address")
	createProposal.Flags().String("amount", "", "amount in IDRX")

	withdraw := writeCommand("withdraw", "Withdraw the organizer balance", cobra.NoArgs,
		func(ctx context.Context, s *session.Session, _ *cobra.Command, _ []string) (*tracker.Tracker, error) {
			return s.Actions.Withdraw(ctx)
		})

	track := &cobra.Command{
		Use:   "track",
		Short: "Resume confirmation tracking of unfinished writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				trackers, err := s.Track(ctx)
				if err != nil {
					return err
				}
				views := make([]operationView, 0, len(trackers))
				for _, tr := range trackers {
					op, err := tr.Wait(ctx)
					if errors.Is(err, context.Canceled) {
						err = nil
					}
					views = append(views, newOperationView(op, err, s.Config.ExplorerURL))
				}
				return printJSON(cmd.OutOrStdout(), views)
			})
		},
	}
	addSigningFlags(track.Flags())

	root.AddCommand(buy, checkin, createEvent, stake, unstake, claim, vote, createProposal, withdraw, track)
}

func eventInput(cmd *cobra.Command) (actions.EventInput, error) {
	flags := cmd.Flags()
	in := actions.EventInput{}
	in.Name, _ = flags.GetString("name")
	in.Description, _ = flags.GetString("description")
	in.Location, _ = flags.GetString("location")
	in.ImageURI, _ = flags.GetString("image")
	in.BadgeURI, _ = flags.GetString("badge")
	in.Price, _ = flags.GetString("price")
	in.MaxTickets, _ = flags.GetUint64("max-tickets")

	dateText, _ := flags.GetString("date")
	date, err := parseDate(dateText)
	if err != nil {
		return actions.EventInput{}, err
	}
	in.Date = date
	return in, nil
}

// parseDate accepts unix seconds or RFC3339.
func parseDate(text string) (uint64, error) {
	if text == "" {
		return 0, fmt.Errorf("%w: --date is required", actions.ErrInvalidInput)
	}
	if secs, err := strconv.ParseUint(text, 10, 64); err == nil {
		return secs, nil
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil || t.Unix() <= 0 {
		return 0, fmt.Errorf("%w: date %q", actions.ErrInvalidInput, text)
	}
	return uint64(t.Unix()), nil
}
