package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"basebond/internal/contracts"
	"basebond/internal/failure"
	"basebond/internal/model"
	"basebond/internal/session"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration and feature availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := contracts.NewRegistry(cfg.Addresses)
			if err != nil {
				return err
			}
			available := make(map[string]bool, len(contracts.Names))
			for _, name := range contracts.Names {
				available[string(name)] = reg.Available(name)
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"config":    cfg.Redacted(),
				"available": available,
			})
		},
	}
	addSigningFlags(cmd.Flags())
	return cmd
}

func addReadCommands(root *cobra.Command) {
	events := &cobra.Command{
		Use:   "events",
		Short: "List active events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			offset, _ := cmd.Flags().GetUint64("offset")
			limit, _ := cmd.Flags().GetUint64("limit")
			phase, _ := cmd.Flags().GetString("phase")
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				page, err := s.Reader.ActiveEvents(ctx, offset, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"events": summaryViews(page.Events, s.Formatter, s.Config.TokenDecimals, time.Now(), phase),
					"total":  page.Total,
				})
			})
		},
	}
	events.Flags().Uint64("offset", 0, "first event index")
	events.Flags().Uint64("limit", 12, "page size")
	events.Flags().String("phase", "", "only upcoming, ongoing or past events")

	event := &cobra.Command{
		Use:   "event <id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "event id")
			if err != nil {
				return err
			}
			walletText, _ := cmd.Flags().GetString("wallet")
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				ev, err := s.Reader.EventDetails(ctx, id)
				if err != nil {
					return err
				}
				view := newEventView(ev, s.Formatter, s.Config.TokenDecimals, time.Now())
				if walletText != "" {
					wallet, err := parseAddress(walletText)
					if err != nil {
						return err
					}
					own, err := s.Reader.TicketOwnership(ctx, id, wallet)
					if err != nil {
						return err
					}
					view.Ownership = &own
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	event.Flags().String("wallet", "", "also show this wallet's ticket state")

	organizer := &cobra.Command{
		Use:   "organizer-events [address]",
		Short: "List events created by an organizer (default: the signer)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				addr, err := walletArg(s, args)
				if err != nil {
					return err
				}
				rows, err := s.Reader.OrganizerEvents(ctx, addr)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"organizer": addr,
					"events":    summaryViews(rows, s.Formatter, s.Config.TokenDecimals, time.Now(), ""),
				})
			})
		},
	}
	addSigningFlags(organizer.Flags())

	collection := &cobra.Command{
		Use:   "collection <wallet>",
		Short: "Show a wallet's tickets and POAP badges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				col, err := s.Reader.ProfileCollection(ctx, wallet)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), col)
			})
		},
	}

	stake := &cobra.Command{
		Use:   "stake-info <wallet>",
		Short: "Show a wallet's staking position and projected rewards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				pos, err := s.Reader.StakePosition(ctx, wallet)
				if err != nil {
					return err
				}
				// Pool values and points are optional extras; their failure
				// must not hide the position.
				var params *model.StakingParams
				if p, err := s.Reader.StakingParams(ctx); err == nil {
					params = &p
				} else if failure.KindOf(err) != failure.PartialRead {
					return err
				}
				var points *model.UserPoints
				if p, err := s.Reader.UserPoints(ctx, wallet); err == nil {
					points = &p
				} else if failure.KindOf(err) != failure.PartialRead {
					return err
				}
				return printJSON(cmd.OutOrStdout(), newStakeView(wallet, pos, points, params,
					s.Config.RewardRateScale, s.Formatter, s.Config.TokenDecimals))
			})
		},
	}

	proposals := &cobra.Command{
		Use:   "proposals",
		Short: "List treasury proposals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				ps, err := s.Reader.AllProposals(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), newProposalViews(ps, s.Formatter, s.Config.TokenDecimals, time.Now()))
			})
		},
	}

	treasury := &cobra.Command{
		Use:   "treasury",
		Short: "Show the treasury balance and fee settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			organizerText, _ := cmd.Flags().GetString("organizer")
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				overview, err := s.Reader.TreasuryOverview(ctx)
				if err != nil {
					return err
				}
				view := treasuryView{
					TreasuryOverview: overview,
					BalanceLabel:     s.Formatter.CurrencyLabel(overview.Balance, s.Config.TokenDecimals),
					FeeLabel:         s.Formatter.FeePercent(overview.PlatformFeeBps),
				}
				if organizerText != "" {
					addr, err := parseAddress(organizerText)
					if err != nil {
						return err
					}
					balance, err := s.Reader.OrganizerBalance(ctx, addr)
					if err != nil {
						return err
					}
					view.Organizer = addr.Hex()
					view.OrganizerBalance = balance
					view.OrganizerLabel = s.Formatter.CurrencyLabel(balance, s.Config.TokenDecimals)
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	treasury.Flags().String("organizer", "", "also show this organizer's withdrawable balance")

	allowance := &cobra.Command{
		Use:   "allowance <owner>",
		Short: "Show the IDRX balance and allowance granted to a spender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			spenderName, _ := cmd.Flags().GetString("spender")
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				token, err := s.Registry.Resolve(contracts.IDRXToken)
				if err != nil {
					return err
				}
				spender, err := s.Registry.Resolve(contracts.Name(spenderName))
				if err != nil {
					return err
				}
				allowed, err := s.Reader.Allowance(ctx, token.Address, owner, spender.Address)
				if err != nil {
					return err
				}
				balance, err := s.Reader.TokenBalance(ctx, token.Address, owner)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"owner":           owner,
					"spender":         spender.Address,
					"allowance":       allowed,
					"allowance_label": s.Formatter.CurrencyLabel(allowed, s.Config.TokenDecimals),
					"balance":         balance,
					"balance_label":   s.Formatter.CurrencyLabel(balance, s.Config.TokenDecimals),
				})
			})
		},
	}
	allowance.Flags().String("spender", string(contracts.EventFactory),
		fmt.Sprintf("spender contract (%s or %s)", contracts.EventFactory, contracts.LoyaltyStaking))

	history := &cobra.Command{
		Use:   "history",
		Short: "List recorded write operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session.Session) error {
				ops, err := s.History(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ops)
			})
		},
	}

	root.AddCommand(events, event, organizer, collection, stake, proposals, treasury, allowance, history)
}

// walletArg returns the address argument, or the signer when there is none.
func walletArg(s *session.Session, args []string) (common.Address, error) {
	if len(args) == 1 {
		return parseAddress(args[0])
	}
	from := s.Tracker.From()
	if from == (common.Address{}) {
		return common.Address{}, fmt.Errorf("an address is required when no signer is configured")
	}
	return from, nil
}
