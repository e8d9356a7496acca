package main

import (
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/domain"
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var (
		password string
		register bool
		name     string
	)
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Log in and save the access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}

			ctx := cmd.Context()
			c := a.client()
			if register {
				if name == "" {
					name = strings.Split(email, "@")[0]
				}
				if err := c.Register(ctx, name, email, password); err != nil {
					return fmt.Errorf("register: %w", err)
				}
			}
			token, err := c.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			a.v.Set("token", token)
			if err := a.saveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().BoolVar(&register, "register", false, "create the account first")
	cmd.Flags().StringVar(&name, "name", "", "display name for --register")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var (
		from string
		days int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print plans and the schedule for a range of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			start, err := parseFrom(from)
			if err != nil {
				return err
			}
			cal, err := a.client().Fetch(cmd.Context())
			if err != nil {
				return err
			}
			renderCalendar(cmd.OutOrStdout(), cal, start, days)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&days, "days", 7, "number of days to show")
	return cmd
}

func (a *app) planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create, edit or delete workout plans",
	}

	var (
		color     string
		exercises []string
		duration  int
	)
	save := &cobra.Command{
		Use:   "save ID NAME",
		Short: "Add a plan, or edit the plan with this ID in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := domain.WorkoutPlan{
				ID:        args[0],
				Name:      args[1],
				Color:     color,
				Exercises: exercises,
			}
			if plan.Exercises == nil {
				plan.Exercises = []string{}
			}
			if duration > 0 {
				plan.Duration = &duration
			}
			return a.withSession(cmd.Context(), func(s *calendar.Session) error {
				if err := s.SavePlan(plan); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved plan %s\n", plan.ID)
				return nil
			})
		},
	}
	save.Flags().StringVar(&color, "color", "blue", "display color")
	save.Flags().StringSliceVarP(&exercises, "exercise", "e", nil, "exercise ID, repeatable, in order")
	save.Flags().IntVar(&duration, "duration", 0, "expected duration in minutes")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a plan and remove it from every day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *calendar.Session) error {
				if !s.Calendar().HasPlan(args[0]) {
					return fmt.Errorf("no plan %q", args[0])
				}
				if err := s.DeletePlan(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(save, del)
	return cmd
}

func (a *app) dragCmd() *cobra.Command {
	var (
		device   string
		distance float64
	)
	cmd := &cobra.Command{
		Use:   "drag PLAN DATE",
		Short: "Drag a plan onto a day",
		Long: "Drag a plan onto a day. The gesture goes through the drag controller with the\n" +
			"server's activation constraints, so a pointer drag shorter than the activation\n" +
			"distance is discarded, like in the calendar view.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, dateKey := args[0], args[1]
			if !domain.ValidDateKey(dateKey) {
				return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateKey)
			}
			if err := a.requireToken(); err != nil {
				return err
			}
			ctx := cmd.Context()
			sensors, err := a.client().Sensors(ctx)
			if err != nil {
				return err
			}

			return a.withSession(ctx, func(s *calendar.Session) error {
				if !s.Calendar().HasPlan(planID) {
					return fmt.Errorf("no plan %q", planID)
				}
				ctrl := calendar.NewController(s, calendar.WithSensors(sensors))
				res := simulateDrag(ctrl, sensors, gesture{
					planID:   planID,
					device:   calendar.Device(device),
					distance: distance,
					targetID: calendar.DropTargetID(dateKey),
				}, time.Sleep)
				fmt.Fprintln(cmd.OutOrStdout(), describeDrop(res))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&device, "device", string(calendar.DevicePointer), "input device: pointer or touch")
	cmd.Flags().Float64Var(&distance, "distance", 0, "pointer travel in pixels (default: just enough to activate)")
	return cmd
}

func (a *app) unscheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule PLAN DATE",
		Short: "Remove a plan from a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			planID, dateKey := args[0], args[1]
			return a.withSession(cmd.Context(), func(s *calendar.Session) error {
				if s.Unschedule(planID, dateKey) {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", planID, dateKey)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not scheduled on %s\n", planID, dateKey)
				}
				return nil
			})
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reprint the schedule whenever it changes on any device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireToken(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := calendar.NewSession(ctx, a.client())
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			renderCalendar(out, sess.Calendar(), today(), days)
			for {
				select {
				case <-ctx.Done():
					return nil
				case _, ok := <-sess.Changes():
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "\n-- updated %s --\n", time.Now().Format(time.TimeOnly))
					renderCalendar(out, sess.Calendar(), today(), days)
				case notice, ok := <-sess.Notices():
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", notice)
				}
			}
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to show")
	return cmd
}

func (a *app) restCmd() *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "rest",
		Short: "Run a rest timer between sets",
		Long:  "Run a rest timer between sets. The duration defaults to your rest timer setting.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seconds <= 0 {
				if err := a.requireToken(); err != nil {
					return err
				}
				settings, err := a.client().Settings(cmd.Context())
				if err != nil {
					return err
				}
				seconds = settings.RestTimerSeconds
			}
			if seconds <= 0 {
				seconds = domain.DefaultRestTimerSeconds
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			err := runRestTimer(ctx, cmd.OutOrStdout(), time.Duration(seconds)*time.Second, ticker.C)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "\nRest skipped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&seconds, "seconds", "s", 0, "rest duration (default: your setting)")
	return cmd
}

func parseFrom(from string) (time.Time, error) {
	if from == "" {
		return today(), nil
	}
	t, err := time.Parse(domain.DateKeyLayout, from)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --from %q, expected YYYY-MM-DD", from)
	}
	return t, nil
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
