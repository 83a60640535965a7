package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/glizzus/pipeline-schedule/internal/runs"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
	"github.com/urfave/cli/v2"
)

func scheduleFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "schedule",
			Usage: "manual, daily or weekly",
			Value: string(schedule.KindDaily),
		},
		&cli.StringSliceFlag{
			Name:  "day",
			Usage: "local day of week for weekly schedules, 0 (Sunday) to 6 (Saturday); repeatable",
		},
		&cli.StringFlag{
			Name:  "time",
			Usage: "local time of day as HH:MM; defaults to 01:00 UTC",
		},
	}
}

// cronFromFlags turns the schedule flags, given in local time, into a UTC
// cron expression.
func cronFromFlags(c *cli.Context, converter *schedule.Converter) (string, error) {
	return converter.LocalFormToCron(schedule.LocalForm{
		Schedule:   schedule.Kind(c.String("schedule")),
		DaysOfWeek: c.StringSlice("day"),
		LocalTime:  c.String("time"),
	})
}

// scheduleForm shows a schedule as entered locally next to its stored UTC form.
type scheduleForm struct {
	Local schedule.LocalForm `json:"local"`
	UTC   schedule.Form      `json:"utc"`
}

func cronArg(c *cli.Context) (string, error) {
	if c.NArg() == 0 {
		return "", fmt.Errorf("a cron expression is required")
	}
	return strings.Join(c.Args().Slice(), " "), nil
}

func cronCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "cron",
		Usage: "Convert between schedule forms and cron expressions",
		Subcommands: []*cli.Command{
			{
				Name:  "to",
				Usage: "Build a UTC cron expression from a schedule",
				Flags: scheduleFlags(),
				Action: func(c *cli.Context) error {
					cron, err := cronFromFlags(c, e.converter)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, cron)
					return nil
				},
			},
			{
				Name:      "from",
				Usage:     "Show the schedule form for a UTC cron expression",
				ArgsUsage: "<cron>",
				Action: func(c *cli.Context) error {
					cron, err := cronArg(c)
					if err != nil {
						return err
					}
					local, err := e.converter.CronToLocalForm(cron)
					if err != nil {
						return err
					}
					form := scheduleForm{Local: local, UTC: schedule.FormOf(schedule.CronToSchedule(cron))}

					encoder := json.NewEncoder(c.App.Writer)
					encoder.SetIndent("", "  ")
					return encoder.Encode(form)
				},
			},
			{
				Name:      "describe",
				Usage:     "Describe a UTC cron expression in local time",
				ArgsUsage: "<cron>",
				Action: func(c *cli.Context) error {
					cron, err := cronArg(c)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, e.converter.CronToHumanString(cron))
					return nil
				},
			},
			{
				Name:      "local",
				Usage:     "Rewrite a UTC cron expression in local time",
				ArgsUsage: "<cron>",
				Action: func(c *cli.Context) error {
					cron, err := cronArg(c)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, e.converter.CronToLocalTimezone(cron))
					return nil
				},
			},
			{
				Name:      "next",
				Usage:     "List the next run times of a UTC cron expression",
				ArgsUsage: "<cron>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Value: 5, Usage: "number of run times"},
				},
				Action: func(c *cli.Context) error {
					cron, err := cronArg(c)
					if err != nil {
						return err
					}
					if err := schedule.ValidateCron(cron); err != nil {
						return err
					}
					now := e.converter.LocalNow()
					times, err := schedule.NextRunTimesAfter(cron, now, c.Int("count"))
					if err != nil {
						return err
					}
					for _, t := range times {
						fmt.Fprintf(c.App.Writer, "%s  (%s)\n",
							t.In(now.Location()).Format("Mon 2006-01-02 15:04 MST"),
							runs.RelativeTime(t, now))
					}
					return nil
				},
			},
		},
	}
}

func timeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "time",
		Usage: "Convert a time of day between local time and UTC",
		Subcommands: []*cli.Command{
			{
				Name:      "to-utc",
				Usage:     "Convert local HH:MM to UTC \"H M\"",
				ArgsUsage: "<HH:MM>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("a local time is required")
					}
					utc, err := e.converter.LocalTimeToUTC(c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, utc)
					return nil
				},
			},
			{
				Name:      "to-local",
				Usage:     "Convert UTC \"H M\" to local HH:MM",
				ArgsUsage: "<H M>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("a UTC time is required")
					}
					local, err := e.converter.UTCTimeToLocal(strings.Join(c.Args().Slice(), " "))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, local)
					return nil
				},
			},
		},
	}
}

func durationCommand() *cli.Command {
	return &cli.Command{
		Name:      "duration",
		Usage:     "Format a duration given in seconds or as a start and end timestamp",
		ArgsUsage: "[seconds]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Usage: "start timestamp"},
			&cli.StringFlag{Name: "end", Usage: "end timestamp"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("start") || c.IsSet("end") {
				seconds := runs.CalculateDurationSeconds(c.String("start"), c.String("end"))
				fmt.Fprintln(c.App.Writer, runs.FormatDuration(seconds))
				return nil
			}

			seconds, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid number of seconds %q: %w", c.Args().First(), err)
			}
			fmt.Fprintln(c.App.Writer, runs.FormatDuration(seconds))
			return nil
		},
	}
}
