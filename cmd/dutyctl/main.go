package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/roomduty/roomduty-api-go/pkg/config"
)

var version = "dev"

func main() {
	config.LoadDotEnv()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dutyctl: %s\n", err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "dutyctl"
	app.HelpName = "dutyctl"
	app.Usage = "operate the room duty scheduler"
	app.UsageText = "dutyctl <command> [arguments...]"
	app.Version = version
	app.Commands = []cli.Command{
		{
			Name:      "generate",
			Aliases:   []string{"g"},
			Usage:     "print the duty schedule of a year or month",
			UsageText: "dutyctl generate --year 2026 [--month 1] [--persons A,B] [--tasks X,Y] [--format table|csv|json]",
			Flags:     generateFlags,
			Action:    generate,
		},
		{
			Name:      "keygen",
			Usage:     "issue an HMAC API key for a client name",
			UsageText: "dutyctl keygen [--register] [--rate-limit N] <name>",
			Flags:     keygenFlags,
			Action:    keygen,
		},
		{
			Name:   "remind",
			Usage:  "send reminders for upcoming day notes once",
			Flags:  remindFlags,
			Action: remind,
		},
		{
			Name:   "publish",
			Usage:  "generate a schedule and publish it to Google Calendar",
			Flags:  publishFlags,
			Action: publish,
		},
	}
	return app
}
