package main

import (
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("usnjournal",
		"A tool for listing the NTFS change journal.")

	config_path = app.Flag(
		"config", "Path to the config file").
		Default("").String()

	log_level = app.Flag(
		"log_level", "Log level (debug, info, warn, error)").
		Default("").String()

	record_directory = app.Flag(
		"record", "Path to write recorded journal pages").
		Default("").String()

	command_handlers []CommandHandler
)

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
