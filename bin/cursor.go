package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-usnjournal/logging"
)

var (
	cursor_command = app.Command(
		"cursor", "Manage the stored journal cursors.")

	cursor_command_db = cursor_command.Flag(
		"cursor_db", "Path to the cursor database").String()

	cursor_command_list = cursor_command.Command(
		"list", "List the stored cursors.").Default()

	cursor_command_reset = cursor_command.Command(
		"reset", "Forget the cursor of a volume so the next run starts at the first record.")

	cursor_command_reset_volumes = cursor_command_reset.Arg(
		"volumes", "Volumes to reset",
	).Required().Strings()
)

func doCursorList() {
	cfg := loadConfig()
	store := openCursorStore(cfg, *cursor_command_db)
	defer store.Close()

	cursors, err := store.List(context.Background())
	kingpin.FatalIfError(err, "Can not list cursors")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"Volume",
		"Journal ID",
		"Next USN",
		"Updated",
	})
	table.SetCaption(true, fmt.Sprintf("%d cursors", len(cursors)))
	defer table.Render()

	for _, c := range cursors {
		table.Append([]string{
			c.Volume,
			fmt.Sprintf("%#x", c.JournalID),
			fmt.Sprintf("%d", c.NextUsn),
			humanize.Time(c.Updated),
		})
	}
}

func doCursorReset() {
	cfg := loadConfig()
	store := openCursorStore(cfg, *cursor_command_db)
	defer store.Close()

	for _, volume := range *cursor_command_reset_volumes {
		err := store.Delete(context.Background(), volume)
		kingpin.FatalIfError(err, "Can not reset cursor")
		logging.Named("cursor").Info().Str("volume", volume).Msg("Cursor reset")
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case cursor_command_list.FullCommand():
			doCursorList()
		case cursor_command_reset.FullCommand():
			doCursorReset()
		default:
			return false
		}
		return true
	})
}
