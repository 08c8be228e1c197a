package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	usnjournal "www.velocidex.com/golang/go-usnjournal"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

var (
	info_command = app.Command(
		"info", "Show the journal metadata of volumes.")

	info_command_volumes = info_command.Arg(
		"volumes", "Volumes to query e.g. c:",
	).Required().Strings()

	info_command_image = info_command.Flag(
		"image", "Volumes are extracted $UsnJrnl:$J files").Bool()

	info_command_verbose = info_command.Flag(
		"verbose", "Dump the raw journal data").Short('v').Bool()
)

func doInfo() {
	loadConfig()

	lister := usnjournal.NewLister(parser.GetDefaultOptions(), os.Stdout)
	lister.Open = getOpener(*info_command_image, "")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"Volume",
		"Journal ID",
		"First USN",
		"Next USN",
		"Lowest Valid USN",
		"Max Size",
		"Allocation Delta",
	})
	defer table.Render()

	for _, volume := range *info_command_volumes {
		journal, err := lister.Query(volume)
		kingpin.FatalIfError(err, "Can not query journal")

		if *info_command_verbose {
			parser.Debug(journal)
		}

		table.Append([]string{
			volume,
			fmt.Sprintf("%#x", journal.UsnJournalID),
			fmt.Sprintf("%d", journal.FirstUsn),
			fmt.Sprintf("%d", journal.NextUsn),
			fmt.Sprintf("%d", journal.LowestValidUsn),
			humanize.IBytes(journal.MaximumSize),
			humanize.IBytes(journal.AllocationDelta),
		})
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case info_command.FullCommand():
			doInfo()
		default:
			return false
		}
		return true
	})
}
