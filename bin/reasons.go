package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

var (
	reasons_command = app.Command(
		"reasons", "Decode reason masks or reason keywords.")

	reasons_command_args = reasons_command.Arg(
		"values", "A numeric mask (e.g. 0x80000102) or keywords (e.g. create+delete)",
	).Strings()
)

func doReasons() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Input", "Mask", "Reasons"})
	defer table.Render()

	// Without arguments show the default filter.
	args := *reasons_command_args
	if len(args) == 0 {
		args = []string{fmt.Sprintf("%#x", uint32(parser.DefaultReasonFilter))}
	}

	for _, arg := range args {
		var mask parser.ReasonFlags

		value, err := strconv.ParseUint(arg, 0, 32)
		if err == nil {
			mask = parser.ReasonFlags(value)
		} else {
			mask, err = parser.ParseReasonKeywords(arg)
			kingpin.FatalIfError(err, "Can not parse %v", arg)
		}

		table.Append([]string{
			arg,
			fmt.Sprintf("%#08x", uint32(mask)),
			mask.String(),
		})
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case reasons_command.FullCommand():
			doReasons()
		default:
			return false
		}
		return true
	})
}
