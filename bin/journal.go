package main

import (
	"os"
	"strconv"
	"time"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	usnjournal "www.velocidex.com/golang/go-usnjournal"
	"www.velocidex.com/golang/go-usnjournal/config"
	"www.velocidex.com/golang/go-usnjournal/logging"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

var (
	journal_command = app.Command(
		"journal", "List the change journal of one or more volumes.").Default()

	journal_command_volumes = journal_command.Arg(
		"volumes", "Volumes to list, e.g. c: or c:*.txt to only show matching names",
	).Required().Strings()

	journal_command_detail = journal_command.Flag(
		"detail", "Show every record, by default only the last record of each file is shown").
		Short('d').Bool()

	journal_command_show = journal_command.Flag(
		"show", "Show all, dir or file records").
		Default("all").String()

	journal_command_find = journal_command.Flag(
		"find", "Only show paths matching this wildcard (repeatable)").
		Short('f').Strings()

	journal_command_grep = journal_command.Flag(
		"grep", "Only show paths matching this regex (repeatable)").
		Short('g').Strings()

	journal_command_filter = journal_command.Flag(
		"filter", "Filter expression name:PAT, grep:RE, size:N or mtime:DAYS, prefix ! to invert (repeatable)").
		Strings()

	journal_command_reasons = journal_command.Flag(
		"reasons", "Reason keywords e.g. create+delete+rename (overwrite, extend, truncate, create, delete, rename, security, basic, link, all)").
		Short('r').String()

	journal_command_start = journal_command.Flag(
		"start", "Starting usn, or - to continue from the stored cursor").
		Short('u').String()

	journal_command_save_cursor = journal_command.Flag(
		"save_cursor", "Store the final usn of each volume").Bool()

	journal_command_cursor_db = journal_command.Flag(
		"cursor_db", "Path to the cursor database").String()

	journal_command_show_usn = journal_command.Flag(
		"show_usn", "Show the usn column").Short('U').Bool()

	journal_command_show_time = journal_command.Flag(
		"show_time", "Show the time column").Short('T').Bool()

	journal_command_show_size = journal_command.Flag(
		"show_size", "Show the allocated size column (implies --resolve_size)").
		Short('S').Bool()

	journal_command_show_attr = journal_command.Flag(
		"show_attr", "Show the attribute column").Short('A').Bool()

	journal_command_show_reason = journal_command.Flag(
		"show_reason", "Show the reason column").Short('R').Bool()

	journal_command_no_directory = journal_command.Flag(
		"no_directory", "Only show the name, not the directory").Short('D').Bool()

	journal_command_dir_attr = journal_command.Flag(
		"dir_attr", "Label used for directories in the attribute column").
		Short('B').String()

	journal_command_format_char = journal_command.Flag(
		"format_char", "Character introducing --format fields").
		Short('C').String()

	journal_command_format = journal_command.Flag(
		"format", "Custom output format: %a attr, %t time, %s size, %r reason, %p path, %d dir, %f name.ext, %n name, %e ext, %c volume").
		Short('F').String()

	journal_command_raw = journal_command.Flag(
		"raw", "Do not end --format output with a newline").Bool()

	journal_command_merge = journal_command.Flag(
		"merge_reasons", "Show all reasons seen for a file rather than the last").
		Short('M').Bool()

	journal_command_comma = journal_command.Flag(
		"comma", "Separate columns with a comma").Bool()

	journal_command_full_path = journal_command.Flag(
		"full_path", "Resolve full paths through the file id").
		Short('P').Bool()

	journal_command_resolve_size = journal_command.Flag(
		"resolve_size", "Resolve allocated sizes through the file id").Bool()

	journal_command_no_cache = journal_command.Flag(
		"no_cache", "Only cache directory lookups").Bool()

	journal_command_watch = journal_command.Flag(
		"watch", "Keep watching the journal for changes").
		Short('w').Bool()

	journal_command_period = journal_command.Flag(
		"period", "How often to poll the journal with --watch").
		Default("30s").Duration()

	journal_command_image = journal_command.Flag(
		"image", "Volumes are extracted $UsnJrnl:$J files").Bool()

	journal_command_replay = journal_command.Flag(
		"replay", "Replay journal pages recorded with --record").String()
)

func buildOptions(cfg *config.Config) parser.Options {
	options := parser.GetDefaultOptions()
	cfg.Apply(&options)

	options.ShowDetail = *journal_command_detail
	options.ReasonMergeAll = *journal_command_merge

	show, err := parser.ParseShowFilter(*journal_command_show)
	kingpin.FatalIfError(err, "--show")
	options.Show = show

	if *journal_command_reasons != "" {
		mask, err := parser.ParseReasonKeywords(*journal_command_reasons)
		kingpin.FatalIfError(err, "--reasons")
		options.ReasonFilter = mask
	}

	if *journal_command_start != "" && *journal_command_start != "-" {
		start, err := strconv.ParseUint(*journal_command_start, 0, 64)
		kingpin.FatalIfError(err, "--start")
		options.StartUsn = start
	}

	options.ShowUsn = *journal_command_show_usn
	options.ShowTime = *journal_command_show_time
	options.ShowSize = *journal_command_show_size
	options.ShowAttributes = *journal_command_show_attr
	options.ShowReason = *journal_command_show_reason
	options.ShowDirectory = !*journal_command_no_directory

	if *journal_command_dir_attr != "" {
		options.DirLabel = *journal_command_dir_attr
	}

	for _, c := range *journal_command_format_char {
		options.FormatChar = c
		break
	}

	if *journal_command_comma {
		options.Separator = ", "
	}

	options.OutputFormat = *journal_command_format
	options.Raw = *journal_command_raw

	options.ResolvePath = *journal_command_full_path
	options.ResolveSize = *journal_command_resolve_size || *journal_command_show_size
	if *journal_command_no_cache {
		options.CacheFileLookups = false
	}

	return options
}

func buildFilters() []parser.Matcher {
	result := []parser.Matcher{}

	for _, pattern := range *journal_command_find {
		result = append(result, parser.NewMatchName(pattern, false))
	}

	for _, expr := range *journal_command_grep {
		rule, err := parser.NewMatchGrep(expr, false)
		kingpin.FatalIfError(err, "--grep %v", expr)
		result = append(result, rule)
	}

	now := time.Now()
	for _, expr := range *journal_command_filter {
		rule, err := parser.ParseFilter(expr, now)
		kingpin.FatalIfError(err, "--filter")
		result = append(result, rule)
	}

	return result
}

func doJournal() {
	if runJournal() != nil {
		os.Exit(1)
	}
}

// Per volume errors are logged by the lister.
func runJournal() error {
	cfg := loadConfig()
	options := buildOptions(cfg)
	if parser.IsDebug() {
		parser.DebugPrint("Options: %v\n", parser.DebugString(options, ""))
	}

	lister := usnjournal.NewLister(options, os.Stdout)
	lister.Filters = buildFilters()
	lister.Images = *journal_command_image
	lister.Open = getOpener(*journal_command_image, *journal_command_replay)
	lister.Watch = *journal_command_watch
	lister.Period = *journal_command_period
	lister.UseCursor = *journal_command_start == "-"
	lister.SaveCursor = *journal_command_save_cursor || lister.UseCursor

	if lister.UseCursor || lister.SaveCursor {
		store := openCursorStore(cfg, *journal_command_cursor_db)
		defer store.Close()
		lister.Cursors = store
	}

	ctx, cancel := signalContext()
	defer cancel()

	reports, err := lister.ListJournals(ctx, *journal_command_volumes)
	for _, report := range reports {
		logging.Get().Debug().
			Str("volume", report.Volume).
			Interface("resolver", report.Resolver).
			Msg("Resolver stats")
	}
	logging.Get().Debug().Interface("stats", parser.STATS.Snapshot()).Msg("Scan stats")
	parser.DebugPrint("Stats: %v\n", parser.STATS.DebugString())

	return err
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case journal_command.FullCommand():
			doJournal()
		default:
			return false
		}
		return true
	})
}
