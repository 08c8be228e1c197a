package parser

const (
	DefaultPageSize   = 0x10000
	DefaultDateFormat = "%d-%b-%Y"
	DefaultTimeFormat = "%H:%M"
	DefaultLocale     = "en"
)

type Options struct {
	// Sequence number to start from. 0 means the first available
	// record of the journal.
	StartUsn uint64

	// Only records with one of these reasons are returned by the
	// device. 0 selects DefaultReasonFilter.
	ReasonFilter ReasonFlags

	// Resolution of file ids to full paths and allocated sizes. Both
	// are expensive so they are off by default.
	ResolvePath bool
	ResolveSize bool

	// Cache leaf file lookups as well as directory lookups.
	CacheFileLookups bool

	// Size of the buffer handed to each page read.
	PageSize int

	// Report every record rather than one row per file id.
	ShowDetail bool

	// In summary mode, merge all reasons seen for a file id instead
	// of keeping the last one.
	ReasonMergeAll bool

	Show ShowFilter

	// Default layout columns.
	ShowUsn        bool
	ShowTime       bool
	ShowSize       bool
	ShowAttributes bool
	ShowDirectory  bool
	ShowReason     bool

	Separator  string
	Slash      string
	FormatChar rune
	DirLabel   string
	DateFormat string
	TimeFormat string
	Locale     string

	// Custom output format. Empty selects the default layout.
	OutputFormat string

	// Do not terminate formatted records with a newline.
	Raw bool

	// Name of the volume being scanned, rendered by %c.
	Volume string
}

func GetDefaultOptions() Options {
	return Options{
		CacheFileLookups: true,
		PageSize:         DefaultPageSize,
		ShowDirectory:    true,
		Separator:        " ",
		Slash:            "\\",
		FormatChar:       '%',
		DirLabel:         "D",
		DateFormat:       DefaultDateFormat,
		TimeFormat:       DefaultTimeFormat,
		Locale:           DefaultLocale,
	}
}
