package parser

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	strftime "github.com/ncruces/go-strftime"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders records either with the default column layout
// or with a custom format string. In the format string the format
// character (default %) introduces a field with an optional width:
//
//	%a attributes     %t time           %s size
//	%r reason         %p path           %d directory
//	%f name+ext       %n name           %e extension
//	%c volume         %% literal %
//
// Fields are padded on the right to the width, except size which is
// right justified. Unknown field letters are copied to the output.
type Formatter struct {
	options Options
	printer *message.Printer
}

func NewFormatter(options Options) *Formatter {
	if options.FormatChar == 0 {
		options.FormatChar = '%'
	}
	if options.Slash == "" {
		options.Slash = "\\"
	}
	if options.DateFormat == "" {
		options.DateFormat = DefaultDateFormat
	}
	if options.TimeFormat == "" {
		options.TimeFormat = DefaultTimeFormat
	}
	if options.Locale == "" {
		options.Locale = DefaultLocale
	}

	return &Formatter{
		options: options,
		printer: message.NewPrinter(language.Make(options.Locale)),
	}
}

// Timestamp renders the record time in local time using the date
// and time patterns.
func (self *Formatter) Timestamp(record *JournalRecord) string {
	t := record.Time().Local()
	return strftime.Format(self.options.DateFormat, t) + " " +
		strftime.Format(self.options.TimeFormat, t)
}

// Size renders a size with locale digit grouping.
func (self *Formatter) Size(size int64) string {
	return self.printer.Sprintf("%d", size)
}

// Render picks the custom format if one is configured.
func (self *Formatter) Render(record *JournalRecord) string {
	if self.options.OutputFormat != "" {
		return self.Format(record)
	}
	return self.Columns(record)
}

func (self *Formatter) Write(out io.Writer, record *JournalRecord) error {
	_, err := io.WriteString(out, self.Render(record))
	return err
}

// Format interprets the custom format string for one record.
func (self *Formatter) Format(record *JournalRecord) string {
	var b strings.Builder
	esc := self.options.FormatChar
	slash := self.options.Slash

	format := []rune(self.options.OutputFormat)
	for i := 0; i < len(format); i++ {
		if format[i] != esc {
			b.WriteRune(format[i])
			continue
		}

		// A trailing format character has nothing to format.
		i++
		if i >= len(format) {
			break
		}

		if format[i] == esc {
			b.WriteRune(esc)
			continue
		}

		width := 0
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
		if i >= len(format) {
			break
		}

		var field string
		switch format[i] {
		case 'a':
			field = record.Attributes.Letters(self.options.DirLabel)
		case 't':
			field = self.Timestamp(record)
		case 's':
			b.WriteString(padLeft(self.Size(record.Size), width))
			continue
		case 'r':
			field = record.Reason.Narrow().String()
		case 'p':
			field = record.FullPath
		case 'd':
			field = record.Directory(slash)
		case 'f':
			field = record.FileName(slash)
		case 'n':
			field = record.Stem(slash)
		case 'e':
			field = record.Extension(slash)
		case 'c':
			field = self.options.Volume
		default:
			b.WriteRune(format[i])
			continue
		}

		b.WriteString(padRight(field, width))
	}

	if !self.options.Raw {
		b.WriteString("\n")
	}
	return b.String()
}

// Columns renders the default layout.
func (self *Formatter) Columns(record *JournalRecord) string {
	columns := []string{}

	if self.options.ShowUsn {
		columns = append(columns, fmt.Sprintf("%15d", record.Usn))
	}

	if self.options.ShowTime {
		columns = append(columns, self.Timestamp(record))
	}

	if self.options.ShowSize {
		columns = append(columns, padLeft(self.Size(record.Size), 15))
	}

	if self.options.ShowAttributes {
		columns = append(columns, padLeft(
			record.Attributes.Letters(self.options.DirLabel), 4))
	}

	if self.options.ShowDirectory {
		columns = append(columns, record.FullPath)
	} else {
		columns = append(columns, record.FileName(self.options.Slash))
	}

	if self.options.ShowReason {
		columns = append(columns, record.Reason.String())
	}

	return strings.Join(columns, self.options.Separator) + "\n"
}

func padLeft(field string, width int) string {
	n := utf8.RuneCountInString(field)
	if n >= width {
		return field
	}
	return strings.Repeat(" ", width-n) + field
}

func padRight(field string, width int) string {
	n := utf8.RuneCountInString(field)
	if n >= width {
		return field
	}
	return field + strings.Repeat(" ", width-n)
}
