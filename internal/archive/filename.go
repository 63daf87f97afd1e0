package archive

import (
	"regexp"
	"strings"
	"time"
)

// DefaultExtension is the archive file extension when none is configured.
const DefaultExtension = "mseed"

var namePattern = regexp.MustCompile(`^([A-Za-z0-9]+)_(\d{8})_(\d{6})\.([^.]+)$`)

// Name is a parsed STATION_YYYYMMDD_HHMMSS.<ext> archive filename.
type Name struct {
	File      string
	Station   string
	Date      string
	Extension string
	// Nominal is the start time encoded in the filename.
	Nominal time.Time
}

// ParseName splits an archive filename. ok is false when the name does
// not follow the archive convention or encodes an impossible date.
func ParseName(file string) (Name, bool) {
	m := namePattern.FindStringSubmatch(file)
	if m == nil {
		return Name{}, false
	}
	nominal, err := time.ParseInLocation("20060102150405", m[2]+m[3], time.UTC)
	if err != nil {
		return Name{}, false
	}
	return Name{
		File:      file,
		Station:   m[1],
		Date:      m[2],
		Extension: m[4],
		Nominal:   nominal,
	}, true
}

// matches reports whether the name belongs to the requested date and
// carries the configured extension.
func (n Name) matches(date, extension string) bool {
	return n.Date == date && strings.EqualFold(n.Extension, extension)
}
