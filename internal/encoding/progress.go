package encoding

import (
	"strconv"
	"strings"
	"time"
)

// ProgressUpdate captures one ffmpeg progress report.
type ProgressUpdate struct {
	// Percent is the completed fraction of the output in 0..100, or -1
	// when the total duration is unknown.
	Percent float64
	OutTime time.Duration
	Speed   string
	Done    bool
}

// progressParser accumulates the key=value lines ffmpeg writes to its
// -progress target and emits one update per "progress=" terminator.
type progressParser struct {
	totalSeconds float64
	current      ProgressUpdate
}

func newProgressParser(totalSeconds float64) *progressParser {
	return &progressParser{totalSeconds: totalSeconds, current: ProgressUpdate{Percent: -1}}
}

// Feed consumes one line. It returns an update and true when the line
// completes a progress block.
func (p *progressParser) Feed(line string) (ProgressUpdate, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return ProgressUpdate{}, false
	}
	value = strings.TrimSpace(value)
	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		if micros, err := strconv.ParseInt(value, 10, 64); err == nil && micros >= 0 {
			p.current.OutTime = time.Duration(micros) * time.Microsecond
		}
	case "out_time":
		if d, ok := parseClockTime(value); ok {
			p.current.OutTime = d
		}
	case "speed":
		p.current.Speed = value
	case "progress":
		update := p.current
		update.Done = value == "end"
		if p.totalSeconds > 0 {
			percent := update.OutTime.Seconds() / p.totalSeconds * 100
			if percent > 100 {
				percent = 100
			}
			update.Percent = percent
		}
		if update.Done {
			update.Percent = 100
		}
		return update, true
	}
	return ProgressUpdate{}, false
}

// parseClockTime parses ffmpeg's HH:MM:SS.micros timestamps.
func parseClockTime(value string) (time.Duration, bool) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := float64(hours)*3600 + float64(minutes)*60 + seconds
	if total < 0 {
		return 0, false
	}
	return time.Duration(total * float64(time.Second)), true
}
