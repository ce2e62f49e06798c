package serialmon

// Notice is an informational outcome of an operation that did nothing.
// Notices are never failures.
type Notice int

const (
	NoticeNone Notice = iota
	NoticeAlreadyOpen
	NoticeNothingToClose
	NoticeNoPortAvailable
	NoticeNoMatchingPort
	NoticeNoSelection
	NoticeNotOpen
)

func (n Notice) String() string {
	switch n {
	case NoticeAlreadyOpen:
		return "serial monitor is already open"
	case NoticeNothingToClose:
		return "no serial port is open"
	case NoticeNoPortAvailable:
		return "no serial port is available"
	case NoticeNoMatchingPort:
		return "no serial port matches the device filter"
	case NoticeNoSelection:
		return "no serial port was selected"
	case NoticeNotOpen:
		return "serial monitor is not open"
	default:
		return ""
	}
}
